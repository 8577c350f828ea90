package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"statuspage/app/internal/models"
	"statuspage/app/internal/stats"
)

// rawHeartbeatLimit is how many raw heartbeats are listed when days is 0
const rawHeartbeatLimit = 100

// maxParallelMonitors bounds per-request fan-out
const maxParallelMonitors = 8

// leadingInt reads the integer prefix of s ("7.5" and "7abc" are 7).
// No digits yields 0.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// out of int range; the caller clamps anyway
		if s[0] == '-' {
			return math.MinInt
		}
		return math.MaxInt
	}
	return n
}

// heartbeatParams reads days and maxBeat by their integer prefix. A present
// days without digits means 0; an absent one falls back to the page setting.
func heartbeatParams(r *http.Request, page *models.StatusPage, defaultMaxBeat int) (days, maxBeat int) {
	q := r.URL.Query()

	days = page.HeartbeatBarDays
	if q.Has("days") {
		days = leadingInt(q.Get("days"))
	}

	maxBeat = leadingInt(q.Get("maxBeat"))
	if maxBeat == 0 {
		maxBeat = defaultMaxBeat
	}
	return stats.ClampDays(days), stats.ClampMaxBeat(maxBeat)
}

// HandleHeartbeat returns the timeline and 24h uptime of every public monitor on a page
func HandleHeartbeat(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := loadPage(w, r, d.Store, d.Log, "Status Page Not Found")
		if page == nil {
			return
		}
		days, maxBeat := heartbeatParams(r, page, d.DefaultMaxBeat)

		ids, err := d.Store.PublicMonitorIDs(r.Context(), page.ID)
		if err != nil {
			d.Log.Error("load_public_monitors_failed", zap.Int64("status_page_id", page.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		lists := make([]any, len(ids))
		uptimes := make([]float64, len(ids))

		g, ctx := errgroup.WithContext(r.Context())
		g.SetLimit(maxParallelMonitors)
		for i, id := range ids {
			g.Go(func() error {
				if days > 0 {
					buckets, err := d.Downsampler.Downsample(ctx, id, days, maxBeat)
					if err != nil {
						return err
					}
					lists[i] = buckets
				} else {
					beats, err := d.Store.RecentHeartbeats(ctx, id, rawHeartbeatLimit)
					if err != nil {
						return fmt.Errorf("recent heartbeats for monitor %d: %w", id, err)
					}
					public := make([]stats.PublicHeartbeat, 0, len(beats))
					for _, hb := range beats {
						public = append(public, hb.Public())
					}
					lists[i] = public
				}

				up, err := d.Uptime.Uptime24h(ctx, id)
				if err != nil {
					return err
				}
				uptimes[i] = up
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			d.Log.Error("build_heartbeat_list_failed",
				zap.String("slug", page.Slug),
				zap.Int("days", days),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		payload := models.HeartbeatPayload{
			HeartbeatList: make(map[int64]any, len(ids)),
			UptimeList:    make(map[string]float64, len(ids)),
		}
		for i, id := range ids {
			payload.HeartbeatList[id] = lists[i]
			payload.UptimeList[fmt.Sprintf("%d_24", id)] = uptimes[i]
		}
		writeJSON(w, http.StatusOK, payload)
	}
}
