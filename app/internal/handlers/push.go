package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"statuspage/app/internal/alerts"
	"statuspage/app/internal/cache"
	"statuspage/app/internal/stats"
)

// pushStatus maps the status query value to a heartbeat status. Anything
// other than the known names counts as up, like an empty value.
func pushStatus(v string) stats.Status {
	switch v {
	case "down":
		return stats.StatusDown
	case "pending":
		return stats.StatusPending
	case "maintenance":
		return stats.StatusMaintenance
	default:
		return stats.StatusUp
	}
}

// alertTimeout bounds the background delivery of one status change
const alertTimeout = 30 * time.Second

// HandlePush records a heartbeat sent by a monitored service.
// Query: status (up|down|pending|maintenance), msg, ping (ms).
func HandlePush(rec HeartbeatRecorder, n Notifier, c *cache.Cache, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "pushToken")
		mon, err := rec.MonitorByPushToken(r.Context(), token)
		if err != nil {
			log.Error("push_lookup_failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if mon == nil || !mon.Active {
			writeError(w, http.StatusNotFound, "Monitor not found or not active.")
			return
		}

		q := r.URL.Query()
		hb := &stats.Heartbeat{
			MonitorID: mon.ID,
			Status:    pushStatus(q.Get("status")),
			Time:      time.Now().UTC(),
			Msg:       q.Get("msg"),
		}
		if hb.Msg == "" {
			hb.Msg = "OK"
		}
		if p, err := strconv.Atoi(q.Get("ping")); err == nil && p >= 0 {
			hb.Ping = &p
		}

		if err := rec.RecordHeartbeat(r.Context(), hb); err != nil {
			log.Error("push_record_failed", zap.Int64("monitor_id", mon.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if c != nil {
			c.DeletePrefix(heartbeatPrefix)
		}
		if hb.Important {
			log.Info("monitor_status_changed",
				zap.Int64("monitor_id", mon.ID),
				zap.String("status", hb.Status.String()),
				zap.String("msg", hb.Msg),
			)
			if n != nil {
				ev := alerts.Event{
					MonitorID:   mon.ID,
					MonitorName: mon.Name,
					Status:      hb.Status,
					Msg:         hb.Msg,
					Time:        hb.Time,
				}
				go func() {
					ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), alertTimeout)
					defer cancel()
					// failures are logged by the notifier
					_ = n.Notify(ctx, ev)
				}()
			}
		}

		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
