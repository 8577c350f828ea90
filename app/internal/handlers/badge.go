package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"statuspage/app/internal/badge"
	"statuspage/app/internal/stats"
)

func badgeOptions(r *http.Request) stats.BadgeOptions {
	q := r.URL.Query()
	return stats.BadgeOptions{
		Label:            q.Get("label"),
		UpColor:          q.Get("upColor"),
		DownColor:        q.Get("downColor"),
		PartialColor:     q.Get("partialColor"),
		MaintenanceColor: q.Get("maintenanceColor"),
		Style:            q.Get("style"),
	}.WithDefaults()
}

// HandleBadge renders the aggregate status of a page's public monitors as SVG.
// Unknown pages render N/A.
func HandleBadge(store PageStore, eval *stats.Evaluator, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := slugParam(r)
		opts := badgeOptions(r)

		page, err := store.StatusPageBySlug(r.Context(), slug)
		if err != nil {
			log.Error("load_status_page_failed", zap.String("slug", slug), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		var ids []int64
		if page != nil {
			if ids, err = store.PublicMonitorIDs(r.Context(), page.ID); err != nil {
				log.Error("load_public_monitors_failed", zap.Int64("status_page_id", page.ID), zap.Error(err))
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}

		st, err := eval.Evaluate(r.Context(), ids, opts)
		if err != nil {
			log.Error("evaluate_badge_failed", zap.String("slug", slug), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		svg, err := badge.Render(badge.Values{
			Label:   st.Label,
			Message: st.Message,
			Color:   st.Color,
			Style:   st.Style,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(svg)
	}
}
