package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"salesquote/services"
)

// HandleQueue lists the current quotation of every RFQ in a stage.
// Route: GET /api/queues/{stage}
func HandleQueue(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		stage, ok := services.ParseStage(e.Request.PathValue("stage"))
		if !ok {
			return ErrorToast(e, http.StatusBadRequest, "Unknown stage")
		}
		recs, err := d.Resolver.ResolveQueue(e.Request.Context(), stage)
		if err != nil {
			return writeError(e, d, err, nil)
		}
		return e.JSON(http.StatusOK, map[string]any{
			"stage": stage,
			"items": recs,
		})
	}
}

// Route: GET /api/quotes/options
func HandleOptions() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, services.Options())
	}
}

// HandleLoad returns the RFQ with its drawings, totals and current record.
// An optional ?status= resolves a specific status instead of the RFQ's own.
// Route: GET /api/quotes/{rfq}
func HandleLoad(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var status services.Status
		if raw := e.Request.URL.Query().Get("status"); raw != "" {
			s, err := services.ParseStatus(raw)
			if err != nil {
				return ErrorToast(e, http.StatusBadRequest, err.Error())
			}
			status = s
		}
		q, err := d.Loader.Load(e.Request.Context(), e.Request.PathValue("rfq"), status)
		if err != nil {
			return writeError(e, d, err, nil)
		}
		return e.JSON(http.StatusOK, q)
	}
}

// Route: GET /api/quotes/{rfq}/history
func HandleHistory(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		h, err := d.Workflow.History(e.Request.Context(), e.Request.PathValue("rfq"))
		if err != nil {
			return writeError(e, d, err, nil)
		}
		return e.JSON(http.StatusOK, h)
	}
}
