package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog"

	"salesquote/services"
)

// Deps holds the services the quotation handlers call.
type Deps struct {
	Workflow   *services.Workflow
	Resolver   *services.Resolver
	Loader     *services.Loader
	POs        *services.PurchaseOrders
	Letterhead services.Letterhead
	Logger     zerolog.Logger
}

// writeError maps service errors onto HTTP status codes. Validation errors
// are 422, missing records 404, partially applied writes 502 with the
// per-write outcomes in the body.
func writeError(e *core.RequestEvent, d *Deps, err error, writes []services.WriteOutcome) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		SetToast(e, "error", verr.Error())
		e.Response.Header().Set("HX-Reswap", "none")
		return e.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error": verr.Error(),
			"field": verr.Field,
		})
	case errors.Is(err, services.ErrNotFound):
		return ErrorToast(e, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPartialTransition), errors.Is(err, services.ErrPartialSave):
		SetToast(e, "error", "Some records could not be updated")
		return e.JSON(http.StatusBadGateway, map[string]any{
			"error":  err.Error(),
			"writes": writes,
		})
	}
	requestLogger(e, d.Logger).Error().Err(err).Str("path", e.Request.URL.Path).Msg("request failed")
	return ErrorToast(e, http.StatusInternalServerError, "Internal error")
}
