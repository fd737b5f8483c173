package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"salesquote/services"
)

// quoteRequest is the JSON body accepted by the draft and transition
// routes. Every field is optional at this layer.
type quoteRequest struct {
	Date     string             `json:"date"`
	Drawings []services.Drawing `json:"drawings"`
	Reason   string             `json:"reason"`
}

type parsedRequest struct {
	date     time.Time
	drawings []services.Drawing
	reason   string
}

func decodeQuoteRequest(r *http.Request) (parsedRequest, error) {
	var body quoteRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return parsedRequest{}, fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	out := parsedRequest{drawings: body.Drawings, reason: body.Reason}
	if s := strings.TrimSpace(body.Date); s != "" {
		t, err := cast.ToTimeE(s)
		if err != nil {
			return parsedRequest{}, fmt.Errorf("invalid date %q", s)
		}
		out.date = t
	}
	return out, nil
}

type transitionFunc func(ctx context.Context, rfq string, req parsedRequest) (*services.TransitionResult, error)

func handleTransition(d *Deps, done string, run transitionFunc) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rfq := e.Request.PathValue("rfq")
		req, err := decodeQuoteRequest(e.Request)
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, err.Error())
		}

		res, err := run(e.Request.Context(), rfq, req)
		if err != nil {
			var writes []services.WriteOutcome
			if res != nil {
				writes = res.Writes
			}
			return writeError(e, d, err, writes)
		}

		SetToast(e, "success", fmt.Sprintf("RFQ %s %s", rfq, done))
		return e.JSON(http.StatusOK, res)
	}
}

// Route: POST /api/quotes/{rfq}/submit
func HandleSubmit(d *Deps) func(*core.RequestEvent) error {
	return handleTransition(d, "submitted for approval", func(ctx context.Context, rfq string, req parsedRequest) (*services.TransitionResult, error) {
		return d.Workflow.Submit(ctx, rfq, services.SubmitInput{Drawings: req.drawings, Date: req.date})
	})
}

// Route: POST /api/quotes/{rfq}/approve
func HandleApprove(d *Deps) func(*core.RequestEvent) error {
	return handleTransition(d, "approved", func(ctx context.Context, rfq string, _ parsedRequest) (*services.TransitionResult, error) {
		return d.Workflow.Approve(ctx, rfq)
	})
}

// Route: POST /api/quotes/{rfq}/reject
func HandleReject(d *Deps) func(*core.RequestEvent) error {
	return handleTransition(d, "sent back for rework", func(ctx context.Context, rfq string, req parsedRequest) (*services.TransitionResult, error) {
		return d.Workflow.Reject(ctx, rfq, req.reason)
	})
}

// Route: POST /api/quotes/{rfq}/send
func HandleSend(d *Deps) func(*core.RequestEvent) error {
	return handleTransition(d, "sent to customer", func(ctx context.Context, rfq string, _ parsedRequest) (*services.TransitionResult, error) {
		return d.Workflow.Send(ctx, rfq)
	})
}

// Route: POST /api/quotes/{rfq}/won
func HandleWin(d *Deps) func(*core.RequestEvent) error {
	return handleTransition(d, "marked Won", func(ctx context.Context, rfq string, _ parsedRequest) (*services.TransitionResult, error) {
		return d.Workflow.Win(ctx, rfq)
	})
}

// Route: POST /api/quotes/{rfq}/loss
func HandleLose(d *Deps) func(*core.RequestEvent) error {
	return handleTransition(d, "marked Loss", func(ctx context.Context, rfq string, req parsedRequest) (*services.TransitionResult, error) {
		return d.Workflow.Lose(ctx, rfq, req.reason)
	})
}

// Route: POST /api/quotes/{rfq}/revise
func HandleRevise(d *Deps) func(*core.RequestEvent) error {
	return handleTransition(d, "opened for revision", func(ctx context.Context, rfq string, _ parsedRequest) (*services.TransitionResult, error) {
		return d.Workflow.Revise(ctx, rfq)
	})
}

// Route: POST /api/quotes/{rfq}/resubmit
func HandleResubmit(d *Deps) func(*core.RequestEvent) error {
	return handleTransition(d, "resubmitted", func(ctx context.Context, rfq string, req parsedRequest) (*services.TransitionResult, error) {
		return d.Workflow.Resubmit(ctx, rfq, services.ResubmitInput{Drawings: req.drawings, Date: req.date})
	})
}

// HandleSaveDraft stores edited parts without changing status.
// Route: POST /api/quotes/{rfq}/draft
func HandleSaveDraft(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rfq := e.Request.PathValue("rfq")
		req, err := decodeQuoteRequest(e.Request)
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, err.Error())
		}
		res, err := d.Workflow.SaveDraft(e.Request.Context(), rfq, services.DraftInput{Drawings: req.drawings, Date: req.date})
		if err != nil {
			var writes []services.WriteOutcome
			if res != nil {
				writes = res.Writes
			}
			return writeError(e, d, err, writes)
		}
		SetToast(e, "success", "Draft saved")
		return e.JSON(http.StatusOK, res)
	}
}
