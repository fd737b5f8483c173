package handlers

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
)

// SetToast sets the HX-Trigger response header so the client shows a toast.
// An existing HX-Trigger JSON object is merged rather than replaced.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	toast := map[string]string{"message": message, "type": toastType}

	trigger := map[string]any{}
	if existing := e.Response.Header().Get("HX-Trigger"); existing != "" {
		if err := json.Unmarshal([]byte(existing), &trigger); err != nil {
			trigger = map[string]any{}
		}
	}
	trigger["showToast"] = toast

	data, err := json.Marshal(trigger)
	if err != nil {
		return
	}
	e.Response.Header().Set("HX-Trigger", string(data))
}

// ErrorToast sets an error toast and writes {"error": message} with the
// given status. HX-Reswap: none keeps HTMX from swapping the body in.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	SetToast(e, "error", message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.JSON(statusCode, map[string]string{"error": message})
}
