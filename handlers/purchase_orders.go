package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"salesquote/services"
)

// Route: GET /api/quotes/{rfq}/po
func HandleGetPO(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		po, err := d.POs.Get(e.Request.Context(), e.Request.PathValue("rfq"))
		if err != nil {
			return writeError(e, d, err, nil)
		}
		return e.JSON(http.StatusOK, po)
	}
}

// HandleSavePO records the customer's purchase order against a Won RFQ.
// Route: POST /api/quotes/{rfq}/po
func HandleSavePO(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body struct {
			Number         string `json:"number"`
			Date           string `json:"date"`
			RateByCustomer string `json:"rateByCustomer"`
		}
		if err := json.NewDecoder(e.Request.Body).Decode(&body); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid JSON body")
		}

		in := services.POInput{Number: body.Number, RateByCustomer: body.RateByCustomer}
		if s := strings.TrimSpace(body.Date); s != "" {
			t, err := cast.ToTimeE(s)
			if err != nil {
				return ErrorToast(e, http.StatusBadRequest, "Invalid PO date")
			}
			in.Date = t
		} else {
			in.Date = time.Now()
		}

		po, err := d.POs.Save(e.Request.Context(), e.Request.PathValue("rfq"), in)
		if err != nil {
			return writeError(e, d, err, nil)
		}
		SetToast(e, "success", "Purchase order "+po.Number+" saved")
		return e.JSON(http.StatusOK, po)
	}
}
