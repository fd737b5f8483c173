package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"salesquote/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Route: GET /api/quotes/parts-template
func HandlePartsTemplate(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		out, err := services.GeneratePartsTemplate()
		if err != nil {
			requestLogger(e, d.Logger).Error().Err(err).Msg("parts template failed")
			return ErrorToast(e, http.StatusInternalServerError, "Failed to generate template")
		}
		e.Response.Header().Set("Content-Type", xlsxContentType)
		e.Response.Header().Set("Content-Disposition", `attachment; filename="Parts_Template.xlsx"`)
		_, err = e.Response.Write(out)
		return err
	}
}

// HandlePartsImport parses an uploaded CSV or XLSX parts sheet and returns
// the drawings it contains together with any row errors. Nothing is saved;
// the client posts the drawings to the draft or submit routes.
// Route: POST /api/quotes/{rfq}/import
func HandlePartsImport(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseMultipartForm(10 << 20); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "File too large or invalid form data")
		}
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		res, err := services.ParsePartsFile(file, header.Filename)
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, err.Error())
		}
		if res.ErrorRows > 0 {
			SetToast(e, "warning", "Some rows could not be imported")
		}
		return e.JSON(http.StatusOK, res)
	}
}

// HandleImportErrorReport turns the row errors of an import into an XLSX.
// Route: POST /api/quotes/import-errors
func HandleImportErrorReport(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var errs []services.ImportRowError
		if err := json.NewDecoder(e.Request.Body).Decode(&errs); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid error data")
		}
		out, err := services.GenerateImportErrorReport(errs)
		if err != nil {
			requestLogger(e, d.Logger).Error().Err(err).Msg("error report failed")
			return ErrorToast(e, http.StatusInternalServerError, "Failed to generate error report")
		}
		e.Response.Header().Set("Content-Type", xlsxContentType)
		e.Response.Header().Set("Content-Disposition", `attachment; filename="Import_Errors.xlsx"`)
		_, err = e.Response.Write(out)
		return err
	}
}
