package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"salesquote/services"
)

func sanitizeFilename(s string) string {
	return strings.NewReplacer(" ", "-", "/", "-", "\\", "-", ":", "-").Replace(s)
}

type exportFormat struct {
	contentType string
	ext         string
	prefix      string
	generate    func(services.QuoteExportData) ([]byte, error)
}

var exportFormats = map[string]exportFormat{
	"pdf": {
		contentType: "application/pdf",
		ext:         "pdf",
		prefix:      "Quotation",
		generate:    services.GenerateQuotePDF,
	},
	"cover-letter": {
		contentType: "application/pdf",
		ext:         "pdf",
		prefix:      "CoverLetter",
		generate:    services.GenerateCoverLetterPDF,
	},
	"excel": {
		contentType: xlsxContentType,
		ext:         "xlsx",
		prefix:      "Quotation",
		generate:    services.GenerateQuoteExcel,
	},
}

// HandleExport renders the current quotation of an RFQ as a download.
// Route: GET /api/quotes/{rfq}/export/{format}
func HandleExport(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		format, ok := exportFormats[e.Request.PathValue("format")]
		if !ok {
			return ErrorToast(e, http.StatusBadRequest, "Unknown export format")
		}

		q, err := d.Loader.Load(e.Request.Context(), e.Request.PathValue("rfq"), "")
		if err != nil {
			return writeError(e, d, err, nil)
		}
		data := services.BuildQuoteExport(q, d.Letterhead, time.Now())

		out, err := format.generate(data)
		if err != nil {
			requestLogger(e, d.Logger).Error().Err(err).Str("rfq", q.RFQ.Number).Msg("export failed")
			return ErrorToast(e, http.StatusInternalServerError, "Failed to generate export")
		}

		filename := fmt.Sprintf("%s_%s.%s", format.prefix, sanitizeFilename(data.Ref), format.ext)
		e.Response.Header().Set("Content-Type", format.contentType)
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		_, err = e.Response.Write(out)
		return err
	}
}
