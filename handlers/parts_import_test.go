package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"salesquote/services"
	"salesquote/testhelpers"
)

func multipartUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(content))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/quotes/R1/import", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.SetPathValue("rfq", "R1")
	return req
}

func TestHandlePartsImport(t *testing.T) {
	app, d := newTestDeps(t)
	csv := "Drawing No,Part Name,Weight,Rate\nDRG-1,A,10,10\nDRG-1,B,x,2\n"

	rec := httptest.NewRecorder()
	if err := HandlePartsImport(d)(newTestRequestEvent(app, multipartUpload(t, "parts.csv", csv), rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res services.PartsImport
	testhelpers.DecodeJSON(t, rec.Body.String(), &res)
	if res.ValidRows != 1 || res.ErrorRows != 1 || len(res.Drawings) != 1 {
		t.Errorf("result = %+v", res)
	}
	testhelpers.AssertBodyContains(t, rec.Header().Get("HX-Trigger"), `"warning"`)
}

func TestHandlePartsImport_BadFile(t *testing.T) {
	app, d := newTestDeps(t)

	rec := httptest.NewRecorder()
	if err := HandlePartsImport(d)(newTestRequestEvent(app, multipartUpload(t, "parts.txt", "x"), rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("plain"))
	rec = httptest.NewRecorder()
	if err := HandlePartsImport(d)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("no multipart: expected 400, got %d", rec.Code)
	}
}

func TestHandlePartsTemplateAndErrorReport(t *testing.T) {
	app, d := newTestDeps(t)

	rec := serve(t, app, HandlePartsTemplate(d), http.MethodGet, "/api/quotes/parts-template", "", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != xlsxContentType {
		t.Errorf("template: %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = serve(t, app, HandleImportErrorReport(d), http.MethodPost, "/api/quotes/import-errors",
		`[{"row":3,"field":"Rate","message":"Rate must be a number"}]`, nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "PK") {
		t.Errorf("error report: %d", rec.Code)
	}
}
