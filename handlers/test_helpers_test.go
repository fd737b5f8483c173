package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog"

	"salesquote/services"
	"salesquote/store"
	"salesquote/testhelpers"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

// newTestDeps wires the quotation services against a temp-dir app.
func newTestDeps(t *testing.T) (*pocketbase.PocketBase, *Deps) {
	t.Helper()
	app := testhelpers.NewTestApp(t)

	st := store.NewPocketBase(app)
	logger := zerolog.Nop()
	resolver := services.NewResolver(st, logger)
	lookups := services.NewLookups(st, 16, time.Minute)

	return app, &Deps{
		Workflow: services.NewWorkflow(st, resolver, logger),
		Resolver: resolver,
		Loader:   services.NewLoader(st, resolver, lookups, logger),
		POs:      services.NewPurchaseOrders(st, resolver),
		Letterhead: services.Letterhead{
			CompanyName: "SKG Engineering",
			RefPrefix:   "SKG",
			Signatory:   "Authorised Signatory",
		},
		Logger: logger,
	}
}

// serve runs handler for a request with the given path values.
func serve(t *testing.T, app *pocketbase.PocketBase, handler func(*core.RequestEvent) error, method, target, body string, pathValues map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

// seedTodoRFQ creates a Todo RFQ with one drawing of two parts.
func seedTodoRFQ(t *testing.T, app *pocketbase.PocketBase, rfq string) {
	t.Helper()
	testhelpers.CreateTestCustomer(t, app, "Acme")
	testhelpers.CreateTestRFQ(t, app, rfq, "Acme", "Todo")
	testhelpers.CreateTestDrawing(t, app, rfq, "DRG-1", "2")
	testhelpers.CreateTestPart(t, app, rfq, "DRG-1", testhelpers.TestPart{Name: "A", Weight: "10", Overhead: "0", Rate: "10"})
	testhelpers.CreateTestPart(t, app, rfq, "DRG-1", testhelpers.TestPart{Name: "B", Weight: "20", Overhead: "5", Rate: "2"})
}

const drawingsBody = `{"date":"2025-05-06","drawings":[{"number":"DRG-1","quantity":"2","parts":[` +
	`{"name":"A","weight":"10","overhead":"0","rate":"10"},` +
	`{"name":"B","weight":"20","overhead":"5","rate":"2"}]}]}`
