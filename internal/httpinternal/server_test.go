package httpinternal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
	"github.com/gary322/flashbets-ledger/internal/ledger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	safety := &domain.SafetyState{
		PauseLevel:     domain.PauseLevel(0),
		CoverageRatio:  fixedpoint.FromBps(12000),
		BootstrapVault: fixedpoint.FromInt64(50_000),
	}
	events := ledger.NewEventLog()
	events.Append(1, ledger.EventOrderAccepted, "order-1")

	s := &Server{router: mux.NewRouter(), safety: safety, events: events}
	s.setupRoutes()
	return s
}

func TestHandleHealthReturnsOK(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if ctype := rr.Header().Get("Content-Type"); ctype != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", ctype)
	}
}

func TestHandleSafetyReportsPauseLevel(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/safety", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := body["coverage_ratio"]; !ok {
		t.Fatalf("expected coverage_ratio field in response")
	}
}

func TestHandleEventsSinceRejectsNonNumericSeq(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/events/since/not-a-number", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestHandleEventsSinceReturnsAppendedEvent(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/events/since/0", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var body struct {
		Events []ledger.Event `json:"events"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(body.Events))
	}
}
