package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/team-pogie-react/page-service/internal/aggregate"
	"github.com/team-pogie-react/page-service/internal/apierr"
	"github.com/team-pogie-react/page-service/internal/core"
	"github.com/team-pogie-react/page-service/internal/reqctx"
)

// MockEngine implements PageEngine for testing
type MockEngine struct {
	HandleFunc func(ctx context.Context, name string, req core.Request) (core.PageResponse, error)
	ReadyFunc  func(ctx context.Context) error

	LastName    string
	LastRequest core.Request
}

func (m *MockEngine) Handle(ctx context.Context, name string, req core.Request) (core.PageResponse, error) {
	m.LastName, m.LastRequest = name, req
	if m.HandleFunc != nil {
		return m.HandleFunc(ctx, name, req)
	}
	return core.PageResponse{core.FieldPageType: name + "_page"}, nil
}

func (m *MockEngine) Ready(ctx context.Context) error {
	if m.ReadyFunc != nil {
		return m.ReadyFunc(ctx)
	}
	return nil
}

type testServer struct {
	mock   *MockEngine
	server *Server
	logs   *observer.ObservedLogs
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	mock := &MockEngine{}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("page_service_page_requests_total 1\n"))
	})
	return &testServer{
		mock:   mock,
		server: NewServer(mock, Options{Logger: zap.New(core), Metrics: metrics, MaxBodyBytes: 256}),
		logs:   logs,
	}
}

func (ts *testServer) do(t *testing.T, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// =============================================================================
// Test: Page routes
// =============================================================================

func TestHandlePage(t *testing.T) {
	t.Run("Given a GET with query When handled Then the query reaches the engine and data is enveloped", func(t *testing.T) {
		ts := newTestServer()

		rec := ts.do(t, http.MethodGet, "/api/pages/cart?domain=carparts.com&orderId=12345", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "cart", ts.mock.LastName)
		assert.Equal(t, "carparts.com", ts.mock.LastRequest.Source.Query.Get("domain"))
		assert.Nil(t, ts.mock.LastRequest.Source.Body)
		assert.Equal(t, map[string]any{"data": map[string]any{"pageType": "cart_page"}}, decode(t, rec))
	})

	t.Run("Given a POST with a JSON body When handled Then the body reaches the engine", func(t *testing.T) {
		ts := newTestServer()

		rec := ts.do(t, http.MethodPost, "/api/pages/checkout", `{"domain":"carparts.com","orderId":12345}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "carparts.com", ts.mock.LastRequest.Source.Body["domain"])
		assert.Equal(t, json.Number("12345"), ts.mock.LastRequest.Source.Body["orderId"])
	})

	t.Run("Given a large numeric orderId When handled Then it reaches the request context exactly", func(t *testing.T) {
		ts := newTestServer()

		rec := ts.do(t, http.MethodPost, "/api/pages/cart", `{"domain":"carparts.com","orderId":12345678901234567891}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		rc := reqctx.Extract(ts.mock.LastRequest.Source, nil)
		assert.Equal(t, "12345678901234567891", rc.OrderID)
	})

	t.Run("Given an attribute route When handled Then the value becomes the page attribute", func(t *testing.T) {
		ts := newTestServer()

		rec := ts.do(t, http.MethodGet, "/api/pages/product/BP-1?domain=carparts.com", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "product", ts.mock.LastName)
		assert.Equal(t, core.Attributes{core.AttrSKU: "BP-1"}, ts.mock.LastRequest.Attributes)
	})

	t.Run("Given an attribute on a page without one When handled Then it is a 404", func(t *testing.T) {
		ts := newTestServer()

		rec := ts.do(t, http.MethodGet, "/api/pages/cart/123", "", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, ts.mock.LastName)
	})

	t.Run("Given a validation error When handled Then the error body and status match", func(t *testing.T) {
		ts := newTestServer()
		ts.mock.HandleFunc = func(ctx context.Context, name string, req core.Request) (core.PageResponse, error) {
			return nil, apierr.BadRequest(apierr.CodeInvalidDomain, "domain is required")
		}

		rec := ts.do(t, http.MethodGet, "/api/pages/cart", "", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, map[string]any{
			"message": "domain is required",
			"status":  float64(400),
			"code":    "INVALID_DOMAIN",
		}, decode(t, rec))
	})

	t.Run("Given a critical failure When handled Then the upstream status is returned", func(t *testing.T) {
		ts := newTestServer()
		ts.mock.HandleFunc = func(ctx context.Context, name string, req core.Request) (core.PageResponse, error) {
			return nil, &aggregate.CriticalError{Label: "product", Err: apierr.NotFound("sku not found")}
		}

		rec := ts.do(t, http.MethodGet, "/api/pages/product/BP-9", "", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decode(t, rec)["code"])
	})

	t.Run("Given an error with an unwritable status When handled Then a 500 status line is sent", func(t *testing.T) {
		ts := newTestServer()
		ts.mock.HandleFunc = func(ctx context.Context, name string, req core.Request) (core.PageResponse, error) {
			return nil, &aggregate.CriticalError{Label: "product", Err: apierr.New(42, "GONE", "sku retired")}
		}

		rec := ts.do(t, http.MethodGet, "/api/pages/product/BP-1", "", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, map[string]any{
			"message": "sku retired",
			"status":  float64(500),
			"code":    "GONE",
		}, decode(t, rec))
	})

	t.Run("Given an inline error When handled Then it serializes nested under error", func(t *testing.T) {
		ts := newTestServer()
		ts.mock.HandleFunc = func(ctx context.Context, name string, req core.Request) (core.PageResponse, error) {
			return core.PageResponse{
				core.FieldPageType: core.PageTypeCart,
				core.FieldMeta:     &aggregate.InlineError{Error: apierr.NotFound("no metadata")},
			}, nil
		}

		rec := ts.do(t, http.MethodGet, "/api/pages/cart", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		data := decode(t, rec)["data"].(map[string]any)
		assert.Equal(t, map[string]any{"error": map[string]any{
			"message": "no metadata", "status": float64(404), "code": "NOT_FOUND",
		}}, data["meta"])
	})

	t.Run("Given malformed JSON When handled Then it is a 400 without calling the engine", func(t *testing.T) {
		ts := newTestServer()

		rec := ts.do(t, http.MethodPost, "/api/pages/cart", `{"domain":`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, ts.mock.LastName)
	})

	t.Run("Given an oversized body When handled Then it is a 413", func(t *testing.T) {
		ts := newTestServer()
		body := `{"domain":"` + strings.Repeat("x", 512) + `"}`

		rec := ts.do(t, http.MethodPost, "/api/pages/cart", body, nil)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("Given a POST with an empty body When handled Then the body is nil", func(t *testing.T) {
		ts := newTestServer()
		req := httptest.NewRequest(http.MethodPost, "/api/pages/home?domain=carparts.com", bytes.NewReader(nil))
		rec := httptest.NewRecorder()

		ts.server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, ts.mock.LastRequest.Source.Body)
	})

	t.Run("Given a panicking engine When handled Then a 500 error body is returned", func(t *testing.T) {
		ts := newTestServer()
		ts.mock.HandleFunc = func(ctx context.Context, name string, req core.Request) (core.PageResponse, error) {
			panic("boom")
		}

		rec := ts.do(t, http.MethodGet, "/api/pages/cart", "", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, float64(500), decode(t, rec)["status"])
	})
}

// =============================================================================
// Test: Middleware
// =============================================================================

func TestRequestID(t *testing.T) {
	t.Run("Given no request ID When served Then one is generated", func(t *testing.T) {
		ts := newTestServer()

		rec := ts.do(t, http.MethodGet, "/healthz", "", nil)

		assert.Len(t, rec.Header().Get(headerRequestID), 36)
	})

	t.Run("Given a request ID When served Then it is echoed and logged", func(t *testing.T) {
		ts := newTestServer()

		rec := ts.do(t, http.MethodGet, "/healthz", "", map[string]string{headerRequestID: "abc-123"})

		assert.Equal(t, "abc-123", rec.Header().Get(headerRequestID))
		entries := ts.logs.FilterField(zap.String("request_id", "abc-123")).All()
		require.Len(t, entries, 1)
		assert.Equal(t, "Request served", entries[0].Message)
	})

	t.Run("Given an error response When served Then the request ID header is still set", func(t *testing.T) {
		ts := newTestServer()

		rec := ts.do(t, http.MethodGet, "/nowhere", "", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(headerRequestID))
		assert.Equal(t, 1, ts.logs.FilterMessage("Request rejected").Len())
	})
}

// =============================================================================
// Test: Health, readiness and metrics
// =============================================================================

func TestProbes(t *testing.T) {
	t.Run("Given a ready engine When /readyz served Then it is 200", func(t *testing.T) {
		ts := newTestServer()
		rec := ts.do(t, http.MethodGet, "/readyz", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Given an unready engine When /readyz served Then it is 503", func(t *testing.T) {
		ts := newTestServer()
		ts.mock.ReadyFunc = func(ctx context.Context) error { return errors.New("catalog down") }

		rec := ts.do(t, http.MethodGet, "/readyz", "", nil)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, codeNotReady, decode(t, rec)["code"])
	})

	t.Run("Given a metrics handler When /metrics served Then it is delegated", func(t *testing.T) {
		ts := newTestServer()
		rec := ts.do(t, http.MethodGet, "/metrics", "", nil)
		assert.Contains(t, rec.Body.String(), "page_service_page_requests_total")
	})
}
