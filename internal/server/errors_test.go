package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teamgate/teamgate/pkg/apperr"
	"github.com/teamgate/teamgate/pkg/requestmeta"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestMeta())
	r.Use(ErrorHandlingMiddleware())
	return r
}

func TestErrorMiddlewareMapsTaxonomy(t *testing.T) {
	cases := []struct {
		kind       error
		wantStatus int
		wantType   string
	}{
		{apperr.ErrForbidden, http.StatusForbidden, "forbidden"},
		{apperr.ErrNotFound, http.StatusNotFound, "not_found"},
		{apperr.ErrConflict, http.StatusConflict, "conflict"},
		{apperr.ErrInvalid, http.StatusBadRequest, "invalid_request"},
		{apperr.ErrUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
	}

	for _, tc := range cases {
		r := newTestRouter()
		r.GET("/boom", func(c *gin.Context) {
			AbortWithError(c, apperr.E(tc.kind, "server.test", errors.New("secret storage detail")))
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

		if w.Code != tc.wantStatus {
			t.Fatalf("kind %v: expected status %d, got %d", tc.kind, tc.wantStatus, w.Code)
		}

		var body errorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("kind %v: invalid body: %v", tc.kind, err)
		}
		if body.Error.Type != tc.wantType {
			t.Fatalf("kind %v: expected type %q, got %q", tc.kind, tc.wantType, body.Error.Type)
		}
		if body.Error.Message == "secret storage detail" {
			t.Fatal("underlying error text must not leak to clients")
		}
	}
}

func TestErrorMiddlewareDefaultsToInternal(t *testing.T) {
	r := newTestRouter()
	r.GET("/boom", func(c *gin.Context) {
		AbortWithError(c, errors.New("unclassified"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unclassified errors, got %d", w.Code)
	}
}

func TestRequestMetaPropagatesRequestID(t *testing.T) {
	r := newTestRouter()
	r.GET("/meta", func(c *gin.Context) {
		c.String(http.StatusOK, requestmeta.RequestIDFromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/meta", nil)
	req.Header.Set(HeaderRequestID, "req-abc")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != "req-abc" {
		t.Fatalf("expected propagated request id, got %q", w.Body.String())
	}
	if w.Header().Get(HeaderRequestID) != "req-abc" {
		t.Fatalf("expected request id echoed in response, got %q", w.Header().Get(HeaderRequestID))
	}

	// Without the header a fresh id is generated.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/meta", nil))
	if w.Body.String() == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestRequestLoggerEmitsOneLinePerRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(RequestMeta())
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != http.MethodGet || fields["path"] != "/ping" {
		t.Fatalf("unexpected request fields: %v", fields)
	}
	if fields["status"] != int64(http.StatusNoContent) {
		t.Fatalf("expected status %d, got %v", http.StatusNoContent, fields["status"])
	}
	if fields["request_id"] != "req-42" {
		t.Fatalf("expected propagated request id, got %v", fields["request_id"])
	}
}
