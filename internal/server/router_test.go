package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type echoHandler struct{}

func (echoHandler) Routes() []string { return []string{"GET /echo/{word}"} }

func (echoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(r.PathValue("word")))
}

func tag(name string, order *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*order = append(*order, name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestBasicRouter(t *testing.T) {
	t.Run("Handler Registers Routes", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handler(echoHandler{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/echo/hello", nil))

		if rec.Code != http.StatusOK || rec.Body.String() != "hello" {
			t.Errorf("expected 200 hello, got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("Handle Uppercases Method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("get", "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("pong"))
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if rec.Body.String() != "pong" {
			t.Errorf("expected pong, got %q", rec.Body.String())
		}
	})

	t.Run("Unknown Route", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handler(echoHandler{})

		for _, path := range []string{"/nope", "/api/tracks/x/stream/extra"} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			if rec.Code != http.StatusNotFound {
				t.Fatalf("%s: expected 404, got %d", path, rec.Code)
			}
			if body := decodeEnvelope(t, rec); body.Success || body.Message != "Route not found" {
				t.Errorf("%s: unexpected body %+v", path, body)
			}
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		router := NewBasicRouter()
		router.Use(tag("first", &order), tag("second", &order))
		router.Handler(echoHandler{})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/echo/x", nil))

		if got := strings.Join(order, ","); got != "first,second" {
			t.Errorf("expected first,second, got %s", got)
		}
	})

	t.Run("Unknown Route Runs Middleware", func(t *testing.T) {
		var order []string
		router := NewBasicRouter()
		router.Handler(echoHandler{})
		router.Use(tag("logger", &order))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if got := strings.Join(order, ","); got != "logger" {
			t.Errorf("expected fallback wrapped by logger, got %q", got)
		}
	})

	t.Run("Middleware Only Wraps Later Routes", func(t *testing.T) {
		var order []string
		router := NewBasicRouter()
		router.Handler(echoHandler{})
		router.Use(tag("late", &order))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/echo/x", nil))

		if len(order) != 0 {
			t.Errorf("expected no middleware on earlier route, got %v", order)
		}
	})
}
