package test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"certo/internal/certification/handler"
	"certo/internal/certification/service"
	"certo/internal/certification/store"
	"certo/internal/docstore"
	httpapi "certo/internal/http"
	"certo/pkg/testutil"
)

func newRouter(checks map[string]httpapi.HealthChecker) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(service.NewMemoryTx(store.NewInMemoryStore()), service.WithLogger(logger))
	return httpapi.NewRouter(handler.New(svc, docstore.NewInMemoryStore(), logger), checks)
}

type failingCheck struct{}

func (failingCheck) Health(context.Context) error { return errors.New("connection refused") }

func TestOperationalEndpoints(t *testing.T) {
	testutil.Given(t, "the assembled router", func(t *testing.T) {
		router := newRouter(nil)

		testutil.When(t, "probing liveness", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			testutil.Then(t, "it reports ok", func(t *testing.T) {
				testutil.AssertStatusOK(t, rec)
			})
		})

		testutil.When(t, "scraping metrics", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			testutil.Then(t, "the exposition endpoint responds", func(t *testing.T) {
				testutil.AssertStatusOK(t, rec)
			})
		})

		testutil.When(t, "requesting an unknown route", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

			testutil.Then(t, "it responds not found", func(t *testing.T) {
				testutil.AssertStatus(t, rec, http.StatusNotFound)
			})
		})
	})
}

func TestReadiness(t *testing.T) {
	testutil.Given(t, "a router with a failing dependency", func(t *testing.T) {
		router := newRouter(map[string]httpapi.HealthChecker{
			"redis": failingCheck{},
			"skip":  nil,
		})

		testutil.When(t, "probing readiness", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			testutil.Then(t, "it reports unavailable", func(t *testing.T) {
				testutil.AssertStatus(t, rec, http.StatusServiceUnavailable)
			})
		})
	})
}
