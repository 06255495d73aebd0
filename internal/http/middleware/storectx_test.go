package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	mw "github.com/sentinelworks/gatepass/internal/http/middleware"
	"github.com/sentinelworks/gatepass/internal/store"
)

func TestStoreContext_DemoUserGetsDemoRepos(t *testing.T) {
	prodRepos := &store.Repos{Visitors: newMockVisitorRepo()}
	demoRepos := &store.Repos{Visitors: newMockVisitorRepo()}
	source := &fakeSource{prod: prodRepos, demo: demoRepos}

	var bound *store.Repos
	var demoMode bool
	handler := mw.StoreContext(source)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bound = mw.Repos(r)
		demoMode = mw.IsDemoMode(r)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs(t, http.MethodGet, "/api/visitors", demoUser("sess-1")))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if bound != demoRepos {
		t.Fatal("demo caller was not bound to the demo repositories")
	}
	if !demoMode {
		t.Fatal("expected demo mode flag on request")
	}
}

func TestStoreContext_RegularUserGetsProductionRepos(t *testing.T) {
	prodRepos := &store.Repos{Visitors: newMockVisitorRepo()}
	demoRepos := &store.Repos{Visitors: newMockVisitorRepo()}
	source := &fakeSource{prod: prodRepos, demo: demoRepos}

	var bound *store.Repos
	handler := mw.StoreContext(source)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bound = mw.Repos(r)
		if mw.IsDemoMode(r) {
			t.Error("regular caller should not be in demo mode")
		}
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs(t, http.MethodGet, "/api/visitors", regularUser()))

	if bound != prodRepos {
		t.Fatal("regular caller was not bound to the production repositories")
	}
}

func TestStoreContext_UnauthenticatedDefaultsToProduction(t *testing.T) {
	prodRepos := &store.Repos{Visitors: newMockVisitorRepo()}
	source := &fakeSource{prod: prodRepos, demoErr: errStoreDown}

	var bound *store.Repos
	handler := mw.StoreContext(source)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bound = mw.Repos(r)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs(t, http.MethodGet, "/api/passes/VPS-2026-1234", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if bound != prodRepos {
		t.Fatal("public request was not bound to the production repositories")
	}
}

func TestStoreContext_DemoStoreDownNeverFallsBackToProduction(t *testing.T) {
	prodRepos := &store.Repos{Visitors: newMockVisitorRepo()}
	source := &fakeSource{prod: prodRepos, demoErr: errStoreDown}

	called := false
	handler := mw.StoreContext(source)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs(t, http.MethodGet, "/api/visitors", demoUser("sess-1")))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when demo store is down, got %d", w.Code)
	}
	if called {
		t.Fatal("handler must not run when the demo store is unavailable")
	}
}

func TestStoreContext_ProductionStoreDownFails(t *testing.T) {
	source := &fakeSource{prodErr: errStoreDown}

	handler := mw.StoreContext(source)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without repositories")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs(t, http.MethodGet, "/api/visitors", regularUser()))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
