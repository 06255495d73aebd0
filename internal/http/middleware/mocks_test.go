package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sentinelworks/gatepass/internal/domain"
	mw "github.com/sentinelworks/gatepass/internal/http/middleware"
	"github.com/sentinelworks/gatepass/internal/repo/postgres"
	"github.com/sentinelworks/gatepass/internal/store"
)

// ---------- Mocks ----------

type fakeSource struct {
	prod    *store.Repos
	demo    *store.Repos
	prodErr error
	demoErr error
}

func (f *fakeSource) Production() (*store.Repos, error) { return f.prod, f.prodErr }
func (f *fakeSource) Demo() (*store.Repos, error)       { return f.demo, f.demoErr }

type mockVisitorRepo struct {
	sessionCounts map[string]int64 // demo_session_id -> passes created
	countErr      error
	created       []*domain.Visitor
}

func newMockVisitorRepo() *mockVisitorRepo {
	return &mockVisitorRepo{sessionCounts: make(map[string]int64)}
}

func (m *mockVisitorRepo) Create(_ context.Context, v *domain.Visitor) (*domain.Visitor, error) {
	m.created = append(m.created, v)
	if v.DemoSessionID != nil {
		m.sessionCounts[*v.DemoSessionID]++
	}
	return v, nil
}

func (m *mockVisitorRepo) CountBySession(_ context.Context, _ int64, sessionID string) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.sessionCounts[sessionID], nil
}

// Remaining interface methods are no-ops for these tests.
func (m *mockVisitorRepo) FindByID(context.Context, int64) (*domain.Visitor, error) {
	return nil, nil
}
func (m *mockVisitorRepo) FindByPassID(context.Context, string) (*domain.Visitor, error) {
	return nil, nil
}
func (m *mockVisitorRepo) List(context.Context, postgres.VisitorFilter) ([]domain.Visitor, error) {
	return nil, nil
}
func (m *mockVisitorRepo) Count(context.Context, postgres.VisitorFilter) (int64, error) {
	return 0, nil
}
func (m *mockVisitorRepo) ListToday(context.Context) ([]domain.Visitor, error) { return nil, nil }
func (m *mockVisitorRepo) MarkExit(context.Context, int64, time.Time) (*domain.Visitor, error) {
	return nil, nil
}
func (m *mockVisitorRepo) UpdateStatus(context.Context, int64, string) error { return nil }
func (m *mockVisitorRepo) CountCreatedSince(context.Context, time.Time) (int64, error) {
	return 0, nil
}
func (m *mockVisitorRepo) CountByStatus(context.Context, string) (int64, error) { return 0, nil }

type mockUserRepo struct {
	byID map[int64]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byID: make(map[int64]*domain.User)}
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

// Remaining interface methods are no-ops for these tests.
func (m *mockUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	return u, nil
}
func (m *mockUserRepo) FindByEmail(context.Context, string) (*domain.User, error) {
	return nil, nil
}
func (m *mockUserRepo) List(context.Context) ([]domain.User, error)           { return nil, nil }
func (m *mockUserRepo) Delete(context.Context, int64) error                   { return nil }
func (m *mockUserRepo) UpdatePassword(context.Context, int64, string) error   { return nil }
func (m *mockUserRepo) UpdatePhoto(context.Context, int64, string) error      { return nil }
func (m *mockUserRepo) SetDemoFlag(context.Context, int64, bool) error        { return nil }
func (m *mockUserRepo) SetDemoSessionID(context.Context, int64, string) error { return nil }
func (m *mockUserRepo) SetResetToken(context.Context, int64, string, time.Time) error {
	return nil
}
func (m *mockUserRepo) ConsumeResetToken(context.Context, string, string) (bool, error) {
	return false, nil
}
func (m *mockUserRepo) CountByRole(context.Context, string) (int64, error) { return 0, nil }

var errStoreDown = errors.New("connection refused")

// ---------- Helpers ----------

func demoUser(sessionID string) *domain.User {
	u := &domain.User{
		ID:       1,
		Name:     "Demo Admin",
		Email:    "demo_admin@demo.com",
		Role:     domain.RoleAdmin,
		IsActive: true,
		IsDemo:   true,
	}
	if sessionID != "" {
		u.DemoSessionID = &sessionID
	}
	return u
}

func regularUser() *domain.User {
	return &domain.User{
		ID:       2,
		Name:     "Gate Guard",
		Email:    "guard@example.com",
		Role:     domain.RoleSecurity,
		IsActive: true,
	}
}

func requestAs(t *testing.T, method, path string, u *domain.User) *http.Request {
	t.Helper()
	r := httptest.NewRequest(method, path, nil)
	if u != nil {
		r = r.WithContext(mw.WithUser(r.Context(), u))
	}
	return r
}
