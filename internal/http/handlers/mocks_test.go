package handlers_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/sentinelworks/gatepass/internal/domain"
	mw "github.com/sentinelworks/gatepass/internal/http/middleware"
	"github.com/sentinelworks/gatepass/internal/repo/postgres"
	"github.com/sentinelworks/gatepass/internal/store"
	"github.com/sentinelworks/gatepass/internal/uploads"
	"github.com/sentinelworks/gatepass/pkg/config"
)

// ---------- Mocks ----------

type mockUserRepo struct {
	nextID     int64
	byEmail    map[string]*domain.User
	sessionIDs []string // every demo session id ever set
	resetHash  string
	resetSpent bool
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{nextID: 1, byEmail: make(map[string]*domain.User)}
}

func (m *mockUserRepo) seed(t *testing.T, u domain.User, password string) *domain.User {
	t.Helper()
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u.PasswordHash = hash
	u.ID = m.nextID
	m.nextID++
	m.byEmail[u.Email] = &u
	return &u
}

func (m *mockUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	cp := *u
	cp.ID = m.nextID
	m.nextID++
	m.byEmail[cp.Email] = &cp
	return &cp, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := m.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) SetDemoSessionID(_ context.Context, id int64, sessionID string) error {
	m.sessionIDs = append(m.sessionIDs, sessionID)
	for _, u := range m.byEmail {
		if u.ID == id {
			u.DemoSessionID = &sessionID
		}
	}
	return nil
}

func (m *mockUserRepo) SetResetToken(_ context.Context, _ int64, tokenHash string, _ time.Time) error {
	m.resetHash = tokenHash
	m.resetSpent = false
	return nil
}

func (m *mockUserRepo) ConsumeResetToken(_ context.Context, tokenHash, _ string) (bool, error) {
	if m.resetSpent || tokenHash != m.resetHash || m.resetHash == "" {
		return false, nil
	}
	m.resetSpent = true
	return true, nil
}

// Remaining interface methods are no-ops for these tests.
func (m *mockUserRepo) List(context.Context) ([]domain.User, error)         { return nil, nil }
func (m *mockUserRepo) Delete(context.Context, int64) error                 { return nil }
func (m *mockUserRepo) UpdatePassword(context.Context, int64, string) error { return nil }
func (m *mockUserRepo) UpdatePhoto(context.Context, int64, string) error    { return nil }
func (m *mockUserRepo) SetDemoFlag(context.Context, int64, bool) error      { return nil }
func (m *mockUserRepo) CountByRole(context.Context, string) (int64, error)  { return 0, nil }

type mockVisitorRepo struct {
	nextID int64
	byID   map[int64]*domain.Visitor
}

func newMockVisitorRepo() *mockVisitorRepo {
	return &mockVisitorRepo{nextID: 1, byID: make(map[int64]*domain.Visitor)}
}

func (m *mockVisitorRepo) seed(v domain.Visitor) *domain.Visitor {
	v.ID = m.nextID
	m.nextID++
	m.byID[v.ID] = &v
	return &v
}

func (m *mockVisitorRepo) Create(_ context.Context, v *domain.Visitor) (*domain.Visitor, error) {
	cp := *v
	cp.ID = m.nextID
	m.nextID++
	cp.CreatedAt = time.Now()
	m.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockVisitorRepo) FindByID(_ context.Context, id int64) (*domain.Visitor, error) {
	if v, ok := m.byID[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

func (m *mockVisitorRepo) FindByPassID(_ context.Context, passID string) (*domain.Visitor, error) {
	for _, v := range m.byID {
		if v.PassID == passID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockVisitorRepo) MarkExit(_ context.Context, id int64, exitTime time.Time) (*domain.Visitor, error) {
	v, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	v.Status = domain.StatusCompleted
	v.ExitTime = &exitTime
	cp := *v
	return &cp, nil
}

func (m *mockVisitorRepo) UpdateStatus(_ context.Context, id int64, status string) error {
	if v, ok := m.byID[id]; ok {
		v.Status = status
	}
	return nil
}

func (m *mockVisitorRepo) CountBySession(_ context.Context, _ int64, sessionID string) (int64, error) {
	var n int64
	for _, v := range m.byID {
		if v.DemoSessionID != nil && *v.DemoSessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (m *mockVisitorRepo) List(context.Context, postgres.VisitorFilter) ([]domain.Visitor, error) {
	out := make([]domain.Visitor, 0, len(m.byID))
	for _, v := range m.byID {
		out = append(out, *v)
	}
	return out, nil
}

func (m *mockVisitorRepo) Count(context.Context, postgres.VisitorFilter) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *mockVisitorRepo) ListToday(context.Context) ([]domain.Visitor, error) { return nil, nil }
func (m *mockVisitorRepo) CountCreatedSince(context.Context, time.Time) (int64, error) {
	return 0, nil
}
func (m *mockVisitorRepo) CountByStatus(context.Context, string) (int64, error) { return 0, nil }

type mockAuditRepo struct {
	entries []domain.AuditLog
}

func (m *mockAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditRepo) List(context.Context, domain.AuditLogFilter) ([]domain.AuditLog, error) {
	return m.entries, nil
}

func (m *mockAuditRepo) Count(context.Context, domain.AuditLogFilter) (int64, error) {
	return int64(len(m.entries)), nil
}

type mockMailer struct {
	lastTo   string
	lastLink string
	sends    int
}

func (m *mockMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	m.lastTo = toEmail
	m.sends++
	return "mock-id", nil
}

func (m *mockMailer) SendPasswordReset(toEmail, toName, resetURL string) error {
	m.lastTo = toEmail
	m.lastLink = resetURL
	m.sends++
	return nil
}

type fakeSource struct {
	prod *store.Repos
	demo *store.Repos
}

func (f *fakeSource) Production() (*store.Repos, error) { return f.prod, nil }
func (f *fakeSource) Demo() (*store.Repos, error)       { return f.demo, nil }

// ---------- Helpers ----------

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "5000", BaseURL: "http://localhost:5000"},
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret",
			AccessTokenTTL: time.Hour,
			ResetTokenTTL:  time.Hour,
		},
		Passes: config.PassesConfig{TTL: 24 * time.Hour},
		Demo:   config.DemoConfig{SessionPassQuota: 2},
	}
}

func testUploads(t *testing.T) *uploads.Store {
	t.Helper()
	s, err := uploads.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("uploads store: %v", err)
	}
	return s
}

// asUser injects an authenticated caller the way the auth middleware
// would, without minting a token.
func asUser(u *domain.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(mw.WithUser(r.Context(), u)))
		})
	}
}

func bytesReader(b []byte) io.Reader {
	if b == nil {
		return nil
	}
	return bytes.NewReader(b)
}

func extractResetToken(link string) string {
	idx := strings.LastIndex(link, "/")
	if idx == -1 {
		return ""
	}
	return link[idx+1:]
}
