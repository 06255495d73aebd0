package domain_test

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/sentinelworks/gatepass/internal/domain"
)

func TestNewPassID_Format(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^VPS-2026-\d{4}$`)

	for i := 0; i < 50; i++ {
		id := domain.NewPassID(now)
		if !pattern.MatchString(id) {
			t.Fatalf("pass id %q does not match VPS-YYYY-NNNN", id)
		}
	}
}

func TestNewStaffID_Format(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^STF2026\d{4}$`)

	for i := 0; i < 50; i++ {
		id := domain.NewStaffID(now)
		if !pattern.MatchString(id) {
			t.Fatalf("staff id %q does not match STF<year><nnnn>", id)
		}
	}
}

func TestVisitorExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		status  string
		expiry  time.Time
		expired bool
	}{
		{"active before expiry", domain.StatusActive, now.Add(time.Hour), false},
		{"active past expiry", domain.StatusActive, now.Add(-time.Minute), true},
		{"completed past expiry", domain.StatusCompleted, now.Add(-time.Minute), false},
		{"already expired", domain.StatusExpired, now.Add(-time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &domain.Visitor{Status: tt.status, ExpiryTime: tt.expiry}
			if got := v.Expired(now); got != tt.expired {
				t.Fatalf("Expired() = %v, want %v", got, tt.expired)
			}
		})
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, valid := range []string{"active", "completed", "expired"} {
		if !domain.IsValidStatus(valid) {
			t.Fatalf("%q should be valid", valid)
		}
	}
	for _, invalid := range []string{"", "Active", "banned", "pending"} {
		if domain.IsValidStatus(invalid) {
			t.Fatalf("%q should be invalid", invalid)
		}
	}
}

func TestCreateVisitorRequest_Validate(t *testing.T) {
	valid := domain.CreateVisitorRequest{
		Name:          "Alice Carter",
		Phone:         "+1 (555) 123-4567",
		Purpose:       "Vendor meeting",
		IDProofNumber: "DL-99812",
		PersonToMeet:  "Facilities Manager",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*domain.CreateVisitorRequest)
	}{
		{"empty name", func(r *domain.CreateVisitorRequest) { r.Name = "" }},
		{"empty phone", func(r *domain.CreateVisitorRequest) { r.Phone = "" }},
		{"short phone", func(r *domain.CreateVisitorRequest) { r.Phone = "12345" }},
		{"alphabetic phone", func(r *domain.CreateVisitorRequest) { r.Phone = "call-me-maybe" }},
		{"empty purpose", func(r *domain.CreateVisitorRequest) { r.Purpose = "" }},
		{"empty id proof", func(r *domain.CreateVisitorRequest) { r.IDProofNumber = "" }},
		{"empty host", func(r *domain.CreateVisitorRequest) { r.PersonToMeet = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			if err := req.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateVisitorRequest_NormalizeTrims(t *testing.T) {
	req := domain.CreateVisitorRequest{
		Name:          "  Alice Carter  ",
		Phone:         " +15551234567 ",
		Purpose:       " Vendor meeting ",
		IDProofNumber: " DL-99812 ",
		PersonToMeet:  " Facilities Manager ",
	}
	req.Normalize()

	if req.Name != "Alice Carter" || req.Phone != "+15551234567" {
		t.Fatalf("normalize did not trim: %+v", req)
	}
}

func TestCreateUserRequest_Validate(t *testing.T) {
	valid := domain.CreateUserRequest{
		Name:     "Gate Guard",
		Email:    "guard@example.com",
		Password: "hunter2-secure",
		Role:     domain.RoleSecurity,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*domain.CreateUserRequest)
	}{
		{"empty name", func(r *domain.CreateUserRequest) { r.Name = "" }},
		{"empty email", func(r *domain.CreateUserRequest) { r.Email = "" }},
		{"bad email", func(r *domain.CreateUserRequest) { r.Email = "not-an-email" }},
		{"short password", func(r *domain.CreateUserRequest) { r.Password = "12345" }},
		{"bad role", func(r *domain.CreateUserRequest) { r.Role = "superuser" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			if err := req.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateUserRequest_NormalizeDefaults(t *testing.T) {
	req := domain.CreateUserRequest{
		Name:     "Gate Guard",
		Email:    "  GUARD@Example.COM ",
		Password: "hunter2-secure",
	}
	req.Normalize()

	if req.Email != "guard@example.com" {
		t.Fatalf("email not lowercased: %q", req.Email)
	}
	if req.Role != domain.RoleSecurity {
		t.Fatalf("expected security default role, got %q", req.Role)
	}
}

func TestToUserInfo_OmitsSecretsBuildsPhotoURL(t *testing.T) {
	sess := "sess-1"
	u := &domain.User{
		ID:            3,
		Name:          "Gate Guard",
		Email:         "guard@example.com",
		PasswordHash:  "secret-hash",
		Role:          domain.RoleSecurity,
		Photo:         "uploads/abc.jpg",
		DemoSessionID: &sess,
	}

	info := u.ToUserInfo("http://localhost:5000/")
	if info.PhotoURL != "http://localhost:5000/uploads/abc.jpg" {
		t.Fatalf("unexpected photo url %q", info.PhotoURL)
	}

	// The info payload type carries neither the hash nor the session id.
	payload := fmt.Sprintf("%+v", *info)
	if regexp.MustCompile(`secret-hash|sess-1`).MatchString(payload) {
		t.Fatal("sensitive fields leaked into the public payload")
	}
}
