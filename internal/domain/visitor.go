package domain

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

type Visitor struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Phone         string     `json:"phone"`
	Purpose       string     `json:"purpose"`
	IDProofNumber string     `json:"id_proof_number"`
	PersonToMeet  string     `json:"person_to_meet"`
	Photo         string     `json:"photo"`
	PassID        string     `json:"pass_id"`
	Status        string     `json:"status"`
	EntryTime     time.Time  `json:"entry_time"`
	ExitTime      *time.Time `json:"exit_time,omitempty"`
	ExpiryTime    time.Time  `json:"expiry_time"`
	CreatedBy     int64      `json:"created_by"`
	CreatedByName string     `json:"created_by_name,omitempty"`
	DemoSessionID *string    `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type CreateVisitorRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Purpose       string `json:"purpose"`
	IDProofNumber string `json:"id_proof_number"`
	PersonToMeet  string `json:"person_to_meet"`
}

// Pass lifecycle: active -> completed (checkout) or active -> expired.
// Expired is terminal.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusExpired   = "expired"
)

func IsValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusCompleted, StatusExpired:
		return true
	}
	return false
}

func (r *CreateVisitorRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Phone == "" {
		return fmt.Errorf("phone is required")
	}
	if !isValidPhone(r.Phone) {
		return fmt.Errorf("invalid phone format")
	}
	if r.Purpose == "" {
		return fmt.Errorf("purpose is required")
	}
	if r.IDProofNumber == "" {
		return fmt.Errorf("id proof number is required")
	}
	if r.PersonToMeet == "" {
		return fmt.Errorf("person to meet is required")
	}
	return nil
}

func (r *CreateVisitorRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Purpose = strings.TrimSpace(r.Purpose)
	r.IDProofNumber = strings.TrimSpace(r.IDProofNumber)
	r.PersonToMeet = strings.TrimSpace(r.PersonToMeet)
}

// Expired reports whether an active pass is past its expiry time.
func (v *Visitor) Expired(now time.Time) bool {
	return v.Status == StatusActive && now.After(v.ExpiryTime)
}

// NewPassID generates a human-readable pass code, e.g. VPS-2026-4821.
// Uniqueness is enforced by the visitors.pass_id unique index; callers
// retry on conflict.
func NewPassID(now time.Time) string {
	return fmt.Sprintf("VPS-%d-%04d", now.Year(), 1000+rand.Intn(9000))
}

// NewStaffID generates a staff code, e.g. STF20264821.
func NewStaffID(now time.Time) string {
	return fmt.Sprintf("STF%d%04d", now.Year(), 1000+rand.Intn(9000))
}

func isValidPhone(phone string) bool {
	if len(phone) < 7 {
		return false
	}
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return true
}
