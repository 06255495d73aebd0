package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type User struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          string     `json:"role"`
	Phone         string     `json:"phone"`
	Designation   string     `json:"designation"`
	Photo         string     `json:"photo"`
	StaffID       string     `json:"staff_id"`
	IsActive      bool       `json:"is_active"`
	IsDemo        bool       `json:"is_demo"`
	DemoSessionID *string    `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type CreateUserRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phone"`
	Designation string `json:"designation"`
	Role        string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Phone       string `json:"phone"`
	Designation string `json:"designation"`
	StaffID     string `json:"staff_id"`
	Photo       string `json:"photo"`
	PhotoURL    string `json:"photo_url,omitempty"`
	IsActive    bool   `json:"is_active"`
	IsDemo      bool   `json:"is_demo"`
}

// Valid staff roles
const (
	RoleAdmin    = "admin"
	RoleSecurity = "security"
)

var validRoles = map[string]bool{
	RoleAdmin:    true,
	RoleSecurity: true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

func (r *CreateUserRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !isValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	if len(r.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if r.Role != "" && !validRoles[r.Role] {
		return fmt.Errorf("invalid role")
	}
	return nil
}

func (r *CreateUserRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Role == "" {
		r.Role = RoleSecurity
	}
	if r.Designation == "" {
		r.Designation = "Security Staff"
	}
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !isValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// ToUserInfo converts User to UserInfo (without sensitive data)
func (u *User) ToUserInfo(baseURL string) *UserInfo {
	info := &UserInfo{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Phone:       u.Phone,
		Designation: u.Designation,
		StaffID:     u.StaffID,
		Photo:       u.Photo,
		IsActive:    u.IsActive,
		IsDemo:      u.IsDemo,
	}
	if u.Photo != "" && baseURL != "" {
		info.PhotoURL = strings.TrimRight(baseURL, "/") + "/" + strings.ReplaceAll(u.Photo, "\\", "/")
	}
	return info
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
