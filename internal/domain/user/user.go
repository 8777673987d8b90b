package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already in use")
	ErrEmailRequired = errors.New("users must have an email address")
)

const MinPasswordLength = 5

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Name         string    `json:"name"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// New builds an active regular user. passwordHash must already be hashed.
func New(email, passwordHash, name string) (User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return User{}, ErrEmailRequired
	}

	now := time.Now().UTC()

	return User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(name),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func NewSuperuser(email, passwordHash, name string) (User, error) {
	u, err := New(email, passwordHash, name)
	if err != nil {
		return User{}, err
	}

	u.IsStaff = true
	u.IsSuperuser = true

	return u, nil
}

// NormalizeEmail lowercases the domain part and keeps the local part as given.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}

	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// Changes is a partial update; nil fields are left untouched.
type Changes struct {
	Email        *string
	Name         *string
	PasswordHash *string
}

func (u User) Apply(ch Changes) User {
	if ch.Email != nil {
		u.Email = NormalizeEmail(*ch.Email)
	}
	if ch.Name != nil {
		u.Name = strings.TrimSpace(*ch.Name)
	}
	if ch.PasswordHash != nil {
		u.PasswordHash = *ch.PasswordHash
	}
	u.UpdatedAt = time.Now().UTC()
	return u
}

type Response struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (u User) Response() Response {
	return Response{Email: u.Email, Name: u.Name}
}

type AdminResponse struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	IsActive    bool   `json:"is_active"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

func (u User) AdminResponse() AdminResponse {
	return AdminResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}

type CreateRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=5,max=128"`
	Name     string `json:"name" binding:"required,notblank,max=255"`
}

// PatchRequest backs PATCH /users/me. An absent password keeps the stored hash.
type PatchRequest struct {
	Email    *string `json:"email" binding:"omitnil,email,max=255"`
	Password *string `json:"password" binding:"omitnil,min=5,max=128"`
	Name     *string `json:"name" binding:"omitnil,notblank,max=255"`
}

type TokenRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
