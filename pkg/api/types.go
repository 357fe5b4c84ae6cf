package api

import (
	"strings"
	"time"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// Role is the coarse authorization label carried by every user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// User is the stored account. Password holds the encoded hash, never the
// plaintext, and is excluded from JSON.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      Role      `json:"role"`
	Photo     string    `json:"photo"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FilteredUser is the public projection of a User.
type FilteredUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Photo     string    `json:"photo"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Filter returns the public projection of u.
func (u *User) Filter() FilteredUser {
	return FilteredUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Photo:     u.Photo,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// DefaultPhoto is assigned to new accounts.
const DefaultPhoto = "default.png"

// RegisterUserRequest is the body of POST /api/auth/register.
type RegisterUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginUserRequest is the body of POST /api/auth/login. Email also accepts
// the account name.
type LoginUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ---------------------------------------------------------------------------
// Payment records
// ---------------------------------------------------------------------------

// Record is a single payment entry.
type Record struct {
	ID            int64     `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	LastUpdatedBy string    `json:"last_updated_by"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	MI            string    `json:"mi"`
	Course        string    `json:"course"`
	YearLevel     string    `json:"year_level"`
	PaymentFor    string    `json:"payment_for"`
	Amount        string    `json:"amount"`
	ReceivedBy    string    `json:"received_by"`
}

// RecordFields are the caller-editable columns of a Record.
type RecordFields struct {
	LastUpdatedBy string `json:"last_updated_by"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	MI            string `json:"mi"`
	Course        string `json:"course"`
	YearLevel     string `json:"year_level"`
	PaymentFor    string `json:"payment_for"`
	Amount        string `json:"amount"`
	ReceivedBy    string `json:"received_by"`
}

// CreateRecordRequest is the body of POST /api/records.
type CreateRecordRequest struct {
	RecordFields
}

// UpdateRecordRequest is the body of PUT /api/records/{id}. ID is optional
// in the body; when present it must match the path.
type UpdateRecordRequest struct {
	ID int64 `json:"id,omitempty"`
	RecordFields
}

// Apply copies the editable fields onto r.
func (f RecordFields) Apply(r *Record) {
	r.LastUpdatedBy = f.LastUpdatedBy
	r.FirstName = f.FirstName
	r.LastName = f.LastName
	r.MI = f.MI
	r.Course = f.Course
	r.YearLevel = f.YearLevel
	r.PaymentFor = f.PaymentFor
	r.Amount = f.Amount
	r.ReceivedBy = f.ReceivedBy
}

// ---------------------------------------------------------------------------
// Envelopes
// ---------------------------------------------------------------------------

// DataResponse is the success envelope carrying a payload.
type DataResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// MessageResponse is the success envelope carrying a message.
type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

// Success wraps data into the success envelope.
func Success(data any) DataResponse {
	return DataResponse{Status: StatusSuccess, Data: data}
}
