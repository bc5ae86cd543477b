package api

import "github.com/bomcorte/blackfriday/internal/model"

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// PaginatedLeads wraps one page of leads with pagination metadata.
type PaginatedLeads struct {
	Leads      []model.Lead `json:"leads"`
	Pagination Pagination   `json:"pagination"`
}

// Pagination holds page-based pagination metadata.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

// CreateLeadResponse is returned for a successful public submission.
type CreateLeadResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}

// UpdateLeadRequest carries the sparse set of mutable lead fields.
// Nil pointer = field not supplied.
type UpdateLeadRequest struct {
	Status             *string `json:"status"`
	RepresentativeName *string `json:"representative_name"`
	Name               *string `json:"name"`
	Email              *string `json:"email"`
	WhatsApp           *string `json:"whatsapp"`
	Region             *string `json:"region"`
	City               *string `json:"city"`
}

// LoginRequest is the auth login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse describes the authenticated user.
type SessionResponse struct {
	UserID int64      `json:"user_id"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
}

// UserResponse is an admin account without its password hash.
type UserResponse struct {
	ID    int64      `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// CreateUserRequest is the admin user-creation body.
type CreateUserRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// UpdateUserRequest carries sparse user changes.
type UpdateUserRequest struct {
	Password *string     `json:"password"`
	Role     *model.Role `json:"role"`
}
