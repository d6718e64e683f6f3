// Package models defines the data structures used across the application.
// These map to the PostgreSQL schema and the JSON wire format.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a complaint.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
)

// Valid reports whether s is one of the five lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Resolved reports whether s counts toward the "resolved" stats bucket.
// Every valid status falls into exactly one of the two buckets, so
// pending + resolved always equals the total complaint count.
func (s Status) Resolved() bool {
	return s == StatusResolved || s == StatusClosed
}

// StatusForAssignment returns the status a complaint takes when its
// authority changes: assigning forces ASSIGNED, unassigning forces PENDING,
// discarding whatever state the complaint held before.
func StatusForAssignment(authorityID *uuid.UUID) Status {
	if authorityID != nil {
		return StatusAssigned
	}
	return StatusPending
}

// Priority is the urgency a citizen attaches to a complaint.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Valid reports whether p is one of the four priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// User is a civic account tied to an external OAuth identity. Rows are
// provisioned on first authenticated request and never deleted.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Admin is a privileged account created only by the bootstrap step.
// The password hash never leaves the server.
type Admin struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile returns the admin fields safe to serialize in responses.
func (a *Admin) Profile() AdminProfile {
	return AdminProfile{ID: a.ID, Name: a.Name, Email: a.Email}
}

// AdminProfile is the minimal admin identity returned by login and verify.
type AdminProfile struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Authority is a department handler account, assignable to complaints.
// IsActive is a soft-disable flag; flipping it does not reassign anything.
type Authority struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Phone      *string   `json:"phone"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AuthorityWithCount is an authority row joined with how many complaints
// it currently handles, for the admin listing.
type AuthorityWithCount struct {
	Authority
	ComplaintCount int64 `json:"complaintCount"`
}

// Complaint is the central entity. The owning user is set at creation and
// immutable; the authority reference is nullable.
type Complaint struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Location    *string    `json:"location"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	UserID      uuid.UUID  `json:"userId"`
	AuthorityID *uuid.UUID `json:"authorityId"`
}

// UserSummary is the owning-user slice included in admin complaint listings.
type UserSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthoritySummary is the authority slice included in complaint listings.
// The ID is omitted on the citizen-facing listing.
type AuthoritySummary struct {
	ID         *uuid.UUID `json:"id,omitempty"`
	Name       string     `json:"name"`
	Department string     `json:"department"`
}

// ComplaintDetail is a complaint joined with its related profiles.
type ComplaintDetail struct {
	Complaint
	User      *UserSummary      `json:"user,omitempty"`
	Authority *AuthoritySummary `json:"authority,omitempty"`
}

// Stats are the four dashboard counters. PENDING, ASSIGNED and IN_PROGRESS
// complaints count as pending; RESOLVED and CLOSED count as resolved.
type Stats struct {
	TotalComplaints    int64 `json:"totalComplaints"`
	PendingComplaints  int64 `json:"pendingComplaints"`
	ResolvedComplaints int64 `json:"resolvedComplaints"`
	TotalAuthorities   int64 `json:"totalAuthorities"`
}

// LoginRequest is the body of POST /api/admin/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateComplaintRequest is the body of POST /api/user/complaints.
type CreateComplaintRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Location    string   `json:"location"`
	Priority    Priority `json:"priority"`
}

// CreateAuthorityRequest is the body of POST /api/admin/authorities.
type CreateAuthorityRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department" validate:"required"`
	Phone      string `json:"phone"`
}

// UpdateStatusRequest is the body of PATCH /api/admin/complaints/{id}/status.
type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

// AssignRequest is the body of PATCH /api/admin/complaints/{id}/assign.
// A null authorityId unassigns the complaint.
type AssignRequest struct {
	AuthorityID *uuid.UUID `json:"authorityId"`
}

// HealthStatus represents the server health check response
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database,omitempty"`
}
