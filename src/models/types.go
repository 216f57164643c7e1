package models

import (
	"time"
)

// User is the portal's own profile row for a given email. The email is the
// unique lookup key (stored lowercased); display fields are enriched from
// whatever identity provider the user last signed in with.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Picture      string    `json:"picture,omitempty"`
	Provider     string    `json:"provider"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	LastSignInAt time.Time `json:"last_sign_in"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionMetadata carries the profile claims issued by the identity
// provider alongside a session. All fields are optional.
type SessionMetadata struct {
	Name      string `json:"name,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	Picture   string `json:"picture,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	IsAdmin   bool   `json:"is_admin,omitempty"`
}

// Session is the identity provider's proof of authentication, the sole
// input to reconciliation. Email is authoritative for display; the user
// directory is only an enrichment layer on top of it.
type Session struct {
	SubjectID string          `json:"subject_id"`
	Email     string          `json:"email"`
	Metadata  SessionMetadata `json:"metadata"`
	Provider  string          `json:"provider,omitempty"`
}

// CanonicalIdentity is the single reconciled view of a user consumed by
// route guards and handlers. It is derived state, rebuilt on every auth
// event and never persisted.
type CanonicalIdentity struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture,omitempty"`
	Provider string `json:"provider"`
	IsAdmin  bool   `json:"is_admin"`
	RecordID string `json:"record_id,omitempty"`
}

// Internship is a posting on the internships board.
type Internship struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location,omitempty"`
	Stipend     string    `json:"stipend,omitempty"`
	Description string    `json:"description,omitempty"`
	ApplyURL    string    `json:"apply_url,omitempty"`
	Deadline    time.Time `json:"deadline,omitzero"`
	PostedBy    string    `json:"posted_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Placement is a historical placement record shown on the placements page.
type Placement struct {
	ID           string    `json:"id"`
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email,omitempty"`
	Company      string    `json:"company"`
	Role         string    `json:"role"`
	PackageLPA   float64   `json:"package_lpa,omitempty"`
	Year         int       `json:"year"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
