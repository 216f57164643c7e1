package models

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned by Create when the unique key is taken.
var ErrAlreadyExists = errors.New("already exists")

// UserDirectory defines the application user store consumed by the
// reconciler and the auth middleware.
type UserDirectory interface {
	// GetByEmail looks a user up by email, case-insensitively.
	// Returns ErrNotFound if no row exists for the email.
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// Create inserts a new user, claiming the email key. Returns
	// ErrAlreadyExists if another writer claimed it first.
	Create(ctx context.Context, user *User) error
	// Save overwrites the user row. Last write wins.
	Save(ctx context.Context, user *User) error
}

// InternshipStore defines CRUD over internship postings.
type InternshipStore interface {
	List(ctx context.Context) ([]*Internship, error)
	Get(ctx context.Context, id string) (*Internship, error)
	Create(ctx context.Context, internship *Internship) error
	Update(ctx context.Context, internship *Internship) error
	Delete(ctx context.Context, id string) error
}

// PlacementStore defines CRUD over placement records.
type PlacementStore interface {
	List(ctx context.Context) ([]*Placement, error)
	Get(ctx context.Context, id string) (*Placement, error)
	Create(ctx context.Context, placement *Placement) error
	Update(ctx context.Context, placement *Placement) error
	Delete(ctx context.Context, id string) error
}
