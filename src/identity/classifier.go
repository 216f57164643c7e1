package identity

import (
	"strings"
)

// Signals are the three independent sources an admin decision can come
// from: a flag in the provider's session metadata, the flag stored on the
// user row, and the configured allow-list.
type Signals struct {
	Email        string
	MetadataFlag bool
	StoredFlag   bool
}

// AdminClassifier is the single place admin status is decided. Every call
// site (reconciler, route guard, handlers) goes through it so the rule
// cannot drift.
type AdminClassifier struct {
	allowList map[string]struct{}
}

func NewAdminClassifier(allowedEmails []string) *AdminClassifier {
	allow := make(map[string]struct{}, len(allowedEmails))
	for _, email := range allowedEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		allow[email] = struct{}{}
	}
	return &AdminClassifier{allowList: allow}
}

// IsAdmin returns the logical OR of the three signals. Email comparison is
// case-insensitive; a missing email never matches the allow-list.
func (c *AdminClassifier) IsAdmin(s Signals) bool {
	if s.MetadataFlag {
		return true
	}
	if s.StoredFlag {
		return true
	}
	if s.Email == "" {
		return false
	}
	_, ok := c.allowList[strings.ToLower(s.Email)]
	return ok
}
