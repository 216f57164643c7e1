package identity

import (
	"github.com/gracecoe/placement-portal/src/models"
)

// RouteClass describes how much privilege a route needs.
type RouteClass int

const (
	RoutePublic RouteClass = iota
	RouteAuthenticated
	RouteAdminOnly
)

// Verdict is the guard's decision for one request.
type Verdict int

const (
	// Allow lets the request through.
	Allow Verdict = iota
	// Defer means the session bootstrap has not resolved yet; the caller
	// must wait rather than flash a redirect.
	Defer
	// Redirect sends the caller to Decision.Target.
	Redirect
)

type Decision struct {
	Verdict Verdict
	Target  string
}

// Authorize gates access to a route from the reconciled identity.
// While loading, it always defers so an in-flight session check can never
// be mistaken for an unauthenticated one. Admin routes bounce non-admins
// to the home page; authenticated routes bounce anonymous callers to the
// login page. There is no terminal state: a sign-out simply makes the next
// call see a nil identity.
func Authorize(class RouteClass, ident *models.CanonicalIdentity, loading bool) Decision {
	if loading {
		return Decision{Verdict: Defer}
	}

	switch class {
	case RouteAdminOnly:
		if ident == nil || !ident.IsAdmin {
			return Decision{Verdict: Redirect, Target: "/"}
		}
	case RouteAuthenticated:
		if ident == nil {
			return Decision{Verdict: Redirect, Target: "/auth"}
		}
	}

	return Decision{Verdict: Allow}
}
