package identity

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gracecoe/placement-portal/src/events"
	"github.com/gracecoe/placement-portal/src/models"
)

// ErrMissingEmail is returned when a session arrives without an email.
// The operation is aborted without store writes or broadcasts; any prior
// identity stays in effect.
var ErrMissingEmail = errors.New("session has no email")

// Reconciler merges a provider session with the user directory into one
// CanonicalIdentity. Every sign-in path (Google callback, password login,
// signup, session refresh) funnels through Reconcile, which is idempotent:
// racing calls for the same session converge on the same identity and a
// single directory row.
type Reconciler struct {
	directory  models.UserDirectory
	classifier *AdminClassifier
	bus        events.Publisher
}

func NewReconciler(directory models.UserDirectory, classifier *AdminClassifier, bus events.Publisher) *Reconciler {
	return &Reconciler{
		directory:  directory,
		classifier: classifier,
		bus:        bus,
	}
}

// Reconcile looks up or creates the directory row for the session's email,
// backfills profile fields, recomputes admin status, and returns the
// canonical identity. Directory failures are non-fatal: the identity is
// then built from session data alone and the session stays valid.
func (r *Reconciler) Reconcile(ctx context.Context, session *models.Session) (*models.CanonicalIdentity, error) {
	if session == nil || session.Email == "" {
		return nil, ErrMissingEmail
	}

	email := strings.ToLower(session.Email)

	user, err := r.directory.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return r.update(ctx, session, user), nil
	case errors.Is(err, models.ErrNotFound):
		return r.create(ctx, session, email), nil
	default:
		log.Printf("⚠️  User lookup failed for %s, using session data only: %v", email, err)
		return r.degraded(session), nil
	}
}

func (r *Reconciler) create(ctx context.Context, session *models.Session, email string) *models.CanonicalIdentity {
	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         sessionName(session),
		Picture:      sessionPicture(session),
		Provider:     sessionProvider(session),
		IsAdmin:      r.classify(session, false),
		CreatedAt:    now,
		LastSignInAt: now,
		UpdatedAt:    now,
	}

	err := r.directory.Create(ctx, user)
	if errors.Is(err, models.ErrAlreadyExists) {
		// Lost the bootstrap/listener race; the row exists now, so take
		// the update path against it.
		existing, getErr := r.directory.GetByEmail(ctx, email)
		if getErr == nil {
			return r.update(ctx, session, existing)
		}
		log.Printf("⚠️  Re-fetch after create conflict failed for %s: %v", email, getErr)
		return r.degraded(session)
	}
	if err != nil {
		log.Printf("⚠️  User creation failed for %s, using session data only: %v", email, err)
		return r.degraded(session)
	}

	ident := r.identityFrom(session, user)
	r.bus.Publish(events.Event{Kind: events.UserCreated, Identity: ident})
	return ident
}

func (r *Reconciler) update(ctx context.Context, session *models.Session, user *models.User) *models.CanonicalIdentity {
	now := time.Now()

	// The classifier is the single source of truth on every pass; the
	// stored flag is one input, never a frozen decision.
	user.IsAdmin = r.classify(session, user.IsAdmin)
	user.LastSignInAt = now
	user.UpdatedAt = now

	// Refresh the provider only when the session names one.
	if session.Provider != "" {
		user.Provider = session.Provider
	}

	// Never clobber a user-edited name; only replace the empty or
	// derived-from-email default.
	if name := sessionName(session); name != "" {
		if user.Name == "" || user.Name == localPart(user.Email) {
			user.Name = name
		}
	}

	// Picture is fill-once: first write wins.
	if user.Picture == "" {
		user.Picture = sessionPicture(session)
	}

	if err := r.directory.Save(ctx, user); err != nil {
		log.Printf("⚠️  User update failed for %s, continuing with session data: %v", user.Email, err)
	}

	ident := r.identityFrom(session, user)
	r.bus.Publish(events.Event{Kind: events.UserUpdated, Identity: ident})
	return ident
}

// degraded builds an identity from the session alone when the directory is
// unreachable. The user stays signed in; the next auth event is the retry.
func (r *Reconciler) degraded(session *models.Session) *models.CanonicalIdentity {
	ident := &models.CanonicalIdentity{
		Email:    strings.ToLower(session.Email),
		Name:     sessionName(session),
		Picture:  sessionPicture(session),
		Provider: sessionProvider(session),
		IsAdmin:  r.classify(session, false),
	}
	if ident.Name == "" {
		ident.Name = localPart(ident.Email)
	}
	r.bus.Publish(events.Event{Kind: events.UserUpdated, Identity: ident})
	return ident
}

func (r *Reconciler) identityFrom(session *models.Session, user *models.User) *models.CanonicalIdentity {
	ident := &models.CanonicalIdentity{
		// Email always comes from the session; the stored email is a
		// lookup key, not a display source.
		Email:    strings.ToLower(session.Email),
		Name:     user.Name,
		Picture:  user.Picture,
		Provider: user.Provider,
		IsAdmin:  user.IsAdmin,
		RecordID: user.ID,
	}
	if ident.Name == "" {
		ident.Name = sessionName(session)
	}
	if ident.Name == "" {
		ident.Name = localPart(ident.Email)
	}
	if ident.Picture == "" {
		ident.Picture = sessionPicture(session)
	}
	if ident.Provider == "" {
		ident.Provider = sessionProvider(session)
	}
	return ident
}

func (r *Reconciler) classify(session *models.Session, storedFlag bool) bool {
	return r.classifier.IsAdmin(Signals{
		Email:        session.Email,
		MetadataFlag: session.Metadata.IsAdmin,
		StoredFlag:   storedFlag,
	})
}

func sessionName(session *models.Session) string {
	if session.Metadata.Name != "" {
		return session.Metadata.Name
	}
	if session.Metadata.FullName != "" {
		return session.Metadata.FullName
	}
	return localPart(session.Email)
}

func sessionPicture(session *models.Session) string {
	if session.Metadata.Picture != "" {
		return session.Metadata.Picture
	}
	return session.Metadata.AvatarURL
}

func sessionProvider(session *models.Session) string {
	if session.Provider != "" {
		return session.Provider
	}
	return "email"
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
