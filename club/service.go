/*
Package club implements the member account lifecycle on top of the
accounting core.

PURPOSE:
  Registration, enabling/disabling, settings edits, password management and
  deletion of member accounts. The accounting core (package ledger) only
  knows Member documents; the rules for how they change live here.

LIFECYCLE:
  register -> pending -> enabled <-> disabled
                 \-> (first account or auto-enable match) -> enabled

  The very first registered account becomes the admin and is enabled
  immediately. Accounts matching the configured auto-enable glob pattern
  are enabled on registration; everyone else waits for an administrator.

PASSWORDS:
  Stored as bcrypt hashes. Setting a password always requires the one-time
  code issued at enable/reset time; the code is cleared on use.

CONCURRENCY:
  Member saves use the store's optimistic revision check. A conflict is
  propagated to the caller for retry - unlike snapshot creation, a lost
  member edit must not be silently dropped.
*/
package club

import (
	"context"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clubtab/clubtab/ledger"
)

// emailPattern is the minimal shape check for addresses; real validation
// happens when the admin inspects pending registrations.
const emailPattern = "*@*.*"

// Config carries the member-lifecycle settings.
type Config struct {
	// AutoEnablePattern is a glob; matching emails are enabled on
	// registration without admin action. Empty disables auto-enable.
	AutoEnablePattern string

	// MinPasswordLength is enforced when setting a password.
	MinPasswordLength int
}

// Service implements the member account lifecycle.
type Service struct {
	store ledger.Store
	cfg   Config
	now   func() time.Time
}

func NewService(store ledger.Store, cfg Config) *Service {
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = 8
	}
	return &Service{store: store, cfg: cfg, now: time.Now}
}

// newCode returns a one-time 32-char hex code (also used for API keys).
func newCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NormalizeSwish strips everything but digits from a Swish phone number.
func NormalizeSwish(value string) string {
	var b strings.Builder
	for _, c := range value {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Lookup finds a member by email, or - if that fails - by exact Swish
// number match.
func (s *Service) Lookup(ctx context.Context, key string) (ledger.Member, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	m, err := s.store.GetMember(ctx, key)
	if err == nil {
		return m, nil
	}
	if !ledger.IsNotFound(err) {
		return ledger.Member{}, err
	}
	if swish := NormalizeSwish(key); swish != "" {
		return s.store.GetMemberBySwish(ctx, swish)
	}
	return ledger.Member{}, err
}

// =============================================================================
// REGISTRATION
// =============================================================================

type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Swish     string
	SwishLazy bool
	Address   string
}

// Register creates a new member account. The first account in the store
// becomes the enabled admin; auto-enable matches are enabled directly;
// everyone else starts pending. The returned member carries the one-time
// code when one was issued.
func (s *Service) Register(ctx context.Context, in RegisterInput) (ledger.Member, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return ledger.Member{}, ErrInvalidEmail
	}
	if ok, _ := path.Match(emailPattern, email); !ok {
		return ledger.Member{}, ErrInvalidEmail
	}
	if _, err := s.store.GetMember(ctx, email); err == nil {
		return ledger.Member{}, ErrMemberExists
	} else if !ledger.IsNotFound(err) {
		return ledger.Member{}, err
	}

	swish := NormalizeSwish(in.Swish)
	if err := s.checkSwishFree(ctx, swish, email); err != nil {
		return ledger.Member{}, err
	}

	m := ledger.Member{
		Email:     email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Swish:     swish,
		SwishLazy: in.SwishLazy,
		Address:   in.Address,
		Role:      ledger.RoleMember,
		Status:    ledger.StatusPending,
	}

	existing, err := s.store.ListMembers(ctx)
	if err != nil {
		return ledger.Member{}, err
	}
	if len(existing) == 0 {
		// The very first account is the admin, enabled directly.
		m.Role = ledger.RoleAdmin
		m.Status = ledger.StatusEnabled
		m.Code = newCode()
	} else if s.cfg.AutoEnablePattern != "" {
		if ok, _ := path.Match(s.cfg.AutoEnablePattern, email); ok {
			m.Status = ledger.StatusEnabled
			m.Code = newCode()
		}
	}

	if err := s.store.SaveMember(ctx, &m); err != nil {
		return ledger.Member{}, err
	}
	slog.Info("member registered",
		"email", m.Email, "role", string(m.Role), "status", string(m.Status))
	return m, nil
}

func (s *Service) checkSwishFree(ctx context.Context, swish, selfEmail string) error {
	if swish == "" {
		return nil
	}
	other, err := s.store.GetMemberBySwish(ctx, swish)
	if err == nil && other.Email != selfEmail {
		return ErrSwishInUse
	}
	if err != nil && !ledger.IsNotFound(err) {
		return err
	}
	return nil
}

// =============================================================================
// ENABLE / DISABLE
// =============================================================================

// Enable turns a member account on and issues a fresh one-time code so the
// member can set a password. Admin only.
func (s *Service) Enable(ctx context.Context, actor ledger.Member, email string) (ledger.Member, error) {
	return s.adminTransition(ctx, actor, email, func(m *ledger.Member) {
		m.Status = ledger.StatusEnabled
		m.Password = ""
		m.Code = newCode()
	})
}

// Disable turns a member account off and clears credentials. Admin only.
func (s *Service) Disable(ctx context.Context, actor ledger.Member, email string) (ledger.Member, error) {
	return s.adminTransition(ctx, actor, email, func(m *ledger.Member) {
		m.Status = ledger.StatusDisabled
		m.Password = ""
		m.Code = ""
	})
}

func (s *Service) adminTransition(ctx context.Context, actor ledger.Member, email string, mutate func(*ledger.Member)) (ledger.Member, error) {
	if actor.Role != ledger.RoleAdmin {
		return ledger.Member{}, ledger.ErrPermissionDenied
	}
	m, err := s.store.GetMember(ctx, strings.ToLower(email))
	if err != nil {
		return ledger.Member{}, err
	}
	mutate(&m)
	if err := s.store.SaveMember(ctx, &m); err != nil {
		return ledger.Member{}, err
	}
	slog.Info("member status changed",
		"email", m.Email, "status", string(m.Status), "by", actor.Email)
	return m, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

type SettingsInput struct {
	FirstName string
	LastName  string
	Swish     string
	SwishLazy bool
	Address   string

	// Role changes the member's role; admin-only and never on the actor's
	// own account. Nil leaves the role alone.
	Role *ledger.Role

	// IssueAPIKey issues a fresh API key; admin-only, and only for members
	// holding the admin role.
	IssueAPIKey bool
}

// UpdateSettings edits a member account. Members may edit themselves;
// admins may edit anyone.
func (s *Service) UpdateSettings(ctx context.Context, actor ledger.Member, email string, in SettingsInput) (ledger.Member, error) {
	email = strings.ToLower(email)
	if actor.Role != ledger.RoleAdmin && actor.Email != email {
		return ledger.Member{}, ledger.ErrPermissionDenied
	}
	m, err := s.store.GetMember(ctx, email)
	if err != nil {
		return ledger.Member{}, err
	}

	swish := NormalizeSwish(in.Swish)
	if err := s.checkSwishFree(ctx, swish, m.Email); err != nil {
		return ledger.Member{}, err
	}

	m.FirstName = in.FirstName
	m.LastName = in.LastName
	m.Swish = swish
	m.SwishLazy = in.SwishLazy
	m.Address = in.Address

	if in.Role != nil && actor.Role == ledger.RoleAdmin && actor.Email != m.Email {
		if *in.Role == ledger.RoleAdmin || *in.Role == ledger.RoleMember {
			m.Role = *in.Role
		}
	}
	if in.IssueAPIKey && actor.Role == ledger.RoleAdmin && m.Role == ledger.RoleAdmin {
		m.APIKey = newCode()
	}

	if err := s.store.SaveMember(ctx, &m); err != nil {
		return ledger.Member{}, err
	}
	return m, nil
}

// =============================================================================
// PASSWORDS
// =============================================================================

// ResetPassword clears the password and issues a new one-time code.
// Pending and disabled accounts cannot be reset.
func (s *Service) ResetPassword(ctx context.Context, email string) (ledger.Member, error) {
	m, err := s.store.GetMember(ctx, strings.ToLower(email))
	if err != nil {
		return ledger.Member{}, err
	}
	switch m.Status {
	case ledger.StatusPending:
		return ledger.Member{}, ErrNotEnabled
	case ledger.StatusDisabled:
		return ledger.Member{}, ErrDisabled
	}
	m.Password = ""
	m.Code = newCode()
	if err := s.store.SaveMember(ctx, &m); err != nil {
		return ledger.Member{}, err
	}
	slog.Info("password reset", "email", m.Email)
	return m, nil
}

// SetPassword sets a member's password given the matching one-time code.
// The code is single-use and cleared here; the last-login timestamp is
// stamped since a successful set doubles as a login in the original flow.
func (s *Service) SetPassword(ctx context.Context, email, code, password string) (ledger.Member, error) {
	m, err := s.store.GetMember(ctx, strings.ToLower(email))
	if err != nil {
		if ledger.IsNotFound(err) {
			return ledger.Member{}, ErrInvalidCode
		}
		return ledger.Member{}, err
	}
	if m.Code == "" || m.Code != code {
		return ledger.Member{}, ErrInvalidCode
	}
	if len(password) < s.cfg.MinPasswordLength {
		return ledger.Member{}, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return ledger.Member{}, err
	}
	now := s.now().UTC()
	m.Password = string(hash)
	m.Code = ""
	m.LastLogin = &now
	if err := s.store.SaveMember(ctx, &m); err != nil {
		return ledger.Member{}, err
	}
	return m, nil
}

// Authenticate verifies credentials and stamps the last login. Disabled
// accounts are rejected even with a correct password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (ledger.Member, error) {
	m, err := s.Lookup(ctx, email)
	if err != nil {
		if ledger.IsNotFound(err) {
			return ledger.Member{}, ErrBadCredentials
		}
		return ledger.Member{}, err
	}
	if m.Status == ledger.StatusDisabled {
		return ledger.Member{}, ErrDisabled
	}
	if m.Password == "" ||
		bcrypt.CompareHashAndPassword([]byte(m.Password), []byte(password)) != nil {
		return ledger.Member{}, ErrBadCredentials
	}
	now := s.now().UTC()
	m.LastLogin = &now
	if err := s.store.SaveMember(ctx, &m); err != nil {
		return ledger.Member{}, err
	}
	slog.Info("login", "email", m.Email)
	return m, nil
}

// =============================================================================
// DELETION
// =============================================================================

// Delete removes a member account. Admin only, and only for accounts with
// zero events and a non-admin role.
func (s *Service) Delete(ctx context.Context, actor ledger.Member, email string) error {
	if actor.Role != ledger.RoleAdmin {
		return ledger.ErrPermissionDenied
	}
	m, err := s.store.GetMember(ctx, strings.ToLower(email))
	if err != nil {
		return err
	}
	if m.Role == ledger.RoleAdmin {
		return ledger.ErrPermissionDenied
	}
	has, err := s.store.HasEvents(ctx, m.Email)
	if err != nil {
		return err
	}
	if has {
		return ledger.ErrPermissionDenied
	}
	if err := s.store.DeleteMember(ctx, m.Email); err != nil {
		return err
	}
	slog.Warn("member deleted", "email", m.Email, "by", actor.Email)
	return nil
}

// Deletable reports whether an account could be deleted (zero events and
// not the admin). Used by the presentation layer.
func (s *Service) Deletable(ctx context.Context, m ledger.Member) (bool, error) {
	if m.Role == ledger.RoleAdmin {
		return false, nil
	}
	has, err := s.store.HasEvents(ctx, m.Email)
	if err != nil {
		return false, err
	}
	return !has, nil
}
