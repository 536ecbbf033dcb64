package club_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clubtab/clubtab/club"
	"github.com/clubtab/clubtab/ledger"
	"github.com/clubtab/clubtab/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T, cfg club.Config) (*club.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return club.NewService(store, cfg), store
}

func register(t *testing.T, svc *club.Service, email string) ledger.Member {
	t.Helper()
	m, err := svc.Register(context.Background(), club.RegisterInput{Email: email})
	require.NoError(t, err)
	return m
}

// =============================================================================
// REGISTRATION
// =============================================================================

func TestService_Register_FirstMemberBecomesEnabledAdmin(t *testing.T) {
	// GIVEN: An empty member store
	// WHEN: The first account registers
	// THEN: It is the enabled admin, with a one-time code already issued

	svc, _ := newTestService(t, club.Config{})
	m := register(t, svc, "Founder@Example.com")

	assert.Equal(t, "founder@example.com", m.Email)
	assert.Equal(t, ledger.RoleAdmin, m.Role)
	assert.Equal(t, ledger.StatusEnabled, m.Status)
	assert.NotEmpty(t, m.Code)
}

func TestService_Register_SecondMemberIsPending(t *testing.T) {
	svc, _ := newTestService(t, club.Config{})
	register(t, svc, "founder@example.com")

	m := register(t, svc, "bob@example.com")

	assert.Equal(t, ledger.RoleMember, m.Role)
	assert.Equal(t, ledger.StatusPending, m.Status)
	assert.Empty(t, m.Code)
}

func TestService_Register_AutoEnablePattern(t *testing.T) {
	// GIVEN: Auto-enable configured for the club's home domain
	// WHEN: A matching and a non-matching address register
	// THEN: Only the match is enabled without admin action

	svc, _ := newTestService(t, club.Config{AutoEnablePattern: "*@brewers.se"})
	register(t, svc, "founder@example.com")

	home := register(t, svc, "carol@brewers.se")
	assert.Equal(t, ledger.StatusEnabled, home.Status)
	assert.NotEmpty(t, home.Code)

	guest := register(t, svc, "dave@example.com")
	assert.Equal(t, ledger.StatusPending, guest.Status)
}

func TestService_Register_DuplicateEmail_Rejected(t *testing.T) {
	svc, _ := newTestService(t, club.Config{})
	register(t, svc, "alice@example.com")

	_, err := svc.Register(context.Background(), club.RegisterInput{Email: "ALICE@example.com"})
	assert.ErrorIs(t, err, club.ErrMemberExists)
}

func TestService_Register_BadEmail_Rejected(t *testing.T) {
	svc, _ := newTestService(t, club.Config{})
	for _, email := range []string{"", "nope", "a@b"} {
		_, err := svc.Register(context.Background(), club.RegisterInput{Email: email})
		assert.ErrorIs(t, err, club.ErrInvalidEmail, "email %q", email)
	}
}

func TestService_Register_SwishNormalizedAndUnique(t *testing.T) {
	svc, _ := newTestService(t, club.Config{})
	m, err := svc.Register(context.Background(), club.RegisterInput{
		Email: "alice@example.com",
		Swish: "070-123 45 67",
	})
	require.NoError(t, err)
	assert.Equal(t, "0701234567", m.Swish)

	_, err = svc.Register(context.Background(), club.RegisterInput{
		Email: "bob@example.com",
		Swish: "0701234567",
	})
	assert.ErrorIs(t, err, club.ErrSwishInUse)
}

func TestService_Lookup_BySwishNumber(t *testing.T) {
	svc, _ := newTestService(t, club.Config{})
	_, err := svc.Register(context.Background(), club.RegisterInput{
		Email: "alice@example.com",
		Swish: "0701234567",
	})
	require.NoError(t, err)

	m, err := svc.Lookup(context.Background(), "070-123 45 67")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", m.Email)
}

// =============================================================================
// ENABLE / DISABLE
// =============================================================================

func TestService_EnableDisable_AdminLifecycle(t *testing.T) {
	// GIVEN: A pending registration
	// WHEN: The admin enables, then later disables the account
	// THEN: Enable issues a one-time code; disable wipes all credentials

	svc, _ := newTestService(t, club.Config{})
	admin := register(t, svc, "founder@example.com")
	register(t, svc, "bob@example.com")

	ctx := context.Background()
	enabled, err := svc.Enable(ctx, admin, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusEnabled, enabled.Status)
	assert.NotEmpty(t, enabled.Code)

	disabled, err := svc.Disable(ctx, admin, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusDisabled, disabled.Status)
	assert.Empty(t, disabled.Code)
	assert.Empty(t, disabled.Password)
}

func TestService_Enable_NonAdmin_Denied(t *testing.T) {
	svc, _ := newTestService(t, club.Config{})
	register(t, svc, "founder@example.com")
	bob := register(t, svc, "bob@example.com")

	_, err := svc.Enable(context.Background(), bob, "bob@example.com")
	assert.ErrorIs(t, err, ledger.ErrPermissionDenied)
}

// =============================================================================
// PASSWORDS
// =============================================================================

func TestService_SetPassword_WithCode(t *testing.T) {
	svc, store := newTestService(t, club.Config{})
	m := register(t, svc, "founder@example.com")

	ctx := context.Background()
	saved, err := svc.SetPassword(ctx, m.Email, m.Code, "correct horse battery")
	require.NoError(t, err)

	assert.Empty(t, saved.Code, "code is single use")
	require.NotNil(t, saved.LastLogin)
	stored, err := store.GetMember(ctx, m.Email)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("correct horse battery")))
}

func TestService_SetPassword_WrongCode_Rejected(t *testing.T) {
	svc, _ := newTestService(t, club.Config{})
	m := register(t, svc, "founder@example.com")

	_, err := svc.SetPassword(context.Background(), m.Email, "bogus", "correct horse battery")
	assert.ErrorIs(t, err, club.ErrInvalidCode)
}

func TestService_SetPassword_TooShort_Rejected(t *testing.T) {
	svc, _ := newTestService(t, club.Config{MinPasswordLength: 10})
	m := register(t, svc, "founder@example.com")

	_, err := svc.SetPassword(context.Background(), m.Email, m.Code, "short")
	assert.ErrorIs(t, err, club.ErrWeakPassword)
}

func TestService_ResetPassword_IssuesFreshCode(t *testing.T) {
	svc, _ := newTestService(t, club.Config{})
	m := register(t, svc, "founder@example.com")
	ctx := context.Background()
	_, err := svc.SetPassword(ctx, m.Email, m.Code, "correct horse battery")
	require.NoError(t, err)

	reset, err := svc.ResetPassword(ctx, m.Email)
	require.NoError(t, err)
	assert.NotEmpty(t, reset.Code)
	assert.Empty(t, reset.Password)

	// The old password no longer works
	_, err = svc.Authenticate(ctx, m.Email, "correct horse battery")
	assert.ErrorIs(t, err, club.ErrBadCredentials)
}

func TestService_ResetPassword_PendingAndDisabled_Refused(t *testing.T) {
	svc, _ := newTestService(t, club.Config{})
	admin := register(t, svc, "founder@example.com")
	register(t, svc, "bob@example.com")
	ctx := context.Background()

	_, err := svc.ResetPassword(ctx, "bob@example.com")
	assert.ErrorIs(t, err, club.ErrNotEnabled)

	_, err = svc.Enable(ctx, admin, "bob@example.com")
	require.NoError(t, err)
	_, err = svc.Disable(ctx, admin, "bob@example.com")
	require.NoError(t, err)

	_, err = svc.ResetPassword(ctx, "bob@example.com")
	assert.ErrorIs(t, err, club.ErrDisabled)
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := newTestService(t, club.Config{})
	m := register(t, svc, "founder@example.com")
	ctx := context.Background()
	_, err := svc.SetPassword(ctx, m.Email, m.Code, "correct horse battery")
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, "founder@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, m.Email, got.Email)
	assert.NotNil(t, got.LastLogin)

	_, err = svc.Authenticate(ctx, "founder@example.com", "wrong")
	assert.ErrorIs(t, err, club.ErrBadCredentials)

	_, err = svc.Authenticate(ctx, "stranger@example.com", "whatever")
	assert.ErrorIs(t, err, club.ErrBadCredentials)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestService_UpdateSettings_SelfAndAdminRules(t *testing.T) {
	svc, _ := newTestService(t, club.Config{})
	admin := register(t, svc, "founder@example.com")
	bob := register(t, svc, "bob@example.com")
	ctx := context.Background()

	// Bob edits himself
	got, err := svc.UpdateSettings(ctx, bob, bob.Email, club.SettingsInput{FirstName: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.FirstName)

	// Bob cannot edit the admin
	_, err = svc.UpdateSettings(ctx, bob, admin.Email, club.SettingsInput{FirstName: "X"})
	assert.ErrorIs(t, err, ledger.ErrPermissionDenied)

	// Bob cannot change his own role even through an admin-shaped input
	role := ledger.RoleAdmin
	got, err = svc.UpdateSettings(ctx, bob, bob.Email, club.SettingsInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, ledger.RoleMember, got.Role)

	// The admin can promote Bob, but never their own account
	got, err = svc.UpdateSettings(ctx, admin, bob.Email, club.SettingsInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, ledger.RoleAdmin, got.Role)
}

func TestService_UpdateSettings_APIKeyForAdminsOnly(t *testing.T) {
	svc, _ := newTestService(t, club.Config{})
	admin := register(t, svc, "founder@example.com")
	register(t, svc, "bob@example.com")
	ctx := context.Background()

	// Bob holds the member role; no key is issued for him
	got, err := svc.UpdateSettings(ctx, admin, "bob@example.com", club.SettingsInput{IssueAPIKey: true})
	require.NoError(t, err)
	assert.Empty(t, got.APIKey)

	got, err = svc.UpdateSettings(ctx, admin, admin.Email, club.SettingsInput{IssueAPIKey: true})
	require.NoError(t, err)
	assert.NotEmpty(t, got.APIKey)
}

// =============================================================================
// DELETION
// =============================================================================

func TestService_Delete_OnlyEventFreeNonAdmins(t *testing.T) {
	// GIVEN: Bob with no events, Carol with history, and the admin
	// WHEN: The admin deletes accounts
	// THEN: Only Bob goes; history and the admin role protect the others

	svc, store := newTestService(t, club.Config{})
	admin := register(t, svc, "founder@example.com")
	register(t, svc, "bob@example.com")
	register(t, svc, "carol@example.com")
	ctx := context.Background()

	require.NoError(t, store.AddEvent(ctx, ledger.Event{
		ID: "ev1", Account: "carol@example.com", Action: ledger.ActionPayment,
	}))

	require.NoError(t, svc.Delete(ctx, admin, "bob@example.com"))
	_, err := store.GetMember(ctx, "bob@example.com")
	assert.True(t, ledger.IsNotFound(err))

	err = svc.Delete(ctx, admin, "carol@example.com")
	assert.ErrorIs(t, err, ledger.ErrPermissionDenied, "history blocks deletion")

	err = svc.Delete(ctx, admin, admin.Email)
	assert.ErrorIs(t, err, ledger.ErrPermissionDenied, "admins are never deletable")
}

func TestService_Deletable(t *testing.T) {
	svc, store := newTestService(t, club.Config{})
	admin := register(t, svc, "founder@example.com")
	bob := register(t, svc, "bob@example.com")
	ctx := context.Background()

	ok, err := svc.Deletable(ctx, bob)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Deletable(ctx, admin)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.AddEvent(ctx, ledger.Event{
		ID: "ev1", Account: bob.Email, Action: ledger.ActionPurchase,
	}))
	ok, err = svc.Deletable(ctx, bob)
	require.NoError(t, err)
	assert.False(t, ok)
}
