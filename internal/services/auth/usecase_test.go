package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/vigilhq/vigil/internal/domain/auth"
	"github.com/vigilhq/vigil/internal/domain/user"
)

type memUsers struct {
	seq      int64
	rows     map[int64]*user.User
	countErr error
}

func newMemUsers() *memUsers {
	return &memUsers{rows: make(map[int64]*user.User)}
}

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	for _, row := range m.rows {
		if row.Username == u.Username {
			return user.ErrExists
		}
	}
	m.seq++
	u.ID = m.seq
	u.CreatedAt = time.Now().UTC()
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	cp := *row
	return &cp, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*user.User, error) {
	for _, row := range m.rows {
		if row.Username == username {
			cp := *row
			return &cp, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func (m *memUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	row, ok := m.rows[id]
	if !ok {
		return ErrInvalidCredentials
	}
	row.Password = hash
	return nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	delete(m.rows, id)
	return nil
}

func (m *memUsers) Count(context.Context) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return int64(len(m.rows)), nil
}

type memRefresh struct {
	seq  int64
	rows map[string]*domainauth.RefreshToken
	now  func() time.Time
}

func newMemRefresh(now func() time.Time) *memRefresh {
	return &memRefresh{rows: make(map[string]*domainauth.RefreshToken), now: now}
}

func (m *memRefresh) Create(_ context.Context, t *domainauth.RefreshToken) error {
	m.seq++
	t.ID = m.seq
	cp := *t
	m.rows[t.TokenHash] = &cp
	return nil
}

func (m *memRefresh) FindValid(_ context.Context, hash string) (*domainauth.RefreshToken, error) {
	row, ok := m.rows[hash]
	if !ok || row.Revoked || !row.ExpiresAt.After(m.now()) {
		return nil, ErrInvalidCredentials
	}
	cp := *row
	return &cp, nil
}

func (m *memRefresh) Revoke(_ context.Context, hash string) error {
	if row, ok := m.rows[hash]; ok {
		row.Revoked = true
	}
	return nil
}

func (m *memRefresh) RevokeAllForUser(_ context.Context, userID int64) error {
	for _, row := range m.rows {
		if row.UserID == userID {
			row.Revoked = true
		}
	}
	return nil
}

func newTestUsecase(t *testing.T) (*Usecase, *memUsers, *memRefresh) {
	t.Helper()
	// fixed per-test instant; anchored to the real clock because token
	// expiry is validated against it when parsing
	base := time.Now().UTC()
	now := func() time.Time { return base }
	users := newMemUsers()
	rt := newMemRefresh(now)
	uc := NewUsecase(users, rt, Config{
		Secret:     []byte("test-secret"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 30 * 24 * time.Hour,
		Now:        now,
	})
	return uc, users, rt
}

func TestRegisterBootstrapsAdmins(t *testing.T) {
	uc, _, _ := newTestUsecase(t)
	ctx := context.Background()

	first, _, _, err := uc.Register(ctx, "alice", "hunter22")
	require.NoError(t, err)
	second, _, _, err := uc.Register(ctx, "bob", "hunter22")
	require.NoError(t, err)
	third, _, _, err := uc.Register(ctx, "carol", "hunter22")
	require.NoError(t, err)

	assert.Equal(t, user.RoleAdmin, first.Role)
	assert.Equal(t, user.RoleAdmin, second.Role)
	assert.Equal(t, user.RoleUser, third.Role)
}

func TestRegisterValidation(t *testing.T) {
	uc, _, _ := newTestUsecase(t)
	ctx := context.Background()

	_, _, _, err := uc.Register(ctx, "alice", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, _, _, err = uc.Register(ctx, "   ", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = uc.Register(ctx, "alice", "hunter22")
	require.NoError(t, err)
	_, _, _, err = uc.Register(ctx, "alice", "hunter22")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterFailsWhenRoleCheckFails(t *testing.T) {
	uc, users, _ := newTestUsecase(t)
	users.countErr = errors.New("db down")

	// a transient count failure must not quietly hand out the user role
	// to what would have been a bootstrap admin
	_, _, _, err := uc.Register(context.Background(), "alice", "hunter22")
	require.Error(t, err)
	assert.Empty(t, users.rows)
}

func TestRegisterNeverStoresPlaintext(t *testing.T) {
	uc, users, _ := newTestUsecase(t)

	rec, _, _, err := uc.Register(context.Background(), "alice", "hunter22")
	require.NoError(t, err)
	stored := users.rows[rec.ID]
	assert.NotEqual(t, "hunter22", stored.Password)
	assert.NotEmpty(t, stored.Password)
}

func TestLogin(t *testing.T) {
	uc, _, _ := newTestUsecase(t)
	ctx := context.Background()
	_, _, _, err := uc.Register(ctx, "alice", "hunter22")
	require.NoError(t, err)

	rec, access, refresh, err := uc.Login(ctx, "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.Username)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	_, _, _, err = uc.Login(ctx, "alice", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = uc.Login(ctx, "nobody", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseAccessRoundTrip(t *testing.T) {
	uc, _, _ := newTestUsecase(t)
	rec, access, _, err := uc.Register(context.Background(), "alice", "hunter22")
	require.NoError(t, err)

	id, err := uc.ParseAccess(access)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, id.UserID)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, user.RoleAdmin, id.Role)

	_, err = uc.ParseAccess("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseAccessRejectsForeignSecret(t *testing.T) {
	uc, users, rt := newTestUsecase(t)
	_, access, _, err := uc.Register(context.Background(), "alice", "hunter22")
	require.NoError(t, err)

	other := NewUsecase(users, rt, Config{
		Secret:     []byte("different-secret"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
	})
	_, err = other.ParseAccess(access)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotates(t *testing.T) {
	uc, _, _ := newTestUsecase(t)
	ctx := context.Background()
	_, _, refresh, err := uc.Register(ctx, "alice", "hunter22")
	require.NoError(t, err)

	access2, refresh2, err := uc.Refresh(ctx, refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access2)
	assert.NotEqual(t, refresh, refresh2)

	// the presented token is single-use
	_, _, err = uc.Refresh(ctx, refresh)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// the replacement still works
	_, _, err = uc.Refresh(ctx, refresh2)
	require.NoError(t, err)
}

func TestLogoutRevokesRefresh(t *testing.T) {
	uc, _, _ := newTestUsecase(t)
	ctx := context.Background()
	_, _, refresh, err := uc.Register(ctx, "alice", "hunter22")
	require.NoError(t, err)

	require.NoError(t, uc.Logout(ctx, refresh))
	_, _, err = uc.Refresh(ctx, refresh)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.NoError(t, uc.Logout(ctx, ""))
}

func TestChangePassword(t *testing.T) {
	uc, _, _ := newTestUsecase(t)
	ctx := context.Background()
	rec, _, _, err := uc.Register(ctx, "alice", "hunter22")
	require.NoError(t, err)

	assert.ErrorIs(t, uc.ChangePassword(ctx, rec.ID, "hunter22", "short"), ErrWeakPassword)
	assert.ErrorIs(t, uc.ChangePassword(ctx, rec.ID, "wrongpass", "newsecret"), ErrInvalidCredentials)

	require.NoError(t, uc.ChangePassword(ctx, rec.ID, "hunter22", "newsecret"))
	_, _, _, err = uc.Login(ctx, "alice", "newsecret")
	require.NoError(t, err)
	_, _, _, err = uc.Login(ctx, "alice", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDeleteAccount(t *testing.T) {
	uc, _, _ := newTestUsecase(t)
	ctx := context.Background()
	rec, _, refresh, err := uc.Register(ctx, "alice", "hunter22")
	require.NoError(t, err)

	require.NoError(t, uc.DeleteAccount(ctx, rec.ID))

	_, _, _, err = uc.Login(ctx, "alice", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = uc.Refresh(ctx, refresh)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestHashTokenIsDeterministic(t *testing.T) {
	a := HashToken("raw-value")
	b := HashToken("raw-value")
	c := HashToken("other-value")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, "raw-value", a)
}
