package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/vigilhq/vigil/internal/domain/auth"
	"github.com/vigilhq/vigil/internal/domain/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

const minPasswordLen = 6

type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

type Usecase struct {
	users user.Repo
	rt    domainauth.RefreshTokenRepo
	cfg   Config
}

func NewUsecase(users user.Repo, rt domainauth.RefreshTokenRepo, cfg Config) *Usecase {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Usecase{users: users, rt: rt, cfg: cfg}
}

// Register creates the account and signs the caller in. The first couple of
// accounts become admins so a fresh install can be administered without
// seeding the database by hand.
func (u *Usecase) Register(ctx context.Context, username, password string) (*user.User, string, string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, "", "", ErrInvalidCredentials
	}
	if len(password) < minPasswordLen {
		return nil, "", "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", fmt.Errorf("hash password: %w", err)
	}

	// A failed count must not silently demote an admin-bootstrap account.
	n, err := u.users.Count(ctx)
	if err != nil {
		return nil, "", "", fmt.Errorf("count users: %w", err)
	}
	role := user.RoleUser
	if n < user.AdminBootstrapSeats {
		role = user.RoleAdmin
	}

	rec := &user.User{Username: username, Password: string(hash), Role: role}
	if err := u.users.Create(ctx, rec); err != nil {
		if errors.Is(err, user.ErrExists) {
			return nil, "", "", ErrUsernameTaken
		}
		return nil, "", "", err
	}

	access, refresh, err := u.issueTokens(ctx, rec)
	if err != nil {
		return nil, "", "", err
	}
	return rec, access, refresh, nil
}

func (u *Usecase) Login(ctx context.Context, username, password string) (*user.User, string, string, error) {
	rec, err := u.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.Password), []byte(password)) != nil {
		return nil, "", "", ErrInvalidCredentials
	}
	access, refresh, err := u.issueTokens(ctx, rec)
	if err != nil {
		return nil, "", "", err
	}
	return rec, access, refresh, nil
}

// Refresh rotates the refresh token: the presented one is revoked whether or
// not issuing its replacement succeeds.
func (u *Usecase) Refresh(ctx context.Context, raw string) (string, string, error) {
	if raw == "" {
		return "", "", ErrInvalidCredentials
	}
	rec, err := u.rt.FindValid(ctx, HashToken(raw))
	if err != nil {
		return "", "", ErrInvalidCredentials
	}
	if err := u.rt.Revoke(ctx, rec.TokenHash); err != nil {
		return "", "", err
	}
	usr, err := u.users.GetByID(ctx, rec.UserID)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}
	return u.issueTokens(ctx, usr)
}

func (u *Usecase) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return u.rt.Revoke(ctx, HashToken(raw))
}

func (u *Usecase) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if len(next) < minPasswordLen {
		return ErrWeakPassword
	}
	rec, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.Password), []byte(current)) != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return u.users.UpdatePassword(ctx, userID, string(hash))
}

// DeleteAccount removes the user and kills every outstanding session.
func (u *Usecase) DeleteAccount(ctx context.Context, userID int64) error {
	if err := u.rt.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}
	return u.users.Delete(ctx, userID)
}

func (u *Usecase) GetUser(ctx context.Context, userID int64) (*user.User, error) {
	return u.users.GetByID(ctx, userID)
}

// Identity is what an access token proves about its bearer.
type Identity struct {
	UserID   int64
	Username string
	Role     string
}

func (id Identity) AsUser() *user.User {
	return &user.User{ID: id.UserID, Username: id.Username, Role: id.Role}
}

func (u *Usecase) ParseAccess(token string) (Identity, error) {
	claims, err := parseAccess(token, u.cfg.Secret)
	if err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{UserID: id, Username: claims.Username, Role: claims.Role}, nil
}

func (u *Usecase) AccessTTL() time.Duration  { return u.cfg.AccessTTL }
func (u *Usecase) RefreshTTL() time.Duration { return u.cfg.RefreshTTL }

func (u *Usecase) issueTokens(ctx context.Context, rec *user.User) (string, string, error) {
	now := u.cfg.Now()
	access, err := signAccess(rec.ID, rec.Username, rec.Role, u.cfg.Secret, now, u.cfg.AccessTTL)
	if err != nil {
		return "", "", fmt.Errorf("sign access: %w", err)
	}
	refreshRaw, err := generateRawToken(32)
	if err != nil {
		return "", "", fmt.Errorf("gen refresh: %w", err)
	}
	rt := &domainauth.RefreshToken{
		UserID:    rec.ID,
		TokenHash: HashToken(refreshRaw),
		IssuedAt:  now,
		ExpiresAt: now.Add(u.cfg.RefreshTTL),
	}
	if err := u.rt.Create(ctx, rt); err != nil {
		return "", "", fmt.Errorf("save refresh: %w", err)
	}
	return access, refreshRaw, nil
}
