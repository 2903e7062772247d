// Package auth implements the local credential check and the session
// boundary. The billing core never consults identity; this package only
// gates the HTTP surface.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/paintify/backend-paintify/internal/common"
	"github.com/paintify/backend-paintify/internal/store"
)

// AccountsKey is the KV entry holding the registered accounts document.
const AccountsKey = "paintify:accounts"

const accountsSchemaVersion = 1

const defaultAccessTTL = 12 * time.Hour

// Account is a registered operator. Only the argon2id hash of the password
// is ever persisted.
type Account struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

type accountsDocument struct {
	Version  int       `json:"version"`
	Accounts []Account `json:"accounts"`
}

// User is the safe subset of an account returned to clients.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session bundles the authenticated user with their access token.
type Session struct {
	User          User      `json:"user"`
	AccessToken   string    `json:"access_token"`
	AccessExpiry  time.Time `json:"access_expires_at"`
	Authenticated bool      `json:"isAuthenticated"`
}

// Service coordinates signup, login, and session token handling over the
// accounts document.
type Service struct {
	kv        store.KV
	secret    []byte
	accessTTL time.Duration
	issuer    string
	audience  string
	signer    jwa.SignatureAlgorithm
	now       func() time.Time

	mu       sync.Mutex
	accounts []Account
	loaded   bool
}

// Config configures the auth service.
type Config struct {
	Store          store.KV
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("auth: store is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-paintify"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "paintify-console"
	}
	return &Service{
		kv:        cfg.Store,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		issuer:    issuer,
		audience:  audience,
		signer:    jwa.HS256,
		now:       time.Now,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Signup registers a new account and returns an authenticated session.
// Registering an email that already exists fails and leaves the stored
// account untouched.
func (s *Service) Signup(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Session{}, common.Validation("name is required", nil)
	}
	normalized := normalizeEmail(email)
	if normalized == "" {
		return Session{}, common.Validation("email is required", nil)
	}
	if len(password) < 8 {
		return Session{}, common.Validation("password must be at least 8 characters", nil)
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return Session{}, common.StorageFailure(err)
	}
	for _, acc := range s.accounts {
		if acc.Email == normalized {
			return Session{}, common.NewAppError(common.CodeEmailAlreadyUsed, "email is already registered", http.StatusConflict, nil)
		}
	}

	account := Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        normalized,
		PasswordHash: hash,
	}
	next := append(append([]Account{}, s.accounts...), account)
	if err := s.persistLocked(ctx, next); err != nil {
		return Session{}, common.StorageFailure(err)
	}
	return s.issueSession(account)
}

// Login verifies credentials and issues a session. Success requires a
// registered account matching both email and password.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	normalized := normalizeEmail(email)
	if normalized == "" || password == "" {
		return Session{}, invalidCredentials(nil)
	}

	s.mu.Lock()
	if err := s.loadLocked(ctx); err != nil {
		s.mu.Unlock()
		return Session{}, common.StorageFailure(err)
	}
	var found *Account
	for i := range s.accounts {
		if s.accounts[i].Email == normalized {
			found = &s.accounts[i]
			break
		}
	}
	var account Account
	if found != nil {
		account = *found
	}
	s.mu.Unlock()

	if found == nil {
		return Session{}, invalidCredentials(nil)
	}
	ok, err := argon2id.ComparePasswordAndHash(password, account.PasswordHash)
	if err != nil || !ok {
		return Session{}, invalidCredentials(err)
	}
	return s.issueSession(account)
}

// GetUser returns the safe account view for an id.
func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return User{}, common.StorageFailure(err)
	}
	for _, acc := range s.accounts {
		if acc.ID == id {
			return User{ID: acc.ID, Name: acc.Name, Email: acc.Email}, nil
		}
	}
	return User{}, common.NotFound("account not found")
}

// ParseAccessToken validates a token and returns the subject account id.
func (s *Service) ParseAccessToken(token string) (string, error) {
	parsed, err := jwt.Parse([]byte(token),
		jwt.WithKey(s.signer, s.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithClock(jwt.ClockFunc(s.now)),
	)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "missing or invalid token", http.StatusUnauthorized, err)
	}
	sub := parsed.Subject()
	if sub == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing or invalid token", http.StatusUnauthorized, nil)
	}
	return sub, nil
}

func (s *Service) issueSession(account Account) (Session, error) {
	now := s.now()
	expiry := now.Add(s.accessTTL)
	tok, err := jwt.NewBuilder().
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		Subject(account.ID).
		IssuedAt(now).
		Expiration(expiry).
		Build()
	if err != nil {
		return Session{}, fmt.Errorf("build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{
		User:          User{ID: account.ID, Name: account.Name, Email: account.Email},
		AccessToken:   string(signed),
		AccessExpiry:  expiry,
		Authenticated: true,
	}, nil
}

// loadLocked reads the accounts document on first use. Callers hold the lock.
func (s *Service) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	raw, err := s.kv.Load(ctx, AccountsKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		s.accounts = []Account{}
		s.loaded = true
		return nil
	}
	if err != nil {
		return err
	}
	var doc accountsDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("auth: decode accounts: %w", err)
	}
	if doc.Version != accountsSchemaVersion {
		return fmt.Errorf("auth: unsupported accounts version %d (want %d)", doc.Version, accountsSchemaVersion)
	}
	if doc.Accounts == nil {
		doc.Accounts = []Account{}
	}
	s.accounts = doc.Accounts
	s.loaded = true
	return nil
}

// persistLocked writes the accounts document through and swaps the in-memory
// list only on success. Callers hold the lock.
func (s *Service) persistLocked(ctx context.Context, next []Account) error {
	raw, err := json.Marshal(accountsDocument{Version: accountsSchemaVersion, Accounts: next})
	if err != nil {
		return fmt.Errorf("auth: encode accounts: %w", err)
	}
	if err := s.kv.Save(ctx, AccountsKey, raw); err != nil {
		return err
	}
	s.accounts = next
	return nil
}

func invalidCredentials(err error) *common.AppError {
	return common.NewAppError(common.CodeInvalidCredentials, "invalid email or password", http.StatusUnauthorized, err)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
