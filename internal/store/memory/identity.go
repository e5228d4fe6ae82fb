package memory

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"smartpurse/backend/internal/mailer"
	"smartpurse/backend/internal/store"
	"smartpurse/backend/internal/xid"
)

const resetAudience = "password-reset"

type identity struct {
	email        string
	passwordHash string
	createdAt    time.Time
}

type resetClaims struct {
	jwtlib.RegisteredClaims
	Email string `json:"email"`
}

// Identity is an in-process stand-in for the hosted auth service. Passwords
// are bcrypt hashed and recovery links carry an HS256 token that expires
// after one hour.
type Identity struct {
	mu       sync.RWMutex
	secret   []byte
	tokenTTL time.Duration
	mailer   mailer.Mailer
	byID     map[string]identity
	byEmail  map[string]string
	faults   *faults
}

func NewIdentity(secret string, m mailer.Mailer) *Identity {
	if secret == "" {
		secret = "dev-change-me"
	}
	if m == nil {
		m = mailer.LogMailer{}
	}
	return &Identity{
		secret:   []byte(secret),
		tokenTTL: time.Hour,
		mailer:   m,
		byID:     make(map[string]identity),
		byEmail:  make(map[string]string),
		faults:   newFaults(),
	}
}

func (i *Identity) FailNext(op string, err error) {
	i.faults.set(op, err)
}

func (i *Identity) CreateIdentity(_ context.Context, email string, password string) (string, error) {
	if err := i.faults.take("CreateIdentity"); err != nil {
		return "", err
	}
	email = normalizeEmail(email)
	if email == "" {
		return "", store.Mark(store.ErrInvalidInput, errors.New("Unable to validate email address: invalid format"))
	}
	if len(password) < 6 {
		return "", store.Mark(store.ErrInvalidInput, errors.New("Password should be at least 6 characters."))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if _, exists := i.byEmail[email]; exists {
		return "", store.Mark(store.ErrDuplicate, errors.New("A user with this email address has already been registered"))
	}
	id := xid.New()
	i.byID[id] = identity{email: email, passwordHash: string(hash), createdAt: time.Now().UTC()}
	i.byEmail[email] = id
	return id, nil
}

func (i *Identity) DeleteIdentity(_ context.Context, authUserID string) error {
	if err := i.faults.take("DeleteIdentity"); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	record, ok := i.byID[authUserID]
	if !ok {
		return store.Mark(store.ErrNotFound, errors.New("User not found"))
	}
	delete(i.byID, authUserID)
	delete(i.byEmail, record.email)
	return nil
}

// SendPasswordReset mails a recovery link for known addresses. Unknown
// addresses succeed silently so callers cannot probe for accounts.
func (i *Identity) SendPasswordReset(ctx context.Context, email string, redirectTo string) error {
	if err := i.faults.take("SendPasswordReset"); err != nil {
		return err
	}
	email = normalizeEmail(email)
	i.mu.RLock()
	id, ok := i.byEmail[email]
	i.mu.RUnlock()
	if !ok {
		return nil
	}

	token, err := i.signReset(id, email, time.Now().UTC().Add(i.tokenTTL))
	if err != nil {
		return err
	}
	link, err := recoveryLink(redirectTo, token)
	if err != nil {
		return err
	}
	return i.mailer.Send(ctx, mailer.Message{
		To:      email,
		Subject: "Reset your SmartPurse POS password",
		HTML: fmt.Sprintf(`<p>We received a request to reset your password.</p><p><a href="%s">Choose a new password</a></p><p>This link expires in one hour.</p>`,
			html.EscapeString(link)),
	})
}

// VerifyResetToken returns the auth user id a recovery token was issued for.
func (i *Identity) VerifyResetToken(token string) (string, error) {
	claims := &resetClaims{}
	parsed, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithAudience(resetAudience))
	if err != nil || !parsed.Valid {
		return "", errors.New("invalid or expired reset token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("invalid reset token subject")
	}
	return sub, nil
}

// CheckPassword reports whether password matches the identity's hash.
func (i *Identity) CheckPassword(email string, password string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	id, ok := i.byEmail[normalizeEmail(email)]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(i.byID[id].passwordHash), []byte(password)) == nil
}

// Exists reports whether an identity with the given id is still provisioned.
func (i *Identity) Exists(authUserID string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.byID[authUserID]
	return ok
}

func (i *Identity) signReset(id string, email string, expiresAt time.Time) (string, error) {
	claims := resetClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   id,
			Audience:  jwtlib.ClaimStrings{resetAudience},
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "smartpurse",
		},
		Email: email,
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(i.secret)
}

func recoveryLink(redirectTo string, token string) (string, error) {
	u, err := url.Parse(redirectTo)
	if err != nil {
		return "", fmt.Errorf("invalid redirect: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	q.Set("type", "recovery")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
