package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tonic56/crypto-market-watch/lib/errs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session is the signed-in state every gated action reads.
type Session struct {
	UserID   uuid.UUID `json:"userId"`
	Name     string    `json:"name"`
	LoggedIn bool      `json:"loggedIn"`
}

// Anonymous is the session of a visitor who has not signed in.
var Anonymous = Session{}

func New(userID uuid.UUID, name string) Session {
	return Session{UserID: userID, Name: name, LoggedIn: true}
}

func (s Session) SignedIn() bool {
	return s.LoggedIn && s.UserID != uuid.Nil
}

// Require returns errs.ErrNotSignedIn unless the session is signed in.
func (s Session) Require() error {
	if !s.SignedIn() {
		return errs.ErrNotSignedIn
	}
	return nil
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(ctxKey{}).(Session); ok {
		return s
	}
	return Anonymous
}

// Issuer signs and verifies session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(s Session) (string, error) {
	const op = "session.Issuer.Issue"

	if err := s.Require(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	now := i.now()
	claims := jwt.MapClaims{
		"sub":  s.UserID.String(),
		"name": s.Name,
		"exp":  now.Add(i.ttl).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("%s: failed to sign token: %w", op, err)
	}

	return signed, nil
}

var ErrInvalidToken = errors.New("invalid token")

func (i *Issuer) Parse(tokenString string) (Session, error) {
	const op = "session.Issuer.Parse"

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		return Anonymous, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Anonymous, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return Anonymous, fmt.Errorf("%s: %w: missing sub", op, ErrInvalidToken)
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return Anonymous, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}

	name, _ := claims["name"].(string)

	return New(userID, name), nil
}
