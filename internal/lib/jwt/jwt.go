package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the shortest HMAC secret the issuer accepts.
const MinSecretLength = 16

var (
	ErrMalformed    = errors.New("token is malformed")
	ErrBadSignature = errors.New("token signature is invalid")
	ErrExpired      = errors.New("token is expired")
	ErrWeakSecret   = errors.New("token secret is too short")
)

// Claims binds a token to the user it was issued for.
type Claims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies HS256 access tokens with a secret fixed for its lifetime.
type Issuer struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

type Option func(*Issuer)

// WithClock replaces time.Now for both issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

func NewIssuer(secret string, opts ...Option) (*Issuer, error) {
	const op = "jwt.NewIssuer"

	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%s: %w", op, ErrWeakSecret)
	}

	i := &Issuer{
		secret: []byte(secret),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(i)
	}

	i.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)

	return i, nil
}

func (i *Issuer) Issue(userID int64, email string, ttl time.Duration) (string, error) {
	const op = "jwt.Issue"

	now := i.now()

	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// Verify checks the signature first and the expiry second, so a tampered expired token
// reports ErrBadSignature.
func (i *Issuer) Verify(tokenStr string) (Claims, error) {
	const op = "jwt.Verify"

	var claims Claims

	_, err := i.parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%s: %w", op, classify(err))
	}

	if claims.UserID == 0 || claims.Email == "" {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrMalformed)
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformed
	}
}
