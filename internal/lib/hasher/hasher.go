package hasher

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type Algorithm string

const (
	Bcrypt   Algorithm = "bcrypt"
	Argon2id Algorithm = "argon2id"
)

// bcrypt only looks at the first 72 bytes; longer input is rejected instead of truncated.
const maxBcryptPasswordLength = 72

var (
	ErrPasswordTooLong    = errors.New("password is too long")
	ErrUnknownAlgorithm   = errors.New("unknown hash algorithm")
	ErrInvalidBcryptCost  = errors.New("invalid bcrypt cost")
	ErrInvalidArgonParams = errors.New("invalid argon2 parameters")
)

type Params struct {
	Algorithm  Algorithm
	BcryptCost int
	Argon2     Argon2Params
}

// Hasher produces salted one-way digests. New digests use the configured algorithm,
// verification recognises every supported format.
type Hasher struct {
	params Params
}

func New(params Params) (*Hasher, error) {
	const op = "hasher.New"

	switch params.Algorithm {
	case Bcrypt:
		if params.BcryptCost < bcrypt.MinCost || params.BcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("%s: %w: %d", op, ErrInvalidBcryptCost, params.BcryptCost)
		}
	case Argon2id:
		if err := params.Argon2.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	default:
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownAlgorithm, params.Algorithm)
	}

	return &Hasher{params: params}, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	const op = "hasher.Hash"

	if h.params.Algorithm == Argon2id {
		digest, err := hashArgon2(password, h.params.Argon2)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return digest, nil
	}

	if len(password) > maxBcryptPasswordLength {
		return "", fmt.Errorf("%s: %w", op, ErrPasswordTooLong)
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.params.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(digest), nil
}

// Verify reports whether password matches digest. It never returns an error:
// an unreadable digest simply does not match.
func (h *Hasher) Verify(password, digest string) bool {
	if strings.HasPrefix(digest, argon2Prefix) {
		return verifyArgon2(password, digest)
	}

	// bcrypt ignores everything past 72 bytes, so a longer candidate could
	// match the hash of its own prefix.
	if len(password) > maxBcryptPasswordLength {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
