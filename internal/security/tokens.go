package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures. Verify classifies every failure into exactly one of
// these; callers that must not leak validation internals collapse them into a
// single response.
var (
	// ErrTokenMalformed is returned when a token cannot be decoded at all.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenSignatureInvalid is returned when the signature does not verify.
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	// ErrTokenExpired is returned when the token's exp is in the past.
	ErrTokenExpired = errors.New("token expired")
)

// Claims holds the signed assertions carried by an access token: subject
// (stringified user id), role, issued-at, and expiry.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// UserID parses the subject claim as a user id. Returns an error if the
// subject is absent or not an integer.
func (c *Claims) UserID() (int64, error) {
	if c.Subject == "" {
		return 0, errors.New("missing subject claim")
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject claim: %w", err)
	}
	return id, nil
}

// TokenProvider issues and verifies self-contained access tokens signed with
// a symmetric secret (HS256, HS384, or HS512). Verification is stateless:
// validity is determined solely by signature and expiry against the local
// wall clock, with no skew tolerance.
type TokenProvider struct {
	secret     []byte
	method     jwt.SigningMethod
	defaultTTL time.Duration
	nowF       func() time.Time
}

// NewTokenProvider returns a TokenProvider signing with secret using the
// given algorithm name. defaultTTL is used by Issue when the caller passes a
// zero ttl.
func NewTokenProvider(secret []byte, algorithm string, defaultTTL time.Duration) (*TokenProvider, error) {
	if len(secret) == 0 {
		return nil, errors.New("token provider: secret must not be empty")
	}
	var method jwt.SigningMethod
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("token provider: unsupported algorithm %q", algorithm)
	}
	if defaultTTL <= 0 {
		return nil, errors.New("token provider: default TTL must be positive")
	}
	return &TokenProvider{
		secret:     secret,
		method:     method,
		defaultTTL: defaultTTL,
		nowF:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Issue signs a token for the given subject id and role. ttl 0 means the
// provider's default. Returns the encoded token and its expiry.
func (p *TokenProvider) Issue(subjectID int64, role string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = p.defaultTTL
	}
	now := p.nowF()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: role,
	}
	token, err := jwt.NewWithClaims(p.method, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify decodes the token and checks its signature and expiry. On success it
// returns the claims; on failure, exactly one of ErrTokenMalformed,
// ErrTokenSignatureInvalid, or ErrTokenExpired.
func (p *TokenProvider) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{p.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.nowF),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		default:
			return nil, ErrTokenMalformed
		}
	}
	return claims, nil
}
