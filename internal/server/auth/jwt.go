// Package auth issues and verifies the signed session tokens handed out on
// login. Tokens are HS256 JWTs; nothing about them is stored server-side, so
// a token stays valid until it expires.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/financa/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMissingSigningKey is returned by NewIssuer for an empty key.
	ErrMissingSigningKey = errors.New("token signing key is empty")
	// ErrInvalidTTL is returned by NewIssuer for a zero or negative TTL.
	ErrInvalidTTL = errors.New("token ttl must be positive")
)

// Claims is the claim set embedded in a session token: the registered
// claims (sub, iss, aud, exp, iat, jti) plus the subject's email and name.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UserID returns the numeric subject id.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Subject identifies the user a token is issued for.
type Subject struct {
	ID    int64
	Email string
	Name  string
}

// IssuerConfig configures an Issuer. Now defaults to time.Now.
type IssuerConfig struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	TTL        time.Duration
	Leeway     time.Duration
	Now        func() time.Time
}

// Issuer signs new tokens and checks presented ones. It is immutable after
// construction and safe for concurrent use.
type Issuer struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
	now      func() time.Time
}

// NewIssuer validates cfg and returns an Issuer holding a copy of the key.
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	if cfg.TTL <= 0 {
		return nil, ErrInvalidTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	key := make([]byte, len(cfg.SigningKey))
	copy(key, cfg.SigningKey)

	return &Issuer{
		key:      key,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		leeway:   cfg.Leeway,
		now:      now,
	}, nil
}

// Issue returns a signed token for s that expires TTL after now.
func (i *Issuer) Issue(s Subject) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(s.ID, 10),
			Issuer:    i.issuer,
			Audience:  audience(i.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
		Email: s.Email,
		Name:  s.Name,
	})

	tokenString, err := token.SignedString(i.key)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Parse verifies tokenString and returns its claims. A token is accepted iff
// it is signed with HS256 under the issuer's key, carries the configured
// issuer and audience, and has not expired (allowing for the leeway).
// Expired tokens yield common.ErrTokenExpired; anything else that fails
// yields common.ErrInvalidToken.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(i.leeway),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	if i.audience != "" {
		opts = append(opts, jwt.WithAudience(i.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	if _, err := claims.UserID(); err != nil {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

func audience(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
