package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const refreshTokenBytes = 32

var ErrInvalidToken = errors.New("invalid token")

// Claims is the access-token payload: the login (mirrored in sub) and one
// entry per held role.
type Claims struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims grant any of roles.
func (c *Claims) HasRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(c.Roles, r) {
			return true
		}
	}
	return false
}

type JWTer struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
	Leeway   time.Duration

	now func() time.Time
}

func (j *JWTer) clock() time.Time {
	if j.now != nil {
		return j.now()
	}
	return time.Now()
}

// IssueAccessToken signs a fresh HS256 token for name/roles. Registered
// claims are always regenerated, so claims taken from an older token only
// contribute identity and roles.
func (j *JWTer) IssueAccessToken(name string, roles []string) (string, error) {
	now := j.clock()
	claims := Claims{
		Name:  name,
		Roles: append([]string(nil), roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name,
			Issuer:    j.Issuer,
			Audience:  jwt.ClaimStrings{j.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// IssueRefreshToken returns 32 random bytes, base64 encoded. Uniqueness is
// not checked against stored values.
func IssueRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (j *JWTer) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method != jwt.SigningMethodHS256 {
		return nil, fmt.Errorf("unexpected alg %v", token.Header["alg"])
	}
	return j.Secret, nil
}

// Parse fully validates tokenStr, expiry included.
func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, j.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.Issuer),
		jwt.WithAudience(j.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(j.Leeway),
		jwt.WithTimeFunc(j.clock),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, ErrInvalidToken
}

// ValidateExpiredToken checks algorithm, signature, issuer and audience but
// accepts a token whose lifetime has elapsed. It exists only for the refresh
// exchange.
func (j *JWTer) ValidateExpiredToken(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, j.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, ErrInvalidToken
	}
	if c.Issuer != j.Issuer {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if !slices.Contains(c.Audience, j.Audience) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}
	if c.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidToken)
	}
	return c, nil
}
