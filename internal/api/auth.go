package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload searchd issues and accepts. Scope is carried
// through re-issuance untouched.
type Claims struct {
	Scope []string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// parseToken verifies raw against the configured secret. With allowExpired
// the expiry claim is ignored so a stale token can still be exchanged at the
// token endpoint; the signature and audience are always enforced.
func (s *Server) parseToken(raw string, allowExpired bool) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if allowExpired {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.Secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	if err := s.checkAudience(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Server) checkAudience(claims *Claims) error {
	if len(s.cfg.JWT.Audience) == 0 {
		return nil
	}
	for _, want := range s.cfg.JWT.Audience {
		for _, got := range claims.Audience {
			if got == want {
				return nil
			}
		}
	}
	return fmt.Errorf("token audience not accepted")
}

// issueToken signs a fresh token carrying the subject, audience, and scope
// of the presented claims with a new expiry window.
func (s *Server) issueToken(claims *Claims) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(s.cfg.JWT.TTL)

	fresh := &Claims{
		Scope: claims.Scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "searchd",
			Subject:   claims.Subject,
			Audience:  claims.Audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, fresh).
		SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}
