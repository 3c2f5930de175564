package adminauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// The HTTP surface hands browsers a signed bearer token so they have
// something to present on later requests. The token is not the session:
// privileged handlers re-check the persisted session on every call, which
// is what makes logout and lazy expiry take effect immediately.

type TokenClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// tokens outlive the session window on purpose: Extend can push the
// session past the original expiry without re-issuing, and the session
// re-check is what actually cuts access off.
const tokenValidity = 24 * time.Hour

// IssueToken signs a token for the given session.
func IssueToken(session *Session, jwtKey []byte) (string, error) {
	claims := &TokenClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.IssuedAt.Add(tokenValidity)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

func ValidateToken(tokenStr string, jwtKey []byte) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, errors.New("invalid token signature")
		}
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
