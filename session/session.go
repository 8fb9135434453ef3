// Package session exposes the identity the sync layer acts on behalf of.
// Authentication itself belongs to an external collaborator; this package
// only answers "which user, if any" at the moment a push or pull runs.
package session

import (
	"fmt"

	"github.com/form3tech-oss/jwt-go"
	"github.com/zalando/go-keyring"
)

// Session identifies the current user. While Guest is true, every push and
// pull in the sync layer is a no-op.
type Session struct {
	UserID string
	Guest  bool
}

// Source supplies the current session. Implementations must be safe for
// concurrent use; the write queue worker and the reconciler both consult it.
type Source interface {
	Current() Session
}

// Static is a fixed session source, used by tests and by hosts that manage
// identity themselves.
type Static struct {
	UserID string
	Guest  bool
}

// Current returns the configured session.
func (s Static) Current() Session {
	return Session{UserID: s.UserID, Guest: s.Guest}
}

// KeyringSource resolves the session from the signed auth token the auth
// collaborator stores in the OS keyring. An absent, malformed, or expired
// token yields a guest session rather than an error: offline-first operation
// must keep working locally whatever the token's state.
type KeyringSource struct {
	Service    string // keyring service name
	Key        string // keyring key holding the token
	SigningKey string // HMAC key the token was signed with
}

// Current extracts the user id from the keyring token.
func (k *KeyringSource) Current() Session {
	tokenStr, err := keyring.Get(k.Service, k.Key)
	if err != nil {
		return Session{Guest: true}
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(k.SigningKey), nil
	})
	if err != nil || !token.Valid {
		return Session{Guest: true}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{Guest: true}
	}

	userID, ok := claims["id"].(string)
	if !ok || userID == "" {
		return Session{Guest: true}
	}

	return Session{UserID: userID}
}
