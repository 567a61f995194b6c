package identity

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/backend-keranjang/internal/common"
)

var (
	// ErrInvalidActorID indicates the authenticated actor carries an unusable id.
	ErrInvalidActorID = errors.New("identity: actor id is not a valid scalar")
	// ErrNoActor indicates neither a user nor a session token is present.
	ErrNoActor = errors.New("identity: no actor on context")
)

const (
	userPrefix      = "user_"
	anonymousPrefix = "anonymous_"
	tokenLength     = 22
	tokenAlphabet   = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Resolver derives the stable cart identifier for the current actor. Logged-in
// users map deterministically from their user id; anonymous visitors get a
// random identifier bound to their session token on first access.
type Resolver struct {
	Sessions SessionStore
}

// Resolve returns the cart identifier for the actor on the context. For an
// anonymous actor the session store is written at most once, on the first
// access for a given session token.
func (r Resolver) Resolve(ctx context.Context) (string, error) {
	if userID, ok := common.UserID(ctx); ok {
		if strings.TrimSpace(userID) == "" {
			return "", ErrInvalidActorID
		}
		return UserIdentifier(userID), nil
	}

	token, ok := common.SessionToken(ctx)
	if !ok || token == "" {
		return "", ErrNoActor
	}
	if r.Sessions == nil {
		return "", errors.New("identity: session store not configured")
	}
	hash, err := r.Sessions.Hash(ctx, token)
	if err != nil {
		return "", fmt.Errorf("identity: read session: %w", err)
	}
	if hash != "" {
		return hash, nil
	}
	random, err := randomToken(tokenLength)
	if err != nil {
		return "", fmt.Errorf("identity: generate token: %w", err)
	}
	hash = anonymousPrefix + random
	if err := r.Sessions.SetHash(ctx, token, hash); err != nil {
		return "", fmt.Errorf("identity: store session: %w", err)
	}
	return hash, nil
}

// UserIdentifier derives the deterministic identifier for a user id.
func UserIdentifier(userID string) string {
	sum := md5.Sum([]byte(userID))
	return userPrefix + hex.EncodeToString(sum[:])[:27]
}

func randomToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}
