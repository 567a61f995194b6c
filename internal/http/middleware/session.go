package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-keranjang/internal/common"
)

// SessionHeader carries the anonymous cart session token. Clients echo the
// value back on every request; the server mints one when it is absent.
const SessionHeader = "X-Cart-Session"

// CartSession attaches the session token from the request header to the
// context, minting a fresh token when the client sends none. The token is
// always reflected on the response so storefronts can persist it.
func CartSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get(SessionHeader))
		if token == "" {
			minted, err := mintSessionToken()
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			token = minted
		}
		w.Header().Set(SessionHeader, token)
		next.ServeHTTP(w, r.WithContext(common.WithSessionToken(r.Context(), token)))
	})
}

func mintSessionToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
