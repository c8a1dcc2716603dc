package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
)

const sessionCookieName = "displayquote_session"

type sessionIDKey struct{}

// cookieSigner binds session ids to the server secret so a client cannot
// guess its way into another configurator session.
type cookieSigner struct {
	secret []byte
	secure bool
}

func newCookieSigner(secret string, secure bool) *cookieSigner {
	return &cookieSigner{secret: []byte(secret), secure: secure}
}

func (c *cookieSigner) sign(sessionID string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(sessionID))
	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))
	return payload + "." + signature
}

func (c *cookieSigner) verify(value string) (string, bool) {
	payload, signature, ok := strings.Cut(value, ".")
	if !ok {
		return "", false
	}

	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write([]byte(payload))
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(provided, expected) {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil || len(decoded) == 0 {
		return "", false
	}
	return string(decoded), true
}

func (c *cookieSigner) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    c.sign(sessionID),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *cookieSigner) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionID returns the verified session id carried by the request cookie.
func (c *cookieSigner) sessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", false
	}
	return c.verify(cookie.Value)
}

// requireSession rejects requests without a valid session cookie and stores
// the id in the request context.
func (s *server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.cookies.sessionID(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "no configurator session"})
			return
		}
		ctx := context.WithValue(r.Context(), sessionIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}
