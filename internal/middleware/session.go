package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/miltonisblurrd/noLuckyDays/internal/gate"
)

const sessionCookieName = "NLD_SESSION"

// SessionData is the durable per-browser state: the gate unlock flag and
// method, the cart identifier written on cart creation, and the CSRF token.
// It substitutes for what the browser build kept in local storage; the cookie
// is single-writer per tab, and two tabs racing on it have undefined
// precedence.
type SessionData struct {
	ID           string    `json:"id"`
	GateUnlocked bool      `json:"gateUnlocked,omitempty"`
	GateMethod   string    `json:"gateMethod,omitempty"`
	CartID       string    `json:"cartId,omitempty"`
	CSRFToken    string    `json:"csrf,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	// internal dirty flag; not serialized
	dirty bool `json:"-"`
}

var sessionSignKey []byte
var sessionSecure bool

// ConfigureSessions sets the cookie signing key and Secure flag. An empty key
// generates a process-ephemeral one, which invalidates sessions on restart
// and is only acceptable in development.
func ConfigureSessions(signingKey string, secure bool) {
	sessionSecure = secure
	if key := strings.TrimSpace(signingKey); key != "" {
		sessionSignKey = []byte(key)
		return
	}
	sessionSignKey = make([]byte, 32)
	if _, err := rand.Read(sessionSignKey); err != nil {
		log.Printf("session: failed to generate signing key: %v", err)
		sessionSignKey = []byte("insecure-dev-key-please-set-SESSION_SIGNING_KEY")
	}
	log.Printf("session: using ephemeral signing key (dev). Set SESSION_SIGNING_KEY for production.")
}

// Session loads or initializes the signed session and stores it in the
// request context. The cookie is written just before the first response byte
// whenever the session was created or mutated.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, fromCookie := readSessionCookie(r)
		if sd.ID == "" {
			sd.ID = ulid.Make().String()
			sd.CreatedAt = time.Now().UTC()
			sd.UpdatedAt = sd.CreatedAt
			sd.CSRFToken = newCSRFToken()
			sd.dirty = true
		}
		ctx := context.WithValue(r.Context(), ctxKeySession, sd)
		rw := NewResponseRecorder(w)
		rw.SetBeforeWrite(func(w http.ResponseWriter) {
			if sd.dirty || !fromCookie {
				writeSessionCookie(w, sd)
			}
		})
		next.ServeHTTP(rw, r.WithContext(ctx))
		// nothing written (e.g. HEAD): persist the cookie now
		if !rw.Wrote() && (sd.dirty || !fromCookie) {
			writeSessionCookie(w, sd)
		}
	})
}

// GetSession returns the session attached to the request.
func GetSession(r *http.Request) *SessionData {
	if v := r.Context().Value(ctxKeySession); v != nil {
		if sd, ok := v.(*SessionData); ok {
			return sd
		}
	}
	return &SessionData{}
}

// MarkDirty flags the session for writing at the end of the request.
func (s *SessionData) MarkDirty() { s.dirty = true; s.UpdatedAt = time.Now().UTC() }

// SetCartID records the commerce cart identifier. It is written on cart
// creation and deliberately never read back to rehydrate a cart on page load.
func (s *SessionData) SetCartID(id string) {
	if s.CartID == id {
		return
	}
	s.CartID = id
	s.MarkDirty()
}

// GateStore exposes the session's unlock state through the gate.Store
// capability so the gate package never touches cookies directly.
func (s *SessionData) GateStore() gate.Store { return (*sessionGateStore)(s) }

type sessionGateStore SessionData

func (g *sessionGateStore) Unlocked() (bool, gate.Method) {
	return g.GateUnlocked, gate.Method(g.GateMethod)
}

func (g *sessionGateStore) SetUnlocked(m gate.Method) {
	s := (*SessionData)(g)
	s.GateUnlocked = true
	s.GateMethod = string(m)
	s.MarkDirty()
}

func (g *sessionGateStore) Clear() {
	s := (*SessionData)(g)
	s.GateUnlocked = false
	s.GateMethod = ""
	s.MarkDirty()
}

// readSessionCookie parses and verifies the signed session cookie.
func readSessionCookie(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return &SessionData{}, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 2 {
		return &SessionData{}, false
	}
	payloadB, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return &SessionData{}, false
	}
	sigB, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return &SessionData{}, false
	}
	mac := hmac.New(sha256.New, sessionSignKey)
	mac.Write(payloadB)
	if !hmac.Equal(sigB, mac.Sum(nil)) {
		return &SessionData{}, false
	}
	var sd SessionData
	if err := json.Unmarshal(payloadB, &sd); err != nil {
		return &SessionData{}, false
	}
	return &sd, true
}

func writeSessionCookie(w http.ResponseWriter, sd *SessionData) {
	b, _ := json.Marshal(sd)
	payload := base64.RawURLEncoding.EncodeToString(b)
	mac := hmac.New(sha256.New, sessionSignKey)
	mac.Write(b)
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    payload + "." + sig,
		Path:     "/",
		HttpOnly: true,
		Secure:   sessionSecure,
		SameSite: http.SameSiteLaxMode,
		// the unlock flag has no expiry of its own; a long-lived cookie
		// stands in for "until storage is cleared"
		Expires: time.Now().Add(365 * 24 * time.Hour),
	})
}
