// Package gate implements the early-access lock that blocks the product page
// until a visitor either signs up or enters the configured password. Unlock
// state lives behind a small Store capability so callers can back it with a
// session cookie in the server and a plain map in tests.
package gate

import "errors"

// Method records how a visitor got through the gate.
type Method string

const (
	// MethodPassword means the visitor entered the configured password.
	MethodPassword Method = "password"
	// MethodSignup is reserved for flows that unlock on signup. The current
	// gate keeps signups locked until a password arrives out of band, so the
	// value is stored only if an operator unlocks elsewhere.
	MethodSignup Method = "signup"
)

// Mode selects which lock-screen form is shown.
type Mode string

const (
	ModeSignup   Mode = "signup"
	ModePassword Mode = "password"
)

// Store is the persisted unlock flag. Once set, the gate never reappears for
// that browser until the store is cleared.
type Store interface {
	Unlocked() (bool, Method)
	SetUnlocked(Method)
	Clear()
}

var (
	// ErrEmptyPassword is returned for a blank submission; no comparison is made.
	ErrEmptyPassword = errors.New("gate: empty password")
	// ErrWrongPassword is returned when the submission does not match.
	ErrWrongPassword = errors.New("gate: wrong password")
)

// Keeper evaluates the gate against the shop's configuration for one page view.
type Keeper struct {
	enabled  bool
	password string
}

// New builds a Keeper from the shop's gate-enabled flag and gate password.
func New(enabled bool, password string) Keeper {
	return Keeper{enabled: enabled, password: password}
}

// Enabled reports whether the shop has the gate turned on at all.
func (k Keeper) Enabled() bool { return k.enabled }

// PasswordConfigured reports whether the password path exists. Without it the
// toggle is hidden and signup is the only (non-unlocking) path.
func (k Keeper) PasswordConfigured() bool { return k.password != "" }

// Locked reports whether the lock screen must be shown. A persisted unlock
// wins over any configuration; the gate is idempotent once opened.
func (k Keeper) Locked(store Store) bool {
	if !k.enabled {
		return false
	}
	unlocked, _ := store.Unlocked()
	return !unlocked
}

// ResolveMode maps a requested mode onto one the shop actually supports.
// Password mode is only reachable when a password is configured.
func (k Keeper) ResolveMode(requested string) Mode {
	if Mode(requested) == ModePassword && k.PasswordConfigured() {
		return ModePassword
	}
	return ModeSignup
}

// SubmitPassword compares the submission byte-for-byte against the configured
// password and persists the unlock on a match.
func (k Keeper) SubmitPassword(store Store, input string) error {
	if input == "" {
		return ErrEmptyPassword
	}
	if !k.PasswordConfigured() || input != k.password {
		return ErrWrongPassword
	}
	store.SetUnlocked(MethodPassword)
	return nil
}
