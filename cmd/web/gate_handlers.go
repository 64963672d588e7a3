package main

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/miltonisblurrd/noLuckyDays/internal/gate"
	mw "github.com/miltonisblurrd/noLuckyDays/internal/middleware"
)

const (
	msgMissingSignup = "Please enter both email and phone number"
	msgInvalidEmail  = "Please enter a valid email address"
	msgSignupThanks  = "Thank you for signing up! You will receive a text with the password for early access."
	msgEmptyPassword = "Please enter a password"
	msgWrongPassword = "Invalid password. Please try again."
)

// GateSignupHandler processes the lock screen's signup form. A successful
// signup shows a confirmation and clears the form but never unlocks the
// gate; the password arrives out of band via SMS.
func GateSignupHandler(w http.ResponseWriter, r *http.Request) {
	sess := mw.GetSession(r)
	if sess.GateUnlocked {
		redirectHome(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	phone := strings.TrimSpace(r.PostFormValue("phone"))

	view := gateView{
		Mode:               gate.ModeSignup,
		PasswordConfigured: passwordConfigured(r),
		CSRFToken:          sess.CSRFToken,
		Email:              email,
		Phone:              phone,
	}
	switch {
	case email == "" || phone == "":
		view.Error = msgMissingSignup
	case !strings.Contains(email, "@"):
		view.Error = msgInvalidEmail
	default:
		forwardSubscriber(r, email, phone)
		view.Success = msgSignupThanks
		view.Email, view.Phone = "", ""
	}
	renderGate(w, r, view)
}

// GatePasswordHandler checks the submitted password against the shop's
// configured gate password and persists the unlock on a match.
func GatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	sess := mw.GetSession(r)
	if sess.GateUnlocked {
		redirectHome(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	password := r.PostFormValue("password")

	_, shop, ok := fetchProduct(w, r)
	if !ok {
		return
	}
	keeper := gate.New(shop.GateEnabled, shop.GatePassword)
	err := keeper.SubmitPassword(sess.GateStore(), password)
	if err == nil {
		redirectHome(w, r)
		return
	}

	view := gateView{
		Mode:               gate.ModePassword,
		PasswordConfigured: keeper.PasswordConfigured(),
		CSRFToken:          sess.CSRFToken,
	}
	switch {
	case errors.Is(err, gate.ErrEmptyPassword):
		view.Error = msgEmptyPassword
	default:
		view.Error = msgWrongPassword
	}
	renderGate(w, r, view)
}

// forwardSubscriber pushes the signup to the contacts API, swallowing every
// failure: a marketing outage must never block the signup flow.
func forwardSubscriber(r *http.Request, email, phone string) {
	if !contactsClient.Configured() {
		logger.Warn("marketing api key not configured; signup acknowledged without forwarding")
		return
	}
	if err := contactsClient.Upsert(r.Context(), email, phone); err != nil {
		logger.Error("contacts upsert", zap.Error(err))
	}
}

// passwordConfigured re-reads the shop config so the toggle state survives a
// signup submission; a fetch failure just hides the toggle for this render.
func passwordConfigured(r *http.Request) bool {
	if !storeClient.Configured() {
		return false
	}
	_, shop, err := storeClient.Product(r.Context(), cfg.ProductHandle)
	if err != nil {
		logger.Warn("fetch shop config", zap.Error(err))
		return false
	}
	return shop.GatePassword != ""
}

func renderGate(w http.ResponseWriter, r *http.Request, view gateView) {
	if mw.IsHTMX(r.Context()) {
		renderFrag(w, r, "frag_gate_form", view)
		return
	}
	renderPage(w, r, "gate", pageData{
		Title:     "Early Access",
		CSRFToken: view.CSRFToken,
		Gate:      &view,
	})
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	if mw.IsHTMX(r.Context()) {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
