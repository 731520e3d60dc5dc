package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vinnieai/vinnie/internal/i18n"
	"github.com/vinnieai/vinnie/internal/identity"
)

// maxAuthBodyBytes bounds register/login request bodies.
const maxAuthBodyBytes = 1 << 20

type authHandler struct {
	resolver      *identity.Resolver
	defaultLocale string
	isDev         bool
	logger        *slog.Logger
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var creds credentials
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBodyBytes))
	if err := dec.Decode(&creds); err != nil {
		return credentials{}, false
	}
	return creds, true
}

// register upgrades the caller's anonymous record in place: same id, same
// history, now with a username and credential attached.
func (h *authHandler) register(w http.ResponseWriter, r *http.Request) {
	locale := localeFrom(r, h.defaultLocale)

	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusInternalServerError, "no_identity", "request has no resolved identity", h.logger)
		return
	}

	creds, ok := decodeCredentials(w, r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "invalid_body", "could not parse credentials", h.logger)
		return
	}

	upgraded, err := h.resolver.Register(r.Context(), user, creds.Username, creds.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrDuplicateIdentity):
			WriteError(w, http.StatusConflict, "duplicate_username", i18n.T(locale, "auth.duplicate_user"), h.logger)
		case errors.Is(err, identity.ErrAlreadyRegistered):
			WriteError(w, http.StatusConflict, "already_registered", "account is already registered", h.logger)
		case errors.Is(err, identity.ErrInvalidCredential):
			WriteError(w, http.StatusBadRequest, "invalid_credentials", i18n.T(locale, "auth.invalid_credentials"), h.logger)
		default:
			h.logger.Error("registering user", "user_id", user.ID, "error", err)
			WriteError(w, http.StatusInternalServerError, "register_failed", "could not register", h.logger)
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"message":  i18n.Sprintf(locale, "auth.registered", upgraded.Username),
		"username": upgraded.Username,
	}, h.logger)
}

// login authenticates a registered user and rebinds the browser to that
// user's session token. Unknown usernames and wrong passwords are
// indistinguishable in the response.
func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	locale := localeFrom(r, h.defaultLocale)

	creds, ok := decodeCredentials(w, r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "invalid_body", "could not parse credentials", h.logger)
		return
	}

	user, err := h.resolver.Authenticate(r.Context(), creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredential) {
			WriteError(w, http.StatusUnauthorized, "invalid_credentials", i18n.T(locale, "auth.invalid_credentials"), h.logger)
			return
		}
		h.logger.Error("authenticating user", "error", err)
		WriteError(w, http.StatusInternalServerError, "login_failed", "could not log in", h.logger)
		return
	}

	setSessionCookie(w, user.SessionToken, h.isDev)
	WriteJSON(w, http.StatusOK, map[string]any{
		"message":  i18n.Sprintf(locale, "auth.logged_in", user.Username),
		"username": user.Username,
	}, h.logger)
}

// logout drops the browser's session binding. The next request mints a
// fresh anonymous identity.
func (h *authHandler) logout(w http.ResponseWriter, r *http.Request) {
	locale := localeFrom(r, h.defaultLocale)
	clearSessionCookie(w)
	WriteJSON(w, http.StatusOK, map[string]string{
		"message": i18n.T(locale, "auth.logged_out"),
	}, h.logger)
}
