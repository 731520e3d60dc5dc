package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/vinnieai/vinnie/internal/i18n"
)

// localeCookieMaxAge keeps the language choice for a year.
const localeCookieMaxAge = 365 * 24 * 60 * 60

type langHandler struct {
	logger *slog.Logger
}

// set switches the caller's locale. Only supported codes are accepted;
// the choice is carried in a cookie and applies to all localized output.
func (h *langHandler) set(w http.ResponseWriter, r *http.Request) {
	code := strings.ToLower(r.PathValue("code"))
	if !i18n.Supported(code) {
		WriteError(w, http.StatusBadRequest, "unsupported_locale",
			i18n.Sprintf(i18n.DefaultLocale, "lang.unsupported", code), h.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     localeCookie,
		Value:    code,
		Path:     "/",
		MaxAge:   localeCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	WriteJSON(w, http.StatusOK, map[string]string{"locale": code}, h.logger)
}
