package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vinnieai/vinnie/internal/attachment"
	"github.com/vinnieai/vinnie/internal/i18n"
	"github.com/vinnieai/vinnie/internal/turn"
)

// maxUploadBytes bounds the multipart form, attachment included.
const maxUploadBytes = 32 << 20

// TurnExecutor runs one conversation turn, relaying fragments through emit.
// Implemented by *turn.Executor.
type TurnExecutor interface {
	Execute(ctx context.Context, userID int64, locale string, input turn.Input, emit turn.Emit) error
}

type chatHandler struct {
	executor      TurnExecutor
	attachments   *attachment.Handler
	defaultLocale string
	logger        *slog.Logger
}

// submit handles one conversation turn: multipart in, streamed plain text
// out. The response streams fragments as they arrive from the generative
// service; by the time the first byte is written the status is committed.
func (h *chatHandler) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := UserFromContext(ctx)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "no_identity", "request has no resolved identity", h.logger)
		return
	}
	locale := localeFrom(r, h.defaultLocale)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_form", "could not parse form", h.logger)
		return
	}

	input := turn.Input{Text: r.FormValue("prompt")}

	if upload := h.intakeAttachment(ctx, r); upload != nil {
		input.Attachment = upload
		// The remote handle outlives the stream, not the request context.
		defer upload.Release(context.WithoutCancel(ctx))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, _ := w.(http.Flusher)
	wrote := false
	emit := func(fragment string) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := io.WriteString(w, fragment); err != nil {
			return err
		}
		wrote = true
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	if err := h.executor.Execute(ctx, user.ID, locale, input, emit); err != nil {
		if wrote {
			// Status already committed; the stream just ends.
			h.logger.Warn("turn failed mid-stream", "user_id", user.ID, "error", err)
			return
		}
		if errors.Is(err, turn.ErrServiceUnavailable) {
			h.logger.Error("generative service unavailable", "user_id", user.ID, "error", err)
			WriteError(w, http.StatusServiceUnavailable, "service_unavailable", i18n.T(locale, "chat.offline"), h.logger)
			return
		}
		h.logger.Error("executing turn", "user_id", user.ID, "error", err)
		WriteError(w, http.StatusInternalServerError, "turn_failed", "could not process message", h.logger)
	}
}

// intakeAttachment runs the attachment pipeline for the request's optional
// file field. Every failure degrades the turn to text-only: a missing file,
// a disallowed extension, and an upload error all yield nil.
func (h *chatHandler) intakeAttachment(ctx context.Context, r *http.Request) *attachment.Upload {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil
	}
	defer func() { _ = file.Close() }()

	upload, err := h.attachments.Intake(ctx, header.Filename, file)
	if err != nil {
		h.logger.Warn("attachment upload failed, continuing text-only",
			"filename", header.Filename, "error", err)
		return nil
	}
	return upload
}

// newChat hands out a fresh conversation marker. History is keyed to the
// user, not the marker, so a new chat is a presentation reset only.
func (h *chatHandler) newChat(w http.ResponseWriter, r *http.Request) {
	chatID := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     chatCookie,
		Value:    chatID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	WriteJSON(w, http.StatusOK, map[string]string{"chat_id": chatID}, h.logger)
}
