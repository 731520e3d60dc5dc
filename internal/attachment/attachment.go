// Package attachment validates, stages, and uploads caller-supplied files
// for a single conversation turn.
//
// A staged file lives in a private temp location for the duration of one
// request; Close releases the local copy on every exit path. The uploaded
// remote handle is released after the generation stream finishes, success
// or failure — release is best-effort cleanup, never a request error.
package attachment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMIMEType is used when the filename yields no known MIME type.
const DefaultMIMEType = "application/octet-stream"

// RemoteFile is the opaque handle returned by the remote file service.
type RemoteFile struct {
	// Name identifies the file for later deletion.
	Name string
	// URI references the file in generation requests.
	URI string
	// MIMEType echoes the type the file was uploaded with.
	MIMEType string
}

// FileService is the remote side of the attachment lifecycle.
// The Gemini-backed implementation lives in internal/gemini.
type FileService interface {
	Upload(ctx context.Context, path, mimeType string) (RemoteFile, error)
	Delete(ctx context.Context, name string) error
}

// Handler accepts at most one caller-supplied file per turn.
type Handler struct {
	files   FileService
	allowed map[string]struct{}
	dir     string
	logger  *slog.Logger
}

// NewHandler creates a Handler.
//
// allowedExts is the extension allow-list (without dots, case-insensitive).
// dir is where files are staged; empty means the system temp directory.
func NewHandler(files FileService, allowedExts []string, dir string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]struct{}, len(allowedExts))
	for _, ext := range allowedExts {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &Handler{files: files, allowed: allowed, dir: dir, logger: logger}
}

// Allowed reports whether the filename's extension is on the allow-list.
// Files without an extension are never allowed.
func (h *Handler) Allowed(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return false
	}
	_, ok := h.allowed[ext]
	return ok
}

// Staged is a caller-supplied file written to a private request-scoped
// location. Close must run on every exit path of the request.
type Staged struct {
	path     string
	filename string
	removed  bool
}

// Path returns the local path of the staged copy.
func (s *Staged) Path() string { return s.path }

// Filename returns the original (caller-supplied) filename.
func (s *Staged) Filename() string { return s.filename }

// Close removes the local copy. Safe to call more than once.
func (s *Staged) Close() error {
	if s.removed {
		return nil
	}
	s.removed = true
	if err := os.Remove(s.path); err != nil {
		return fmt.Errorf("removing staged file: %w", err)
	}
	return nil
}

// Stage copies the caller's file into a private temp location.
// The caller owns the returned Staged and must Close it.
func (h *Handler) Stage(filename string, r io.Reader) (*Staged, error) {
	tmp, err := os.CreateTemp(h.dir, "vinnie-attachment-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging file: %w", err)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("writing staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("closing staging file: %w", err)
	}

	return &Staged{path: tmp.Name(), filename: filename}, nil
}

// Upload sends a staged file to the remote service and returns the live
// remote handle. At most one handle is alive per request.
func (h *Handler) Upload(ctx context.Context, staged *Staged) (*Upload, error) {
	mimeType := GuessMIMEType(staged.Filename())

	remote, err := h.files.Upload(ctx, staged.Path(), mimeType)
	if err != nil {
		return nil, fmt.Errorf("uploading attachment: %w", err)
	}

	h.logger.Debug("attachment uploaded",
		"filename", staged.Filename(), "mime_type", mimeType, "remote", remote.Name)

	return &Upload{
		remote:   remote,
		filename: staged.Filename(),
		files:    h.files,
		logger:   h.logger,
	}, nil
}

// Intake runs the full attachment pipeline for one request: allow-list
// check, staging, upload, and guaranteed local cleanup.
//
// A disallowed extension is not an error — the turn degrades to text-only
// and Intake returns (nil, nil). Upload failures are returned so the caller
// can decide (the web layer also degrades to text-only there).
func (h *Handler) Intake(ctx context.Context, filename string, r io.Reader) (*Upload, error) {
	if !h.Allowed(filename) {
		h.logger.Info("attachment rejected by allow-list", "filename", filename)
		return nil, nil
	}

	staged, err := h.Stage(filename, r)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := staged.Close(); err != nil {
			h.logger.Warn("failed to remove staged attachment", "error", err)
		}
	}()

	return h.Upload(ctx, staged)
}

// Upload is a live remote attachment handle, scoped to one request.
type Upload struct {
	remote   RemoteFile
	filename string
	files    FileService
	logger   *slog.Logger
	released bool
}

// Filename returns the original filename, used for the turn's
// attachment marker.
func (u *Upload) Filename() string { return u.filename }

// URI returns the remote reference for generation requests.
func (u *Upload) URI() string { return u.remote.URI }

// MIMEType returns the MIME type the file was uploaded with.
func (u *Upload) MIMEType() string { return u.remote.MIMEType }

// Release deletes the remote-side resource. Best-effort: failures are
// logged, never surfaced, and a repeated call is a no-op.
func (u *Upload) Release(ctx context.Context) {
	if u == nil || u.released {
		return
	}
	u.released = true
	if err := u.files.Delete(ctx, u.remote.Name); err != nil {
		u.logger.Warn("failed to release remote attachment",
			"remote", u.remote.Name, "error", err)
		return
	}
	u.logger.Debug("released remote attachment", "remote", u.remote.Name)
}

// GuessMIMEType determines a MIME type from the filename, defaulting to
// DefaultMIMEType when undetermined. Parameters (charset) are stripped.
func GuessMIMEType(filename string) string {
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		return DefaultMIMEType
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}
