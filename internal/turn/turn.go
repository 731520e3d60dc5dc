// Package turn executes one conversation turn against the generative
// service: it streams fragments to the caller as they arrive and defers
// durable persistence of the exchanged pair to stream completion.
package turn

import (
	"context"
	"errors"
	"iter"

	"google.golang.org/genai"

	"github.com/vinnieai/vinnie/internal/history"
)

// ErrServiceUnavailable indicates a generation session could not be
// initialized (missing or rejected credential, service down). Fatal for the
// single request only; nothing is persisted.
var ErrServiceUnavailable = errors.New("generative service unavailable")

// Part is one content item of a new turn: either plain text or a reference
// to a previously uploaded file.
type Part struct {
	Text     string
	FileURI  string
	MIMEType string
}

// Session is the transient per-request assembly handed to the generative
// service: reconstructed history plus persona and safety configuration.
// It is owned by the request that built it and never shared.
type Session struct {
	Instruction string
	Safety      []*genai.SafetySetting
	History     []history.Turn
}

// Stream is one live generation exchange. Send returns a lazy, finite,
// non-restartable fragment sequence; an error during iteration ends the
// sequence (fragments already yielded are not retracted).
type Stream interface {
	Send(ctx context.Context, parts []Part) iter.Seq2[string, error]
}

// Streamer opens generation sessions. Implemented by internal/gemini;
// test fakes implement it in-memory.
type Streamer interface {
	Open(ctx context.Context, session Session) (Stream, error)
}

// Store is the durable-turn surface the executor needs.
type Store interface {
	Recent(ctx context.Context, userID int64) ([]history.Turn, error)
	AppendPair(ctx context.Context, userID int64, userContent, modelContent string) error
}

// Emit relays one fragment to the caller. Returning an error means the
// caller can no longer accept data; the executor stops producing.
type Emit func(fragment string) error

// Attachment is an uploaded-file reference attached to a turn.
// Satisfied by *attachment.Upload.
type Attachment interface {
	Filename() string
	URI() string
	MIMEType() string
}

// Input is one submitted turn: optional text and an optional already
// uploaded attachment.
type Input struct {
	Text       string
	Attachment Attachment
}

// Empty reports whether the submission carries no content at all.
func (in Input) Empty() bool {
	return in.Text == "" && in.Attachment == nil
}
