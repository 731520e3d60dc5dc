package turn

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/vinnieai/vinnie/internal/i18n"
	"github.com/vinnieai/vinnie/internal/persona"
)

const (
	// persistAttempts bounds retries of the completion-time append.
	persistAttempts = 3

	// persistRetryBase is the initial backoff between persistence retries.
	persistRetryBase = 100 * time.Millisecond
)

// Executor runs conversation turns: history reconstruction, streaming
// generation, fragment relay, and completion-time persistence.
type Executor struct {
	streamer Streamer
	store    Store
	logger   *slog.Logger
}

// NewExecutor creates an Executor. A nil logger falls back to slog.Default().
func NewExecutor(streamer Streamer, store Store, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{streamer: streamer, store: store, logger: logger}
}

// Execute runs one turn for the given user.
//
// An empty submission yields exactly one fixed greeting fragment and no
// persistence. Otherwise the turn is streamed; whatever the stream produced
// by the time it ends — normally, by failing, or because the caller went
// away — is persisted as one user/model pair. A mid-stream failure appends
// one diagnostic fragment to the visible stream before persisting.
//
// Only session-initialization failures return an error (wrapped
// ErrServiceUnavailable); by the time fragments flow, the response is
// already committed and failures are absorbed into the stream itself.
func (e *Executor) Execute(ctx context.Context, userID int64, locale string, input Input, emit Emit) error {
	input.Text = strings.TrimSpace(input.Text)

	if input.Empty() {
		// An empty submission is not a conversational turn.
		return emit(i18n.T(locale, "chat.greeting"))
	}

	turns, err := e.store.Recent(ctx, userID)
	if err != nil {
		return fmt.Errorf("reconstructing history: %w", err)
	}

	session := Session{
		Instruction: persona.Instruction(locale),
		Safety:      persona.SafetySettings(),
		History:     turns,
	}

	stream, err := e.streamer.Open(ctx, session)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	// Attachment reference first, then text.
	var parts []Part
	if input.Attachment != nil {
		parts = append(parts, Part{
			FileURI:  input.Attachment.URI(),
			MIMEType: input.Attachment.MIMEType(),
		})
	}
	if input.Text != "" {
		parts = append(parts, Part{Text: input.Text})
	}

	var accumulated strings.Builder

	// Completion-time persistence is a stream-lifecycle finalizer: it runs
	// on normal completion, on stream failure, and when the caller
	// disconnects. Detached from the request context so cancellation
	// cannot erase conversational state.
	defer func() {
		e.persist(context.WithoutCancel(ctx), userID, userContent(input), accumulated.String())
	}()

	relaying := true
	for fragment, err := range stream.Send(ctx, parts) {
		if err != nil {
			e.logger.Warn("generation stream failed; persisting partial output",
				"user_id", userID, "accumulated_bytes", accumulated.Len(), "error", err)
			if relaying {
				_ = emit(i18n.Sprintf(locale, "chat.stream_error", err))
			}
			return nil
		}

		accumulated.WriteString(fragment)

		if relaying {
			if emitErr := emit(fragment); emitErr != nil {
				// Caller gone. Stop producing rather than buffer unbounded;
				// the deferred persistence keeps what already arrived.
				e.logger.Info("caller disconnected mid-stream",
					"user_id", userID, "accumulated_bytes", accumulated.Len(), "error", emitErr)
				relaying = false
				return nil
			}
		}
	}

	return nil
}

// userContent renders the submitted turn as it is durably recorded,
// annotated with an attachment marker when a file was sent.
func userContent(input Input) string {
	if input.Attachment == nil {
		return input.Text
	}
	marker := fmt.Sprintf("[attachment: %s]", input.Attachment.Filename())
	if input.Text == "" {
		return marker
	}
	return marker + " " + input.Text
}

// persist appends the turn pair with bounded retries. Losing a generated
// answer is worse than a visible error, so exhausting the retries is
// logged loudly rather than swallowed.
func (e *Executor) persist(ctx context.Context, userID int64, userContent, modelContent string) {
	backoff := retry.WithMaxRetries(persistAttempts, retry.NewExponential(persistRetryBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := e.store.AppendPair(ctx, userID, userContent, modelContent); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		e.logger.Error("PERSISTENCE FAILURE: turn pair lost after retries",
			"user_id", userID,
			"model_content_bytes", len(modelContent),
			"error", err)
	}
}
