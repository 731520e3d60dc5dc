// Package gemini adapts the Google generative-language SDK to the
// interfaces the rest of the service consumes: streaming chat sessions
// for internal/turn and the remote file lifecycle for internal/attachment.
package gemini

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"google.golang.org/genai"

	"github.com/vinnieai/vinnie/internal/attachment"
	"github.com/vinnieai/vinnie/internal/history"
	"github.com/vinnieai/vinnie/internal/turn"
)

// Client wraps one SDK client bound to a single model.
type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewClient creates a Client against the Gemini API backend.
func NewClient(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Client{client: client, model: model, logger: logger}, nil
}

// Model returns the model name this client generates with.
func (c *Client) Model() string { return c.model }

// Open starts a chat session seeded with the session's history, system
// instruction, and safety thresholds. Implements turn.Streamer.
func (c *Client) Open(ctx context.Context, session turn.Session) (turn.Stream, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(session.Instruction, genai.RoleUser),
		SafetySettings:    session.Safety,
	}

	chat, err := c.client.Chats.Create(ctx, c.model, cfg, historyContents(session.History))
	if err != nil {
		return nil, fmt.Errorf("creating chat session: %w", err)
	}

	return &stream{chat: chat}, nil
}

// historyContents converts stored turns into the SDK's content form,
// oldest first, as handed over by the history store.
func historyContents(turns []history.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.Role(genai.RoleUser)
		if t.Role == history.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}
	return contents
}

type stream struct {
	chat *genai.Chat
}

// Send relays the SDK's streaming response as plain text fragments.
// Chunks that carry no text (metadata, empty candidates) are skipped.
func (s *stream) Send(ctx context.Context, parts []turn.Part) iter.Seq2[string, error] {
	sdkParts := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.FileURI != "" {
			sdkParts = append(sdkParts, genai.Part{
				FileData: &genai.FileData{FileURI: p.FileURI, MIMEType: p.MIMEType},
			})
			continue
		}
		sdkParts = append(sdkParts, genai.Part{Text: p.Text})
	}

	return func(yield func(string, error) bool) {
		for chunk, err := range s.chat.SendMessageStream(ctx, sdkParts...) {
			if err != nil {
				yield("", err)
				return
			}
			text := chunk.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

// Upload pushes a local file to the service's file store.
// Implements attachment.FileService.
func (c *Client) Upload(ctx context.Context, path, mimeType string) (attachment.RemoteFile, error) {
	file, err := c.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		MIMEType: mimeType,
	})
	if err != nil {
		return attachment.RemoteFile{}, fmt.Errorf("uploading file: %w", err)
	}

	c.logger.Debug("file uploaded", "remote", file.Name, "mime_type", mimeType)

	return attachment.RemoteFile{
		Name:     file.Name,
		URI:      file.URI,
		MIMEType: file.MIMEType,
	}, nil
}

// Delete removes a previously uploaded file from the service's file store.
// Implements attachment.FileService.
func (c *Client) Delete(ctx context.Context, name string) error {
	if _, err := c.client.Files.Delete(ctx, name, nil); err != nil {
		return fmt.Errorf("deleting file %s: %w", name, err)
	}
	return nil
}
