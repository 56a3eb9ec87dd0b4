package author

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/claude/kinetic/internal/models"
)

// DiscoverIdeas asks for five short program pitches.
func (c *Client) DiscoverIdeas(ctx context.Context) ([]models.ProgramIdea, error) {
	reply, err := c.chat(ctx, ideasPrompt)
	if err != nil {
		return nil, fmt.Errorf("discovering ideas: %w", err)
	}
	return ParseIdeas(reply)
}

// GenerateFromIdea expands an idea into a full program draft.
func (c *Client) GenerateFromIdea(ctx context.Context, idea models.ProgramIdea, profile models.Profile) (Draft, error) {
	if strings.TrimSpace(idea.ProgramName) == "" {
		return Draft{}, fmt.Errorf("%w: idea has no program name", ErrEmptyInput)
	}
	reply, err := c.chat(ctx, ideaPrompt(idea, profile))
	if err != nil {
		return Draft{}, fmt.Errorf("generating %q: %w", idea.ProgramName, err)
	}
	return ParseProgram(reply)
}

// GenerateFromPrompt builds a full-week program, rest days included, from a
// free-text request.
func (c *Client) GenerateFromPrompt(ctx context.Context, request string, profile models.Profile) (Draft, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return Draft{}, fmt.Errorf("%w: prompt is empty", ErrEmptyInput)
	}
	reply, err := c.chat(ctx, freeTextPrompt(request, profile))
	if err != nil {
		return Draft{}, fmt.Errorf("generating from prompt: %w", err)
	}
	return ParseProgram(reply)
}

// ExtractFromDocument reads a program out of an uploaded document. Text
// documents are sent inline; anything else goes as a base64 data URL.
func (c *Client) ExtractFromDocument(ctx context.Context, mimeType string, data []byte) (Draft, error) {
	if len(data) == 0 {
		return Draft{}, fmt.Errorf("%w: document is empty", ErrEmptyInput)
	}

	var content any
	if isText(mimeType) {
		content = extractionPrompt() + "\n\nDocument:\n" + string(data)
	} else {
		content = []contentPart{
			{Type: "text", Text: extractionPrompt()},
			{Type: "image_url", ImageURL: &imageURL{
				URL: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
			}},
		}
	}

	reply, err := c.chat(ctx, content)
	if err != nil {
		return Draft{}, fmt.Errorf("extracting from %s document: %w", mimeType, err)
	}
	return ParseProgram(reply)
}

func isText(mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	switch {
	case strings.HasPrefix(mt, "text/"):
		return true
	case mt == "application/json", mt == "application/csv", mt == "application/x-yaml", mt == "application/toml":
		return true
	}
	return false
}
