package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"studypile/internal/config"
)

// defaultMediaModel transcribes image, audio and video submissions when the
// config does not pin a model.
const defaultMediaModel = "gemini-2.5-flash"

const mediaPrompt = "Transcribe or describe the full content of this file as plain text " +
	"for studying. Include all spoken words, visible text and meaningful detail. " +
	"Output only the extracted text."

// MediaExtractor turns image, audio and video bytes into plain text through
// the multimodal model. One client is created at startup and shared by every
// pipeline task.
type MediaExtractor struct {
	client *genai.Client
	model  string
}

func NewMediaExtractor(ctx context.Context, cfg *config.Config) (*MediaExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.Media.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("init media client: %w", err)
	}
	model := cfg.Media.Model
	if model == "" {
		model = defaultMediaModel
	}
	return &MediaExtractor{client: client, model: model}, nil
}

func (m *MediaExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty media payload")
	}
	parts := []*genai.Part{
		genai.NewPartFromBytes(data, sniffMediaType(data)),
		genai.NewPartFromText(mediaPrompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("media transcription: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("media transcription returned no text")
	}
	return text, nil
}

// sniffMediaType detects the payload's MIME type. DetectContentType spells
// wav differently than the intake whitelist, so normalize it.
func sniffMediaType(data []byte) string {
	ct := http.DetectContentType(data)
	if ct == "audio/wave" {
		return "audio/wav"
	}
	return ct
}
