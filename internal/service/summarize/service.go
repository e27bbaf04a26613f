package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"studypile/internal/config"
)

const systemPrompt = "You are a study assistant that summarizes learning material. " +
	"Produce a concise summary highlighting the key points, definitions and " +
	"important details a student should remember."

// defaultInputLimit truncates extracted text before prompting. Intermediate
// text is never persisted, so oversized inputs are simply cut, not chunked.
const defaultInputLimit = 48000

// Service generates summary text with the configured chat model. The model
// is built once at startup and shared by all pipeline tasks.
type Service struct {
	chatModel  model.ToolCallingChatModel
	inputLimit int
}

// New builds the summarizer for the provider named in the config.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	name := cfg.BasicConfig.SummaryProvider
	if name == "" {
		name = "openai"
	}
	provCfg, ok := cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("summary provider %s not configured", name)
	}

	var chatModel model.ToolCallingChatModel
	var err error
	switch name {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid summary provider: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", name, err)
	}

	limit := cfg.BasicConfig.SummaryInputLimit
	if limit <= 0 {
		limit = defaultInputLimit
	}
	return &Service{chatModel: chatModel, inputLimit: limit}, nil
}

// Summarize produces the summary for one submission's extracted text.
func (s *Service) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("nothing to summarize")
	}
	text = truncate(text, s.inputLimit)

	messages := []*schema.Message{
		{
			Role:    schema.System,
			Content: systemPrompt,
		},
		{
			Role:    schema.User,
			Content: fmt.Sprintf("Document Content:\n%s\n", text),
		},
	}
	resp, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", errors.New("model returned an empty summary")
	}
	return resp.Content, nil
}

// truncate cuts text to at most limit bytes without splitting a rune.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
