package openai

import (
    "context"
    "errors"
    "strings"

    openai "github.com/openai/openai-go/v2"
    "github.com/openai/openai-go/v2/option"
    "github.com/openai/openai-go/v2/shared"
    "github.com/rs/zerolog"

    "github.com/HamedShams/impact-pipeline/internal/config"
)

// Client wraps the OpenAI SDK behind the one call the pipeline needs.
type Client struct {
    cfg config.Config
    log zerolog.Logger
    api openai.Client
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{cfg: cfg, log: log, api: openai.NewClient(option.WithAPIKey(cfg.OpenAIKey))}
}

// Enabled reports whether an API key was configured at all.
func (c *Client) Enabled() bool { return strings.TrimSpace(c.cfg.OpenAIKey) != "" }

func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
    if !c.Enabled() { return "", errors.New("openai: no api key configured") }
    ctx2, cancel := context.WithTimeout(ctx, c.cfg.OpenAITimeout)
    defer cancel()
    resp, err := c.api.Chat.Completions.New(ctx2, openai.ChatCompletionNewParams{
        Model: shared.ChatModel(c.cfg.OpenAIModel),
        Messages: []openai.ChatCompletionMessageParamUnion{
            openai.SystemMessage(system),
            openai.UserMessage(user),
        },
    })
    if err != nil { return "", err }
    if len(resp.Choices) == 0 { return "", errors.New("openai: empty response") }
    return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
