package script

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/AndreiCalugar/NewsGenerator/config"
	"github.com/AndreiCalugar/NewsGenerator/types"
)

// scriptResponse is the structured output for script generation
type scriptResponse struct {
	Title  string `json:"title" jsonschema_description:"A short punchy title for the news video"`
	Script string `json:"script" jsonschema_description:"The narration script, plain sentences with no stage directions"`
}

// GenerateSchema generates a JSON schema for structured outputs
func GenerateSchema[T any]() interface{} {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}

var scriptResponseSchema = GenerateSchema[scriptResponse]()

// Generator turns news articles into broadcast-style narration scripts
type Generator struct {
	client openai.Client
	cfg    *config.Config
}

func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{
		client: openai.NewClient(option.WithAPIKey(cfg.Secrets.OpenAIAPIKey)),
		cfg:    cfg,
	}
}

// Generate writes a narration script for one article. The word budget
// keeps the narrated video near a minute at normal speaking pace.
func (g *Generator) Generate(ctx context.Context, article types.Article) (*types.Script, error) {
	prompt := fmt.Sprintf(`You are a professional news anchor writing a script for a short news video.

Write a narration script for this story:
Title: %s
Summary: %s
Source: %s

Rules:
- At most %d words.
- Start directly with the news. No greetings, no "welcome", no sign-off.
- Plain spoken sentences only. No stage directions, no emojis, no hashtags.
- Neutral broadcast tone.

Respond in JSON:
{
  "title": "short video title",
  "script": "the narration text"
}`, article.Title, article.Description, article.Source, g.cfg.Script.MaxWords)

	resp, err := getStructuredResponse[scriptResponse](ctx, g.client, prompt, "news_script", scriptResponseSchema, g.cfg.Script.Temperature)
	if err != nil {
		return nil, fmt.Errorf("generate script: %w", err)
	}
	text := strings.TrimSpace(resp.Script)
	if text == "" {
		return nil, fmt.Errorf("generate script: model returned empty script")
	}
	title := strings.TrimSpace(resp.Title)
	if title == "" {
		title = article.Title
	}
	log.Printf("[script] ✅ generated %d-word script for %q", len(strings.Fields(text)), title)
	return &types.Script{Title: title, Text: text}, nil
}

// chatParams builds the chat request with schema enforcement and the
// configured sampling temperature.
func chatParams(prompt, name string, schema interface{}, temperature float64) openai.ChatCompletionNewParams {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String("Structured data response"),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}
	return openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModelGPT4oMini,
		Temperature: openai.Float(temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	}
}

// getStructuredResponse calls the chat API with JSON schema enforcement
func getStructuredResponse[T any](ctx context.Context, client openai.Client, prompt, name string, schema interface{}, temperature float64) (*T, error) {
	chatCompletion, err := client.Chat.Completions.New(ctx, chatParams(prompt, name, schema, temperature))
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(chatCompletion.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: no choices returned")
	}

	var out T
	if err := json.Unmarshal([]byte(chatCompletion.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("parse structured response: %w", err)
	}
	return &out, nil
}
