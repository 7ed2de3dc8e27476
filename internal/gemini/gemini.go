package gemini

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// Client wraps the Gemini API for the two things the app needs: structured
// challenge generation and coach chat turns.
type Client struct {
	ai    *genai.Client
	model string
}

// challengeSchema constrains generation output to a JSON array of
// {type, content} objects. Both fields are required strings.
var challengeSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"type": {
				Type:        genai.TypeString,
				Description: "The category of the challenge, e.g. 'Romantic Gesture', 'Self-Date Idea'.",
			},
			"content": {
				Type:        genai.TypeString,
				Description: "The short challenge instruction.",
			},
		},
		Required: []string{"type", "content"},
	},
}

// NewClient initializes the Gemini client from the GEMINI_API_KEY
// environment variable.
func NewClient(ctx context.Context) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}

	ai, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing gemini client: %w", err)
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = defaultModel
	}

	return &Client{ai: ai, model: model}, nil
}

// GenerateChallengeJSON runs one structured completion and returns the raw
// response text. Validation of the payload is the caller's job.
func (c *Client) GenerateChallengeJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := c.ai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   challengeSchema,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	return resp.Text(), nil
}

// Turn is one prior message in a coach conversation.
type Turn struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

// Chat sends one coach message with prior history under the given system
// instruction and returns the reply text.
func (c *Client) Chat(ctx context.Context, systemInstruction string, history []Turn, message string) (string, error) {
	contents := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		role := genai.Role(genai.RoleUser)
		if t.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}

	chat, err := c.ai.Chats.Create(ctx, c.model, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}, contents)
	if err != nil {
		return "", fmt.Errorf("gemini create chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", fmt.Errorf("gemini send message: %w", err)
	}

	return resp.Text(), nil
}
