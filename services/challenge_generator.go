package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"loveGrowAPI/internal/clock"
	"loveGrowAPI/internal/types/challenge"
)

// generationAttempts is the total number of calls made to the text
// generation API before giving up: 1 initial attempt plus 3 retries, with
// exponential backoff between them (1s, 2s, 4s).
const generationAttempts = 4

const defaultGenerationBackoff = 1 * time.Second

// TextGenerator is the structured text-completion boundary. The generator
// is agnostic of the provider behind it.
type TextGenerator interface {
	GenerateChallengeJSON(ctx context.Context, prompt string) (string, error)
}

type GenerationErrorKind string

const (
	GenerationMalformedResponse GenerationErrorKind = "MALFORMED_RESPONSE"
	GenerationExhaustedRetries  GenerationErrorKind = "EXHAUSTED_RETRIES"
)

// GenerationError is the failure surface of the challenge generator.
// EXHAUSTED_RETRIES wraps the last underlying cause, which may itself be a
// MALFORMED_RESPONSE error.
type GenerationError struct {
	Kind GenerationErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("challenge generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ChallengeGenerator produces a fresh daily challenge batch by prompting
// the text-generation API. It owns no persistent state.
type ChallengeGenerator struct {
	client  TextGenerator
	clk     clock.Clock
	backoff time.Duration
}

func NewChallengeGenerator(client TextGenerator, clk clock.Clock) *ChallengeGenerator {
	return &ChallengeGenerator{
		client:  client,
		clk:     clk,
		backoff: defaultGenerationBackoff,
	}
}

// GenerateChallenges builds the prompt for the given relationship status,
// calls the text-generation API with retries, validates the JSON payload
// and returns the batch tagged with today's date. All-or-nothing: no
// partial batch is ever returned.
func (g *ChallengeGenerator) GenerateChallenges(ctx context.Context, status challenge.RelationshipStatus) (*challenge.Batch, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown relationship status: %q", status)
	}

	prompt := buildChallengePrompt(status)

	var items []challenge.Challenge
	backoff := retry.WithMaxRetries(generationAttempts-1, retry.NewExponential(g.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		generationAttemptsTotal.Inc()

		raw, err := g.client.GenerateChallengeJSON(ctx, prompt)
		if err != nil {
			log.Printf("Challenge generation attempt failed: %v", err)
			return retry.RetryableError(err)
		}

		parsed, err := parseChallengePayload(raw)
		if err != nil {
			log.Printf("Challenge generation returned malformed payload: %v", err)
			return retry.RetryableError(err)
		}

		items = parsed
		return nil
	})
	if err != nil {
		generationFailuresTotal.Inc()
		return nil, &GenerationError{Kind: GenerationExhaustedRetries, Err: err}
	}

	return &challenge.Batch{
		Date:       g.clk.Today(),
		Challenges: items,
	}, nil
}

// generatedChallenge is the wire shape of one element of the model's JSON
// array. The category may arrive under either key.
type generatedChallenge struct {
	Category string `json:"category"`
	Type     string `json:"type"`
	Content  string `json:"content"`
}

// parseChallengePayload validates the raw model output: non-empty text,
// valid JSON, non-empty array, each element carrying content. Category
// coverage and content length are prompt guidance, not enforced here.
func parseChallengePayload(raw string) ([]challenge.Challenge, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &GenerationError{
			Kind: GenerationMalformedResponse,
			Err:  fmt.Errorf("received an empty response from the AI"),
		}
	}

	var wire []generatedChallenge
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return nil, &GenerationError{
			Kind: GenerationMalformedResponse,
			Err:  fmt.Errorf("response was not a JSON array: %w", err),
		}
	}
	if len(wire) == 0 {
		return nil, &GenerationError{
			Kind: GenerationMalformedResponse,
			Err:  fmt.Errorf("AI did not return any challenges"),
		}
	}

	items := make([]challenge.Challenge, 0, len(wire))
	for i, w := range wire {
		category := w.Category
		if category == "" {
			category = w.Type
		}
		if w.Content == "" {
			return nil, &GenerationError{
				Kind: GenerationMalformedResponse,
				Err:  fmt.Errorf("challenge %d has no content", i),
			}
		}
		items = append(items, challenge.Challenge{
			Type:      category,
			Content:   w.Content,
			Completed: false,
		})
	}

	return items, nil
}

func buildChallengePrompt(status challenge.RelationshipStatus) string {
	if status.IsCouple() {
		return fmt.Sprintf(`You are a creative and insightful relationship coach AI. Generate a set of %d diverse, fun, and meaningful daily challenges for a couple whose relationship status is '%s'. These challenges should help them deepen their connection, introduce excitement, and foster teamwork and romance.

The set should include a mix of the following categories:
- 'Deep Conversation Starter': A thought-provoking question.
- 'Romantic Gesture': A specific, creative, and romantic act.
- 'Shared Adventure': A fun activity to do together.
- 'Teamwork Challenge': A task where they must work together.
- 'Memory Lane': A prompt to reminisce about a positive memory.
- 'Spicy Dare': A fun, flirty challenge to increase intimacy.
- 'Date Night Idea': A simple, actionable plan for a date.

IMPORTANT: The 'content' for each challenge must be a short, direct instruction or question, under 15 words. For example:
- A 'Spicy Dare' could be "Give your partner a passionate 20-second kiss unexpectedly."
- A 'Date Night Idea' could be "Plan a surprise mini-date for this week, even just for an hour."
- A 'Romantic Gesture' could be "Secretly leave a heartfelt note where your partner will find it."
- A 'Teamwork Challenge' could be "Declutter one part of a room together in 30 minutes. Go!".

Provide the output in a JSON array format. Each object in the array must have a 'type' (the category name) and a 'content' (the short challenge description). Generate exactly %d challenges, with a variety of types, ensuring some focus on romance and intimacy.`, status.BatchSize(), status, status.BatchSize())
	}

	return fmt.Sprintf(`You are an empowering and fun life coach AI. Generate %d unique and exciting daily challenges for a single person, focusing on self-love, personal growth, and embracing singlehood.

The challenges should be a mix of these categories:
- 'Mindful Moment': A practice to connect with the present.
- 'Self-Date Idea': A fun activity to do alone.
- 'Comfort Zone Stretch': A small step to try something new.
- 'Act of Kindness': A challenge to spread positivity.
- 'Gratitude Practice': A prompt to appreciate the good things.

IMPORTANT: The 'content' for each challenge must be short and to the point, under 15 words. For example, a 'Self-Date Idea' could be "Visit a bookstore and read the first chapter of a random book." A 'Comfort Zone Stretch' could be "People-watch in a park for 15 minutes without your phone."

Provide the output in a JSON array format. Each object in the array must have a 'type' (the category) and a 'content' (the short challenge description). Generate exactly %d challenges.`, status.BatchSize(), status.BatchSize())
}
