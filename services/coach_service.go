package services

import (
	"context"
	"fmt"

	"loveGrowAPI/internal/gemini"
	"loveGrowAPI/internal/types/challenge"
)

// CoachChat is the conversational boundary to the text-generation API.
// Implemented by the Gemini client.
type CoachChat interface {
	Chat(ctx context.Context, systemInstruction string, history []gemini.Turn, message string) (string, error)
}

// CoachService answers free-form advice questions as the "LoveGrow Coach".
// Chat turns are interactive, so there is no retry loop here; a failure
// surfaces directly and the client just resends.
type CoachService struct {
	chat CoachChat
}

func NewCoachService(chat CoachChat) *CoachService {
	return &CoachService{chat: chat}
}

// Advise sends one user message with prior history and returns the coach's
// reply.
func (s *CoachService) Advise(ctx context.Context, status challenge.RelationshipStatus, history []gemini.Turn, message string) (string, error) {
	if message == "" {
		return "", fmt.Errorf("message must not be empty")
	}

	instruction := fmt.Sprintf(`You are "LoveGrow Coach", a compassionate AI relationship assistant. A user, whose current relationship status is '%s', is chatting with you for advice. Provide short, straightforward, and supportive answers. Keep your responses concise, empathetic, and to the point. Do not use markdown formatting.`, status)

	reply, err := s.chat.Chat(ctx, instruction, history, message)
	if err != nil {
		return "", fmt.Errorf("coach chat failed: %w", err)
	}

	return reply, nil
}
