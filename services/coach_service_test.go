package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loveGrowAPI/internal/gemini"
	"loveGrowAPI/internal/types/challenge"
)

type fakeCoachChat struct {
	instruction string
	history     []gemini.Turn
	message     string
	reply       string
	err         error
	calls       int
}

func (f *fakeCoachChat) Chat(ctx context.Context, systemInstruction string, history []gemini.Turn, message string) (string, error) {
	f.calls++
	f.instruction = systemInstruction
	f.history = history
	f.message = message
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestAdviseInstructionCarriesStatus(t *testing.T) {
	chat := &fakeCoachChat{reply: "Try a short walk together tonight."}
	svc := NewCoachService(chat)

	history := []gemini.Turn{
		{Role: "user", Text: "We keep arguing about chores."},
		{Role: "model", Text: "What does a fair split look like to each of you?"},
	}

	reply, err := svc.Advise(context.Background(), challenge.StatusMarried, history, "How do we stop?")
	require.NoError(t, err)

	assert.Equal(t, "Try a short walk together tonight.", reply)
	assert.Contains(t, chat.instruction, "LoveGrow Coach")
	assert.Contains(t, chat.instruction, "'married'")
	assert.Equal(t, history, chat.history)
	assert.Equal(t, "How do we stop?", chat.message)
}

func TestAdviseRejectsEmptyMessage(t *testing.T) {
	chat := &fakeCoachChat{}
	svc := NewCoachService(chat)

	_, err := svc.Advise(context.Background(), challenge.StatusSingle, nil, "")
	assert.Error(t, err)
	assert.Equal(t, 0, chat.calls, "no API call for an empty message")
}

func TestAdviseWrapsChatFailure(t *testing.T) {
	chat := &fakeCoachChat{err: fmt.Errorf("deadline exceeded")}
	svc := NewCoachService(chat)

	_, err := svc.Advise(context.Background(), challenge.StatusDating, nil, "Any tips for date night?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadline exceeded")
}
