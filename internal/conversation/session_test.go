package conversation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openedSession(t *testing.T, maxTurns int) *Session {
	t.Helper()
	s := New("student-1", KindMeal, "20250310", maxTurns)
	_, err := s.Open(Script{Greeting: "안녕!", Menu: "1. 밥", Question: "컨디션은?"})
	require.NoError(t, err)
	return s
}

func TestOpen(t *testing.T) {
	s := New("student-1", KindMeal, "20250310", MealTurnCap)
	assert.Equal(t, StateIdle, s.State)

	steps, err := s.Open(Script{Greeting: "안녕!", Menu: "1. 밥", Question: "컨디션은?"})
	require.NoError(t, err)

	require.Len(t, steps, 3)
	assert.Equal(t, []int{0, 1000, 2500}, []int{steps[0].DelayMs, steps[1].DelayMs, steps[2].DelayMs})
	assert.Equal(t, StateHealthAsked, s.State)
	require.Len(t, s.Transcript, 1)
	assert.Equal(t, "안녕!\n\n1. 밥\n\n컨디션은?", s.Transcript[0].Content)
	assert.Equal(t, RoleAssistant, s.Transcript[0].Role)

	_, err = s.Open(Script{Greeting: "again"})
	assert.Error(t, err)
}

func TestAcceptRequiresOpen(t *testing.T) {
	s := New("student-1", KindMeal, "20250310", MealTurnCap)
	assert.ErrorIs(t, s.Accept("hi"), ErrNotStarted)
}

func TestEmptyMessageRejected(t *testing.T) {
	s := openedSession(t, MealTurnCap)
	assert.ErrorIs(t, s.Accept("   "), ErrEmptyMessage)
	assert.Zero(t, s.Turn)
}

func TestTurnCapAndManualEnd(t *testing.T) {
	s := openedSession(t, MealTurnCap)

	for turn := 1; turn <= MealTurnCap; turn++ {
		require.NoError(t, s.Accept(fmt.Sprintf("message %d", turn)))
		s.Reply("ok")

		assert.Equal(t, turn, s.Turn)
		assert.Equal(t, StateActive, s.State)
		assert.Equal(t, turn >= 3, s.CanEnd(), "turn %d", turn)
		assert.Equal(t, turn >= 7, s.ShouldClose(), "turn %d", turn)
	}

	s.Close(ClosingMessage)
	assert.True(t, s.Ended())
	assert.Equal(t, ClosingMessage, s.Transcript[len(s.Transcript)-1].Content)
	assert.False(t, s.CanEnd())
	assert.ErrorIs(t, s.Accept("one more"), ErrSessionEnded)
}

func TestEndTooEarly(t *testing.T) {
	s := openedSession(t, MealTurnCap)
	require.NoError(t, s.Accept("좋아"))
	require.NoError(t, s.Accept("배고파"))

	assert.ErrorIs(t, s.End(), ErrTooEarly)

	require.NoError(t, s.Accept("끝낼래"))
	require.NoError(t, s.End())
	assert.True(t, s.Ended())
	assert.ErrorIs(t, s.End(), ErrSessionEnded)
}

func TestUncappedSession(t *testing.T) {
	s := New("student-1", KindNutrition, "20250310", 0)
	_, err := s.Open(Script{Greeting: "안녕!"})
	require.NoError(t, err)
	require.NoError(t, s.AcceptHidden("analyse"))
	assert.Zero(t, s.Turn)

	for i := 0; i < 20; i++ {
		require.NoError(t, s.Accept("more"))
	}
	assert.False(t, s.ShouldClose())
}

func TestMessagesPrependsSystem(t *testing.T) {
	s := openedSession(t, MealTurnCap)
	require.NoError(t, s.Accept("좋아"))

	msgs := s.Messages("system prompt")
	require.Len(t, msgs, 3)
	assert.Equal(t, Message{Role: RoleSystem, Content: "system prompt"}, msgs[0])
	assert.Equal(t, RoleUser, msgs[2].Role)
}
