// Package conversation holds the chat session state machine shared by the
// lunch chat and the nutrition briefing.
package conversation

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is a stage of a chat session.
type State string

const (
	StateIdle        State = "idle"
	StateGreeting    State = "greeting"
	StateMenuShown   State = "menu-shown"
	StateHealthAsked State = "health-asked"
	StateActive      State = "active"
	StateEnded       State = "ended"
)

// Kind separates the lunch chat from the post-lunch nutrition briefing.
type Kind string

const (
	KindMeal      Kind = "mealChat"
	KindNutrition Kind = "nutritionChat"
)

const (
	// MealTurnCap forces the lunch chat to end after this many user turns.
	MealTurnCap = 7
	// MinTurnsToEnd is the first turn at which a student may end the chat.
	MinTurnsToEnd = 3

	ClosingMessage = "대화가 충분히 진행됐어. 이제 음식 기록으로 넘어가자!"
)

// Roles used in the transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

var (
	ErrSessionEnded = errors.New("conversation already ended")
	ErrNotStarted   = errors.New("conversation has not reached the question stage")
	ErrTooEarly     = errors.New("conversation cannot be ended before turn 3")
	ErrEmptyMessage = errors.New("message is empty")
)

// Message is one transcript entry. Hidden entries are sent to the model but
// not shown to the student.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Hidden  bool   `json:"hidden,omitempty"`
}

// Step is a message the client should display after DelayMs.
type Step struct {
	Message Message `json:"message"`
	DelayMs int     `json:"delayMs"`
}

// Script is the fixed opening of a session.
type Script struct {
	Greeting string
	Menu     string
	Question string
}

// Session is the explicit state of one conversation.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Kind       Kind      `json:"kind"`
	Date       string    `json:"date"`
	State      State     `json:"state"`
	Turn       int       `json:"turn"`
	MaxTurns   int       `json:"maxTurns"`
	Transcript []Message `json:"transcript"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// New creates an idle session. maxTurns of zero means no cap.
func New(userID string, kind Kind, date string, maxTurns int) *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.New().String(),
		UserID:     userID,
		Kind:       kind,
		Date:       date,
		State:      StateIdle,
		MaxTurns:   maxTurns,
		Transcript: []Message{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Open runs idle → greeting → menu-shown → health-asked. The three script
// parts are returned as paced steps and recorded as a single assistant turn.
// Empty script parts are skipped.
func (s *Session) Open(script Script) ([]Step, error) {
	if s.State != StateIdle {
		return nil, errors.New("conversation already opened")
	}

	var steps []Step
	var parts []string
	stage := []struct {
		text  string
		state State
		delay int
	}{
		{script.Greeting, StateGreeting, 0},
		{script.Menu, StateMenuShown, 1000},
		{script.Question, StateHealthAsked, 2500},
	}
	for _, st := range stage {
		s.State = st.state
		if st.text == "" {
			continue
		}
		steps = append(steps, Step{Message: Message{Role: RoleAssistant, Content: st.text}, DelayMs: st.delay})
		parts = append(parts, st.text)
	}

	if len(parts) > 0 {
		s.Transcript = append(s.Transcript, Message{Role: RoleAssistant, Content: strings.Join(parts, "\n\n")})
	}
	s.touch()
	return steps, nil
}

// Accept records a student turn and moves the session to active.
func (s *Session) Accept(text string) error {
	switch s.State {
	case StateEnded:
		return ErrSessionEnded
	case StateHealthAsked, StateActive:
	default:
		return ErrNotStarted
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	s.Turn++
	s.State = StateActive
	s.Transcript = append(s.Transcript, Message{Role: RoleUser, Content: text})
	s.touch()
	return nil
}

// AcceptHidden records an automatic request to the model without counting
// it as a student turn.
func (s *Session) AcceptHidden(text string) error {
	if s.State == StateEnded {
		return ErrSessionEnded
	}
	s.State = StateActive
	s.Transcript = append(s.Transcript, Message{Role: RoleUser, Content: text, Hidden: true})
	s.touch()
	return nil
}

// Reply records an assistant turn.
func (s *Session) Reply(text string) {
	s.Transcript = append(s.Transcript, Message{Role: RoleAssistant, Content: text})
	s.touch()
}

// CanEnd reports whether the manual end control is available.
func (s *Session) CanEnd() bool {
	return s.State != StateEnded && s.Turn >= MinTurnsToEnd
}

// ShouldClose reports whether the turn cap has been reached.
func (s *Session) ShouldClose() bool {
	return s.State != StateEnded && s.MaxTurns > 0 && s.Turn >= s.MaxTurns
}

// Close appends msg and ends the session.
func (s *Session) Close(msg string) {
	if msg != "" {
		s.Reply(msg)
	}
	s.State = StateEnded
	s.touch()
}

// End ends the session at the student's request.
func (s *Session) End() error {
	if s.State == StateEnded {
		return ErrSessionEnded
	}
	if s.Turn < MinTurnsToEnd {
		return ErrTooEarly
	}
	s.State = StateEnded
	s.touch()
	return nil
}

// Ended reports whether input is closed.
func (s *Session) Ended() bool {
	return s.State == StateEnded
}

// Messages returns the system prompt followed by the transcript.
func (s *Session) Messages(system string) []Message {
	out := make([]Message, 0, len(s.Transcript)+1)
	out = append(out, Message{Role: RoleSystem, Content: system})
	out = append(out, s.Transcript...)
	return out
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}
