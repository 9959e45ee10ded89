package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/babcheck/babcheck/backend/internal/conversation"
	"github.com/babcheck/babcheck/backend/internal/menu"
	"github.com/babcheck/babcheck/backend/internal/models"
	"github.com/babcheck/babcheck/backend/internal/prompt"
	"github.com/babcheck/babcheck/backend/internal/store"
	"github.com/babcheck/babcheck/backend/internal/types"
)

// Client pacing for the nutrition briefing.
const (
	AnalysisDelayMs      = 1000
	SnackQuestionDelayMs = 500
)

// ErrLunchRequired is returned when the nutrition briefing is opened before
// lunch was recorded.
var ErrLunchRequired = errors.New("lunch record required before the nutrition briefing")

// ChatReply is what the client renders after each chat request.
type ChatReply struct {
	SessionID string              `json:"sessionId"`
	Kind      conversation.Kind   `json:"kind"`
	State     conversation.State  `json:"state"`
	Turn      int                 `json:"turn"`
	CanEnd    bool                `json:"canEnd"`
	Ended     bool                `json:"ended"`
	Steps     []conversation.Step `json:"steps"`
}

func newReply(sess *conversation.Session, steps []conversation.Step) *ChatReply {
	if steps == nil {
		steps = []conversation.Step{}
	}
	return &ChatReply{
		SessionID: sess.ID,
		Kind:      sess.Kind,
		State:     sess.State,
		Turn:      sess.Turn,
		CanEnd:    sess.CanEnd(),
		Ended:     sess.Ended(),
		Steps:     steps,
	}
}

// ChatService runs the lunch chat and the post-lunch nutrition briefing.
// Prompts are rebuilt from the menu and the stored profile on every turn.
type ChatService struct {
	menus    IMenuService
	records  store.RecordStore
	llm      ChatCompleter
	sessions *SessionStore
	log      logrus.FieldLogger
}

var _ IChatService = (*ChatService)(nil)

func NewChatService(menus IMenuService, records store.RecordStore, llm ChatCompleter, sessions *SessionStore, log logrus.FieldLogger) *ChatService {
	return &ChatService{
		menus:    menus,
		records:  records,
		llm:      llm,
		sessions: sessions,
		log:      log.WithField("service", "chat"),
	}
}

// chatContext is everything a prompt is built from.
type chatContext struct {
	daily   menu.Daily
	profile *models.UserRecord
	lunch   *models.FoodRecord
}

// load fetches the menu, the profile and, for the briefing, the lunch record
// concurrently. A missing profile is not an error.
func (s *ChatService) load(ctx context.Context, userID, date string, withLunch bool) (*chatContext, error) {
	day, err := s.menus.Normalize(date)
	if err != nil {
		return nil, err
	}

	var cc chatContext
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		daily, err := s.menus.ForDate(gctx, day)
		if err != nil {
			return err
		}
		cc.daily = daily
		return nil
	})
	g.Go(func() error {
		profile, err := s.records.GetProfile(gctx, userID)
		switch {
		case err == nil:
			cc.profile = profile
		case errors.Is(err, store.ErrNotFound):
		default:
			s.log.WithError(err).WithField("user_id", userID).Warn("Failed to load profile for chat")
		}
		return nil
	})
	if withLunch {
		g.Go(func() error {
			lunch, err := s.records.GetFoodRecord(gctx, userID, menu.ISODate(day), models.KindLunch)
			if errors.Is(err, store.ErrNotFound) {
				return ErrLunchRequired
			}
			if err != nil {
				return fmt.Errorf("failed to load lunch record: %w", err)
			}
			cc.lunch = lunch
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &cc, nil
}

// Start opens a lunch chat for date.
func (s *ChatService) Start(ctx context.Context, user types.Identity, date string) (*ChatReply, error) {
	cc, err := s.load(ctx, user.UserID, date, false)
	if err != nil {
		return nil, err
	}

	sess := conversation.New(user.UserID, conversation.KindMeal, cc.daily.Date, conversation.MealTurnCap)
	steps, err := sess.Open(conversation.Script{
		Greeting: prompt.MealGreeting,
		Menu:     cc.daily.FormatList(),
		Question: prompt.HealthQuestion,
	})
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.persist(ctx, user, sess)
	return newReply(sess, steps), nil
}

// StartNutrition opens the briefing on the recorded lunch and runs the first
// analysis turn.
func (s *ChatService) StartNutrition(ctx context.Context, user types.Identity, date string) (*ChatReply, error) {
	cc, err := s.load(ctx, user.UserID, date, true)
	if err != nil {
		return nil, err
	}

	sess := conversation.New(user.UserID, conversation.KindNutrition, cc.daily.Date, 0)
	steps, err := sess.Open(conversation.Script{Greeting: prompt.NutritionGreeting(cc.daily, cc.lunch)})
	if err != nil {
		return nil, err
	}
	if err := sess.AcceptHidden(prompt.NutritionAnalysisRequest(cc.profile, cc.daily, cc.lunch)); err != nil {
		return nil, err
	}

	analysis := s.complete(ctx, sess, prompt.NutritionBriefing(cc.profile, cc.daily, cc.lunch))
	sess.Reply(analysis)
	steps = append(steps, conversation.Step{
		Message: conversation.Message{Role: conversation.RoleAssistant, Content: analysis},
		DelayMs: AnalysisDelayMs,
	})
	if !prompt.AsksAboutSnack(analysis) {
		sess.Reply(prompt.SnackQuestion)
		steps = append(steps, conversation.Step{
			Message: conversation.Message{Role: conversation.RoleAssistant, Content: prompt.SnackQuestion},
			DelayMs: SnackQuestionDelayMs,
		})
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.persist(ctx, user, sess)
	return newReply(sess, steps), nil
}

// Send records a student turn and returns the assistant's answer, plus the
// allergy notice or the closing line when they apply.
func (s *ChatService) Send(ctx context.Context, user types.Identity, sessionID, text string) (*ChatReply, error) {
	sess, err := s.sessions.Load(ctx, user.UserID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Accept(text); err != nil {
		return nil, err
	}

	isNutrition := sess.Kind == conversation.KindNutrition
	cc, err := s.load(ctx, user.UserID, sess.Date, isNutrition)
	if err != nil {
		return nil, err
	}

	var system string
	if isNutrition {
		system = prompt.NutritionBriefing(cc.profile, cc.daily, cc.lunch)
	} else {
		system = prompt.MealChat(cc.profile, cc.daily, user.Name)
	}

	answer := s.complete(ctx, sess, system)
	sess.Reply(answer)
	steps := []conversation.Step{{Message: conversation.Message{Role: conversation.RoleAssistant, Content: answer}}}

	if !isNutrition {
		if sess.Turn <= prompt.HealthFollowUpTurns && prompt.IsHealthReply(text) && cc.profile != nil {
			if notice := prompt.AllergyNotice(user.Name, cc.profile.Allergies, cc.daily.Items); notice != "" {
				sess.Reply(notice)
				steps = append(steps, conversation.Step{
					Message: conversation.Message{Role: conversation.RoleAssistant, Content: notice},
					DelayMs: prompt.HealthFollowUpDelayMs,
				})
			}
		}
		if sess.ShouldClose() {
			sess.Close(conversation.ClosingMessage)
			steps = append(steps, conversation.Step{
				Message: conversation.Message{Role: conversation.RoleAssistant, Content: conversation.ClosingMessage},
			})
		}
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.persist(ctx, user, sess)
	return newReply(sess, steps), nil
}

// End closes the session at the student's request.
func (s *ChatService) End(ctx context.Context, user types.Identity, sessionID string) (*ChatReply, error) {
	sess, err := s.sessions.Load(ctx, user.UserID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.End(); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.persist(ctx, user, sess)
	return newReply(sess, nil), nil
}

// complete asks the model for the next assistant turn. Failures become the
// apology line so the conversation can continue.
func (s *ChatService) complete(ctx context.Context, sess *conversation.Session, system string) string {
	history := sess.Messages(system)
	msgs := make([]Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, Message{Role: m.Role, Content: m.Content})
	}

	res, err := s.llm.Complete(ctx, ChatRequest{
		Model:       DefaultChatModel,
		Messages:    msgs,
		MaxTokens:   intPtr(ChatMaxTokens),
		Temperature: floatPtr(ChatTemperature),
	})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"session_id": sess.ID,
			"kind":       sess.Kind,
		}).Error("Chat completion failed")
		return prompt.Apology
	}
	if res.Truncated() {
		s.log.WithField("session_id", sess.ID).Warn("Chat completion truncated at max_tokens")
		return res.Content + prompt.TruncationNote
	}
	return res.Content
}

// persist writes the transcript to chatHistory. Failures are logged only.
func (s *ChatService) persist(ctx context.Context, user types.Identity, sess *conversation.Session) {
	msgs := make([]models.ChatMessage, 0, len(sess.Transcript))
	for _, m := range sess.Transcript {
		msgs = append(msgs, models.ChatMessage{Role: m.Role, Content: m.Content, Hidden: m.Hidden})
	}
	h := &models.ChatHistory{
		UserID:    user.UserID,
		UserEmail: user.Email,
		UserName:  user.StoredName(),
		Date:      menu.ISODate(sess.Date),
		Type:      string(sess.Kind),
		SessionID: sess.ID,
		Turns:     sess.Turn,
		Messages:  msgs,
	}
	if _, err := s.records.UpsertChatHistory(ctx, h); err != nil {
		s.log.WithError(err).WithField("session_id", sess.ID).Warn("Failed to save chat history")
	}
}
