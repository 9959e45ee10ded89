package service

import (
	"context"
	"errors"
	"time"

	"github.com/babcheck/babcheck/backend/internal/menu"
	"github.com/babcheck/babcheck/backend/internal/models"
	"github.com/babcheck/babcheck/backend/internal/neis"
	"github.com/babcheck/babcheck/backend/internal/types"
)

// ErrInvalidInput marks a request the caller has to fix.
var ErrInvalidInput = errors.New("invalid input")

// IMenuService defines the interface for daily menu lookups
type IMenuService interface {
	ForDate(ctx context.Context, date string) (menu.Daily, error)
	Normalize(date string) (string, error)
}

// IChatService defines the interface for the lunch chat and nutrition briefing
type IChatService interface {
	Start(ctx context.Context, user types.Identity, date string) (*ChatReply, error)
	StartNutrition(ctx context.Context, user types.Identity, date string) (*ChatReply, error)
	Send(ctx context.Context, user types.Identity, sessionID, text string) (*ChatReply, error)
	End(ctx context.Context, user types.Identity, sessionID string) (*ChatReply, error)
}

// IRecordService defines the interface for lunch and snack records
type IRecordService interface {
	SubmitLunch(ctx context.Context, user types.Identity, req *types.LunchRequest) (*models.FoodRecord, bool, error)
	SubmitSnack(ctx context.Context, user types.Identity, req *types.SnackRequest) (*models.FoodRecord, bool, error)
	Get(ctx context.Context, user types.Identity, date string, kind models.RecordKind) (*models.FoodRecord, error)
}

// IProfileService defines the interface for health profile operations
type IProfileService interface {
	GetProfile(ctx context.Context, user types.Identity) (*types.ProfileResponse, error)
	SaveProfile(ctx context.Context, user types.Identity, req *types.ProfileRequest) (*types.ProfileResponse, error)
	History(ctx context.Context, user types.Identity, start, end string) ([]models.DailyRecord, error)
}

// IUserService defines the interface for account roles
type IUserService interface {
	Me(ctx context.Context, user types.Identity) (*types.MeResponse, error)
	SetRole(ctx context.Context, user types.Identity, role string) (*models.User, error)
}

// ISnackService defines the interface for snack photo analysis
type ISnackService interface {
	Analyze(ctx context.Context, user types.Identity, req *types.SnackAnalyzeRequest) (*types.SnackAnalysis, error)
}

// IMonitorService defines the interface for the teacher monitor
type IMonitorService interface {
	Records(ctx context.Context, user types.Identity, date string) (*types.MonitorResponse, error)
}

// ITokenService defines the interface for session tokens
type ITokenService interface {
	Issue(user types.Identity, ttl time.Duration) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
}

// ChatCompleter is the part of the LLM client the services use.
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (*Completion, error)
}

// MealFetcher returns the NEIS meal row for a date.
type MealFetcher interface {
	Meal(ctx context.Context, date string) (*neis.MealRow, error)
}

// PhotoArchive stores snack photos.
type PhotoArchive interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) error
	GeneratePresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)
}

// AdminChecker reports whether a uid is on the admin allow-list.
type AdminChecker interface {
	IsAdmin(uid string) bool
}

var (
	_ ChatCompleter = (*LLMService)(nil)
	_ MealFetcher   = (*neis.Client)(nil)
)
