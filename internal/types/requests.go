package types

// LunchItemInput is one dish and the servings eaten.
type LunchItemInput struct {
	Name  string `json:"name" binding:"required"`
	Count int    `json:"count"`
}

// LunchRequest represents the request body for recording lunch
type LunchRequest struct {
	Date  string           `json:"date"`
	Items []LunchItemInput `json:"items" binding:"required"`
}

// SnackRequest represents the request body for recording snacks
type SnackRequest struct {
	Date   string   `json:"date"`
	Snacks []string `json:"snacks" binding:"required"`
}

// SnackAnalyzeRequest carries a snack photo as base64 or a data URL.
type SnackAnalyzeRequest struct {
	Image string `json:"image" binding:"required"`
	Date  string `json:"date"`
}

// SnackAnalysis is the result of a snack photo analysis.
type SnackAnalysis struct {
	Snacks   []string `json:"snacks"`
	Raw      string   `json:"raw"`
	PhotoURL string   `json:"photoUrl,omitempty"`
	PhotoKey string   `json:"photoKey,omitempty"`
}

// ChatStartRequest opens a lunch chat or nutrition briefing.
type ChatStartRequest struct {
	Date string `json:"date"`
}

// ChatMessageRequest is one student turn.
type ChatMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// RoleRequest switches the caller between student and teacher.
type RoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student teacher"`
}

// ChatProxyRequest is the openai-chat proxy body.
type ChatProxyRequest struct {
	Messages    []map[string]any `json:"messages"`
	Model       string           `json:"model"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
}

// VisionProxyRequest is the openai-vision proxy body.
type VisionProxyRequest struct {
	Base64Image string `json:"base64Image"`
	Prompt      string `json:"prompt"`
	Model       string `json:"model"`
}
