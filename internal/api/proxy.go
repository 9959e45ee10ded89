package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/babcheck/babcheck/backend/config"
	"github.com/babcheck/babcheck/backend/internal/middleware"
	"github.com/babcheck/babcheck/backend/internal/neis"
	"github.com/babcheck/babcheck/backend/internal/service"
	"github.com/babcheck/babcheck/backend/internal/types"
)

// Mount points of the proxy functions. The second keeps old web clients
// working.
const (
	ProxyPrefix       = "/api/proxy"
	LegacyProxyPrefix = "/.netlify/functions"
)

const unknownErrorDetails = "알 수 없는 오류가 발생했습니다."

// ProxyHandler forwards browser calls to NEIS and OpenAI so the API keys
// stay on the server.
type ProxyHandler struct {
	cfg     *config.Config
	neis    *neis.Client
	llm     *service.LLMService
	limiter *middleware.RateLimiter
	log     logrus.FieldLogger
}

// NewProxyHandler creates the proxy handler. limiter may be nil.
func NewProxyHandler(cfg *config.Config, neisClient *neis.Client, llm *service.LLMService, limiter *middleware.RateLimiter, log logrus.FieldLogger) *ProxyHandler {
	return &ProxyHandler{
		cfg:     cfg,
		neis:    neisClient,
		llm:     llm,
		limiter: limiter,
		log:     log.WithField("handler", "proxy"),
	}
}

// RegisterRoutes mounts the four functions under prefix.
func (h *ProxyHandler) RegisterRoutes(router gin.IRouter) {
	llmChain := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		chain := []gin.HandlerFunc{allowMethod(http.MethodPost)}
		if h.limiter != nil {
			chain = append(chain, h.limiter.Middleware(middleware.ByClientIP))
		}
		return append(chain, handler)
	}

	router.Any("/neis-api", allowMethod(http.MethodGet), h.Meal)
	router.Any("/school-search", allowMethod(http.MethodGet), h.SchoolSearch)
	router.Any("/openai-chat", llmChain(h.OpenAIChat)...)
	router.Any("/openai-vision", llmChain(h.OpenAIVision)...)
}

// IsProxyPath reports whether path is served by the proxy functions.
func IsProxyPath(path string) bool {
	return strings.HasPrefix(path, ProxyPrefix+"/") || strings.HasPrefix(path, LegacyProxyPrefix+"/")
}

// allowMethod sets the open CORS headers of the functions, answers
// preflights and rejects every method but method.
func allowMethod(method string) gin.HandlerFunc {
	allowed := method + ", OPTIONS"
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Allow-Methods", allowed)

		switch c.Request.Method {
		case http.MethodOptions:
			c.String(http.StatusOK, "")
			c.Abort()
		case method:
			c.Next()
		default:
			c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		}
	}
}

// Meal proxies mealServiceDietInfo for ?date=YYYYMMDD (default today) and
// returns the NEIS JSON unchanged.
func (h *ProxyHandler) Meal(c *gin.Context) {
	if missing := h.cfg.MissingNEIS(); len(missing) > 0 {
		h.log.WithField("missing", missing).Error("NEIS configuration missing")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":            "NEIS API configuration missing",
			"details":          "환경 변수가 설정되지 않았습니다: " + strings.Join(missing, ", ") + ". 서버 환경 변수를 설정해주세요.",
			"missingVariables": missing,
		})
		return
	}

	date := c.Query("date")
	if date == "" {
		date = time.Now().In(h.cfg.Location()).Format("20060102")
	}

	body, err := h.neis.MealRaw(c.Request.Context(), date)
	if err != nil {
		h.neisFailure(c, err, "NEIS API 호출에 실패했습니다.")
		return
	}
	if !json.Valid(body) {
		h.log.WithField("date", date).Error("NEIS returned invalid JSON")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid JSON from NEIS API", "details": unknownErrorDetails})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// SchoolResult is one school-search hit.
type SchoolResult struct {
	SchoolName          string `json:"schoolName"`
	EducationOfficeCode string `json:"educationOfficeCode"`
	SchoolCode          string `json:"schoolCode"`
	SchoolType          string `json:"schoolType"`
	Address             string `json:"address"`
}

// SchoolSearch looks schools up by ?schoolName=.
func (h *ProxyHandler) SchoolSearch(c *gin.Context) {
	if h.cfg.NEISAPIKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "NEIS API KEY configuration missing",
			"details": config.EnvNEISAPIKey + " 환경 변수가 설정되지 않았습니다. 서버 환경 변수를 설정해주세요.",
		})
		return
	}

	name := strings.TrimSpace(c.Query("schoolName"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "School name is required",
			"details": "학교 이름을 입력해주세요.",
		})
		return
	}

	rows, err := h.neis.SearchSchools(c.Request.Context(), name)
	var resErr *neis.ResultError
	if errors.As(err, &resErr) {
		msg := resErr.Message
		if msg == "" {
			msg = "검색 결과가 없습니다."
		}
		c.JSON(http.StatusOK, gin.H{"error": msg, "code": resErr.Code, "schools": []SchoolResult{}})
		return
	}
	if err != nil {
		h.neisFailure(c, err, "학교 정보 검색에 실패했습니다.")
		return
	}

	schools := make([]SchoolResult, 0, len(rows))
	for _, r := range rows {
		schools = append(schools, SchoolResult{
			SchoolName:          r.Name,
			EducationOfficeCode: r.OfficeCode,
			SchoolCode:          r.SchoolCode,
			SchoolType:          r.Kind,
			Address:             r.Address,
		})
	}
	c.JSON(http.StatusOK, gin.H{"schools": schools, "count": len(schools)})
}

func (h *ProxyHandler) neisFailure(c *gin.Context, err error, fallback string) {
	var httpErr *neis.HTTPError
	if errors.As(err, &httpErr) {
		h.log.WithField("status", httpErr.Status).Warn("NEIS API call failed")
		details := httpErr.Body
		if details == "" {
			details = fallback
		}
		c.JSON(httpErr.Status, gin.H{"error": httpErr.Error(), "details": details})
		return
	}
	h.log.WithError(err).Error("NEIS API call failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "details": unknownErrorDetails})
}

// OpenAIChat forwards {messages, model, max_tokens, temperature}.
func (h *ProxyHandler) OpenAIChat(c *gin.Context) {
	var req types.ChatProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body", "details": err.Error()})
		return
	}
	if !h.openAIConfigured(c) {
		return
	}

	if req.Model == "" {
		req.Model = service.DefaultChatModel
	}
	payload := gin.H{"model": req.Model, "messages": req.Messages}
	if req.MaxTokens != nil {
		payload["max_tokens"] = *req.MaxTokens
	}
	if req.Temperature != nil {
		payload["temperature"] = *req.Temperature
	}
	h.forward(c, payload, "OpenAI API 호출에 실패했습니다.")
}

// OpenAIVision wraps {base64Image, prompt, model} into a single image turn.
func (h *ProxyHandler) OpenAIVision(c *gin.Context) {
	var req types.VisionProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body", "details": err.Error()})
		return
	}
	if !h.openAIConfigured(c) {
		return
	}
	h.forward(c, service.VisionRequest(req.Base64Image, req.Prompt, req.Model), "OpenAI Vision API 호출에 실패했습니다.")
}

func (h *ProxyHandler) openAIConfigured(c *gin.Context) bool {
	if len(h.cfg.MissingOpenAI()) == 0 {
		return true
	}
	h.log.Error("OpenAI API key not configured")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "OpenAI API key not configured",
		"details": config.EnvOpenAIAPIKey + " 환경 변수가 설정되지 않았습니다. 서버 환경 변수를 설정해주세요.",
	})
	return false
}

func (h *ProxyHandler) forward(c *gin.Context, payload any, fallback string) {
	status, body, err := h.llm.Forward(c.Request.Context(), payload)
	if err != nil {
		h.log.WithError(err).Error("OpenAI request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "details": unknownErrorDetails})
		return
	}
	if status < 200 || status > 299 {
		apiErr := service.ParseAPIError(status, body)
		h.log.WithFields(logrus.Fields{"status": status, "message": apiErr.Message}).Warn("OpenAI API returned an error")
		var details any = fallback
		if len(apiErr.Details) > 0 {
			details = apiErr.Details
		}
		c.JSON(status, gin.H{"error": apiErr.Message, "details": details})
		return
	}
	c.Data(status, "application/json; charset=utf-8", body)
}
