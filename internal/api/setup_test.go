package api_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/babcheck/babcheck/backend/config"
	"github.com/babcheck/babcheck/backend/internal/api"
	"github.com/babcheck/babcheck/backend/internal/logger"
	"github.com/babcheck/babcheck/backend/internal/middleware"
	"github.com/babcheck/babcheck/backend/internal/neis"
	"github.com/babcheck/babcheck/backend/internal/service"
	"github.com/babcheck/babcheck/backend/internal/store"
	"github.com/babcheck/babcheck/backend/internal/testhelpers"
	"github.com/babcheck/babcheck/backend/internal/types"
)

const (
	testDate = "20240315"
	isoDate  = "2024-03-15"
	dishes   = "쌀밥<br/>우유(2)<br/>돈까스(1.2.5.6.10)<br/>배추김치(9.13)"
)

var (
	student = types.Identity{UserID: "u1", Email: "u1@school.kr", Name: "지민"}
	teacher = types.Identity{UserID: "teacher-1", Email: "t@school.kr", Name: "김선생"}
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	cfg    *config.Config
	neis   *testhelpers.FakeNEIS
	openai *testhelpers.FakeOpenAI
	store  store.RecordStore
	tokens *service.TokenService
	router *gin.Engine
}

func newEnv(t *testing.T, replies ...string) *env {
	t.Helper()
	e := &env{
		neis:   testhelpers.NewFakeNEIS(t, testhelpers.MealJSON(testDate, dishes, "800 Kcal", "탄수화물(g) : 100.5")),
		openai: testhelpers.NewFakeOpenAI(t, replies...),
		store:  store.NewGormStore(testhelpers.NewSQLiteDB(t)),
	}
	e.cfg = testhelpers.Config(e.neis.URL, e.openai.URL)
	e.cfg.JWTSecret = "test-secret"
	e.build(t)
	return e
}

// build wires the router from e.cfg; call it again after changing cfg.
func (e *env) build(t *testing.T) {
	t.Helper()
	log := logger.Discard()
	_, rdb := testhelpers.NewRedis(t)

	neisClient := neis.NewClient(neis.Config{
		APIKey:     e.cfg.NEISAPIKey,
		OfficeCode: e.cfg.NEISOfficeCode,
		SchoolCode: e.cfg.NEISSchoolCode,
		BaseURL:    e.cfg.NEISBaseURL,
	}, e.neis.Client())
	llm := service.NewLLMService(e.cfg.OpenAIAPIKey, e.cfg.OpenAIURL, e.openai.Client(), log)
	menus := service.NewMenuService(neisClient, rdb, e.cfg, log)
	e.tokens = service.NewTokenService(e.cfg.JWTSecret)
	loc := e.cfg.Location()

	e.router = gin.New()
	api.RegisterRoutes(e.router, api.Services{
		Config:  e.cfg,
		Tokens:  e.tokens,
		Store:   e.store,
		Redis:   rdb,
		Menus:   menus,
		Chats:   service.NewChatService(menus, e.store, llm, service.NewSessionStore(rdb, e.cfg.SessionTTL), log),
		Records: service.NewRecordService(menus, e.store, log),
		Profile: service.NewProfileService(e.store, loc, log),
		Users:   service.NewUserService(e.store, e.cfg, log),
		Snacks:  service.NewSnackService(llm, nil, loc, log),
		Monitor: service.NewMonitorService(e.store, loc, log),
		Proxy: api.NewProxyHandler(e.cfg, neisClient, llm,
			middleware.NewProxyRateLimiter(rdb, e.cfg.ProxyRateLimit, time.Minute, log), log),
	})
}

// do sends body as JSON. A zero identity sends no token.
func (e *env) do(t *testing.T, method, path string, user types.Identity, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user.UserID != "" {
		token, err := e.tokens.Issue(user, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
