package service_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/babcheck/babcheck/backend/config"
	"github.com/babcheck/babcheck/backend/internal/logger"
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

var student = types.Identity{UserID: "u1", Email: "u1@school.kr", Name: "지민"}

// env wires the services against sqlite, miniredis and fake upstreams.
type env struct {
	cfg    *config.Config
	neis   *testhelpers.FakeNEIS
	openai *testhelpers.FakeOpenAI
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	db     *gorm.DB
	store  store.RecordStore

	menus    *service.MenuService
	llm      *service.LLMService
	chat     *service.ChatService
	records  *service.RecordService
	profiles *service.ProfileService
	users    *service.UserService
	monitor  *service.MonitorService
}

func newEnv(t *testing.T, replies ...string) *env {
	t.Helper()
	e := &env{
		neis:   testhelpers.NewFakeNEIS(t, testhelpers.MealJSON(testDate, dishes, "800 Kcal", "탄수화물(g) : 100.5<br/>단백질(g) : 30.2")),
		openai: testhelpers.NewFakeOpenAI(t, replies...),
		db:     testhelpers.NewSQLiteDB(t),
	}
	e.cfg = testhelpers.Config(e.neis.URL, e.openai.URL)
	e.mr, e.rdb = testhelpers.NewRedis(t)
	e.store = store.NewGormStore(e.db)
	e.build()
	return e
}

func (e *env) build() {
	log := logger.Discard()
	client := neis.NewClient(neis.Config{
		APIKey:     e.cfg.NEISAPIKey,
		OfficeCode: e.cfg.NEISOfficeCode,
		SchoolCode: e.cfg.NEISSchoolCode,
		BaseURL:    e.cfg.NEISBaseURL,
	}, e.neis.Client())

	e.menus = service.NewMenuService(client, e.rdb, e.cfg, log)
	e.llm = service.NewLLMService(e.cfg.OpenAIAPIKey, e.cfg.OpenAIURL, e.openai.Client(), log)
	sessions := service.NewSessionStore(e.rdb, e.cfg.SessionTTL)
	e.chat = service.NewChatService(e.menus, e.store, e.llm, sessions, log)
	e.records = service.NewRecordService(e.menus, e.store, log)
	e.profiles = service.NewProfileService(e.store, e.cfg.Location(), log)
	e.users = service.NewUserService(e.store, e.cfg, log)
	e.monitor = service.NewMonitorService(e.store, e.cfg.Location(), log)
}
