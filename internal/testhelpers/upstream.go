package testhelpers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/babcheck/babcheck/backend/config"
)

// Config returns defaults with NEIS and OpenAI pointed at the given fakes.
// Empty URLs leave the upstream unconfigured.
func Config(neisURL, openAIURL string) *config.Config {
	cfg := config.Defaults()
	if neisURL != "" {
		cfg.NEISAPIKey = "neis-key"
		cfg.NEISOfficeCode = "B10"
		cfg.NEISSchoolCode = "7010000"
		cfg.NEISBaseURL = neisURL
	}
	if openAIURL != "" {
		cfg.OpenAIAPIKey = "sk-test"
		cfg.OpenAIURL = openAIURL
	}
	cfg.AdminUIDs = []string{"teacher-1"}
	return cfg
}

// MealJSON renders a successful mealServiceDietInfo body with one row.
func MealJSON(date, dishes, calories, nutrition string) string {
	row := map[string]string{
		"MLSV_YMD":    date,
		"MMEAL_SC_NM": "중식",
		"DDISH_NM":    dishes,
		"CAL_INFO":    calories,
		"NTR_INFO":    nutrition,
		"ORPLC_INFO":  "쌀 : 국내산",
		"SCHUL_NM":    "테스트중학교",
	}
	body, _ := json.Marshal(map[string]any{
		"mealServiceDietInfo": []any{
			map[string]any{"head": []any{
				map[string]any{"list_total_count": 1},
				map[string]any{"RESULT": map[string]string{"CODE": "INFO-000", "MESSAGE": "정상 처리되었습니다."}},
			}},
			map[string]any{"row": []any{row}},
		},
	})
	return string(body)
}

// FakeNEIS serves canned NEIS responses and counts calls.
type FakeNEIS struct {
	*httptest.Server

	mu     sync.Mutex
	calls  int
	status int
	body   string
}

// NewFakeNEIS starts a fake that answers every request with body.
func NewFakeNEIS(t *testing.T, body string) *FakeNEIS {
	t.Helper()
	f := &FakeNEIS{status: http.StatusOK, body: body}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls++
		status, body := f.status, f.body
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(f.Close)
	return f
}

// Respond changes the canned answer.
func (f *FakeNEIS) Respond(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.body = status, body
}

func (f *FakeNEIS) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakeOpenAI is a chat-completions endpoint that replies with queued
// answers and records every request body.
type FakeOpenAI struct {
	*httptest.Server

	mu       sync.Mutex
	replies  []string
	finish   string
	status   int
	errBody  string
	requests []map[string]any
}

func NewFakeOpenAI(t *testing.T, replies ...string) *FakeOpenAI {
	t.Helper()
	f := &FakeOpenAI{replies: replies, finish: "stop", status: http.StatusOK}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *FakeOpenAI) serve(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	_ = json.NewDecoder(r.Body).Decode(&payload)

	f.mu.Lock()
	f.requests = append(f.requests, payload)
	status, errBody, finish := f.status, f.errBody, f.finish
	reply := "좋아!"
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		io.WriteString(w, errBody)
		return
	}
	body, _ := json.Marshal(map[string]any{
		"id": "chatcmpl-test",
		"choices": []any{map[string]any{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": reply},
			"finish_reason": finish,
		}},
	})
	w.Write(body)
}

// Fail makes every following request answer status with an OpenAI error
// object carrying message.
func (f *FakeOpenAI) Fail(status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.errBody = fmt.Sprintf(`{"error":{"message":%q,"type":"invalid_request_error"}}`, message)
}

// FinishWith sets the finish_reason of following answers.
func (f *FakeOpenAI) FinishWith(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finish = reason
}

// Requests returns the decoded request bodies received so far.
func (f *FakeOpenAI) Requests() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, len(f.requests))
	copy(out, f.requests)
	return out
}

// LastRequest returns the most recent request body.
func (f *FakeOpenAI) LastRequest() map[string]any {
	reqs := f.Requests()
	if len(reqs) == 0 {
		return nil
	}
	return reqs[len(reqs)-1]
}
