// Package neis talks to the NEIS open API (open.neis.go.kr) for school meal
// menus and school lookups.
package neis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const (
	// DefaultBaseURL is the NEIS open API hub.
	DefaultBaseURL = "https://open.neis.go.kr/hub"

	// CodeOK is the RESULT.CODE NEIS returns for a successful lookup.
	CodeOK = "INFO-000"
)

// Config identifies the API key and the school whose meals are served.
type Config struct {
	APIKey     string
	OfficeCode string // ATPT_OFCDC_SC_CODE
	SchoolCode string // SD_SCHUL_CODE
	BaseURL    string
}

// Client is a thin NEIS HTTP client.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a client. A nil httpClient uses http.DefaultClient, so
// request deadlines come from the caller's context.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, http: httpClient}
}

// HTTPError is a non-2xx answer from NEIS.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("NEIS API HTTP error: %d", e.Status)
}

// ResultError is a NEIS-level failure reported in RESULT.CODE, for example
// INFO-200 when no data exists for the date.
type ResultError struct {
	Code    string
	Message string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("NEIS result %s: %s", e.Code, e.Message)
}

// Result is the RESULT object NEIS attaches to every response.
type Result struct {
	Code    string `json:"CODE"`
	Message string `json:"MESSAGE"`
}

// MealRow holds the fields of a mealServiceDietInfo row this service reads.
type MealRow struct {
	Date       string `json:"MLSV_YMD"`
	MealName   string `json:"MMEAL_SC_NM"`
	Dishes     string `json:"DDISH_NM"`
	Calories   string `json:"CAL_INFO"`
	Nutrition  string `json:"NTR_INFO"`
	Origin     string `json:"ORPLC_INFO"`
	SchoolName string `json:"SCHUL_NM"`
}

// SchoolRow is a schoolInfo row.
type SchoolRow struct {
	Name       string `json:"SCHUL_NM"`
	OfficeCode string `json:"ATPT_OFCDC_SC_CODE"`
	SchoolCode string `json:"SD_SCHUL_CODE"`
	Kind       string `json:"SCHUL_KND_SC_NM"`
	Address    string `json:"ORG_RDNMA"`
}

type section[T any] struct {
	Row []T `json:"row"`
}

type mealResponse struct {
	Result   *Result            `json:"RESULT"`
	DietInfo []section[MealRow] `json:"mealServiceDietInfo"`
}

type schoolResponse struct {
	Result     *Result              `json:"RESULT"`
	SchoolInfo []section[SchoolRow] `json:"schoolInfo"`
}

// MealURL builds the mealServiceDietInfo URL for a YYYYMMDD date.
func (c *Client) MealURL(date string) string {
	q := url.Values{}
	q.Set("KEY", c.cfg.APIKey)
	q.Set("Type", "json")
	q.Set("ATPT_OFCDC_SC_CODE", c.cfg.OfficeCode)
	q.Set("SD_SCHUL_CODE", c.cfg.SchoolCode)
	q.Set("MLSV_YMD", date)
	return c.cfg.BaseURL + "/mealServiceDietInfo?" + q.Encode()
}

// SchoolURL builds the schoolInfo URL for a school name search.
func (c *Client) SchoolURL(name string) string {
	q := url.Values{}
	q.Set("KEY", c.cfg.APIKey)
	q.Set("Type", "json")
	q.Set("SCHUL_NM", name)
	return c.cfg.BaseURL + "/schoolInfo?" + q.Encode()
}

// MealRaw fetches the meal response for date and returns the body untouched.
// Non-2xx answers come back as *HTTPError.
func (c *Client) MealRaw(ctx context.Context, date string) ([]byte, error) {
	return c.get(ctx, c.MealURL(date))
}

// Meal returns the first non-empty meal row for date.
func (c *Client) Meal(ctx context.Context, date string) (*MealRow, error) {
	body, err := c.MealRaw(ctx, date)
	if err != nil {
		return nil, err
	}
	return ParseMeal(body)
}

// ParseMeal extracts the first row of the first non-empty row section.
func ParseMeal(body []byte) (*MealRow, error) {
	var resp mealResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode NEIS meal response: %w", err)
	}
	if resp.Result != nil && resp.Result.Code != CodeOK {
		return nil, &ResultError{Code: resp.Result.Code, Message: resp.Result.Message}
	}
	// index 0 is the head section
	for i := 1; i < len(resp.DietInfo); i++ {
		if rows := resp.DietInfo[i].Row; len(rows) > 0 {
			return &rows[0], nil
		}
	}
	return nil, &ResultError{Code: "EMPTY", Message: "no meal rows in response"}
}

// SearchSchools looks up schools by name.
func (c *Client) SearchSchools(ctx context.Context, name string) ([]SchoolRow, error) {
	body, err := c.get(ctx, c.SchoolURL(name))
	if err != nil {
		return nil, err
	}
	var resp schoolResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode NEIS school response: %w", err)
	}
	if resp.Result != nil && resp.Result.Code != CodeOK {
		return nil, &ResultError{Code: resp.Result.Code, Message: resp.Result.Message}
	}
	if len(resp.SchoolInfo) < 2 {
		return []SchoolRow{}, nil
	}
	rows := resp.SchoolInfo[1].Row
	if rows == nil {
		rows = []SchoolRow{}
	}
	return rows, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create NEIS request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call NEIS API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read NEIS response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
