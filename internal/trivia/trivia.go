// Package trivia is a client for an Open Trivia DB compatible question provider.
package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

// DefaultEndpoint is the public Open Trivia DB base URL.
const DefaultEndpoint = "https://opentdb.com"

const defaultTimeout = 15 * time.Second

// Response codes used by the provider.
const (
	CodeSuccess          = 0
	CodeNoResults        = 1
	CodeInvalidParameter = 2
	CodeTokenNotFound    = 3
	CodeTokenEmpty       = 4
	CodeRateLimit        = 5
)

// Request selects the questions for one quiz.
type Request struct {
	Amount     int
	Category   int
	Difficulty model.Difficulty
}

// Client fetches questions and categories from the provider.
type Client struct {
	endpoint string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.http = &http.Client{Timeout: d}
		}
	}
}

// New returns a Client for endpoint, or DefaultEndpoint when endpoint is empty.
func New(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type questionsResponse struct {
	ResponseCode *int                `json:"response_code"`
	Results      []model.RawQuestion `json:"results"`
}

// FetchQuestions issues one request for req. A zero response code with an empty result
// list returns an empty slice and no error.
func (c *Client) FetchQuestions(ctx context.Context, req Request) ([]model.RawQuestion, error) {
	var payload questionsResponse
	if err := c.getJSON(ctx, c.QuestionsURL(req), &payload); err != nil {
		return nil, err
	}
	if payload.ResponseCode == nil {
		return nil, &ProviderError{Code: -1, Err: fmt.Errorf("missing response_code")}
	}
	if *payload.ResponseCode != CodeSuccess {
		return nil, &ProviderError{Code: *payload.ResponseCode}
	}
	return payload.Results, nil
}

// QuestionsURL builds the question request URL for req.
func (c *Client) QuestionsURL(req Request) string {
	params := url.Values{}
	params.Set("amount", strconv.Itoa(req.Amount))
	if req.Category > 0 {
		params.Set("category", strconv.Itoa(req.Category))
	}
	if req.Difficulty != model.DifficultyAny {
		params.Set("difficulty", string(req.Difficulty))
	}
	return c.endpoint + "/api.php?" + params.Encode()
}

type categoriesResponse struct {
	Categories []model.Category `json:"trivia_categories"`
}

// Categories lists the provider's question categories.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var payload categoriesResponse
	if err := c.getJSON(ctx, c.endpoint+"/api_category.php", &payload); err != nil {
		return nil, err
	}
	return payload.Categories, nil
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return &FetchError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return &FetchError{Status: resp.StatusCode, Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ProviderError{Code: -1, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
