package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/auditready/internal/contracts"
	"github.com/wonny/auditready/pkg/httputil"
	"github.com/wonny/auditready/pkg/logger"
)

const (
	// DefaultBaseURL of the Generative Language API
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	// DefaultModel used for improvement plans
	DefaultModel = "gemini-2.5-flash"

	defaultPlan = "No plan generated."
	dateLayout  = "2006-01-02"
)

// ErrEmptyResponse is returned when the model answered without text
var ErrEmptyResponse = errors.New("no response from Gemini")

// Client generates improvement plans through the Gemini generateContent API.
// Implements contracts.PlanGenerator.
// ⭐ SSOT: Gemini API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	apiKey     string
	model      string
	baseURL    string
	clock      func() time.Time
}

// NewClient creates a new Gemini client
func NewClient(httpClient *httputil.Client, apiKey, model string, log *logger.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		apiKey:     apiKey,
		model:      model,
		baseURL:    DefaultBaseURL,
		clock:      time.Now,
	}
}

// WithBaseURL points the client at another endpoint (tests, proxies)
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// WithClock overrides the clock used for default review dates
func (c *Client) WithClock(clock func() time.Time) *Client {
	c.clock = clock
	return c
}

// Model returns the model name
func (c *Client) Model() string {
	return c.model
}

// GeneratePlan asks the model for gaps, a plan and the next review date
func (c *Client) GeneratePlan(ctx context.Context, result *contracts.OutletScoreResult) (*contracts.ImprovementPlan, error) {
	prompt, err := BuildPrompt(result)
	if err != nil {
		return nil, err
	}

	req := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: SystemPrompt}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   planSchema,
			Temperature:      0.2,
		},
	}

	text, err := c.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	plan, err := c.parsePlan(text)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"outlet_id":   result.OutletID,
		"model":       c.model,
		"gaps":        len(plan.Gaps),
		"next_review": plan.NextReviewDate,
	}).Info("Improvement plan generated")

	return plan, nil
}

// generate calls generateContent and returns the concatenated text of the first candidate
func (c *Client) generate(ctx context.Context, req generateRequest) (string, error) {
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))

	// key travels as a header so it never appears in URLs, errors or logs
	header := http.Header{}
	header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.PostJSONWithHeader(ctx, endpoint, req, header)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
			apiErr.Status = envelope.Error.Status
			apiErr.Message = envelope.Error.Message
		}
		return "", apiErr
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(out.Candidates) == 0 {
		if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason)
		}
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// parsePlan decodes the model's JSON answer and fills missing fields
func (c *Client) parsePlan(text string) (*contracts.ImprovementPlan, error) {
	// Some answers arrive wrapped in a ```json fence
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var p planPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &p); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}

	plan := &contracts.ImprovementPlan{
		Gaps:           p.Gaps,
		Plan:           p.Plan,
		NextReviewDate: p.NextReviewDate,
	}
	if plan.Gaps == nil {
		plan.Gaps = []string{}
	}
	if strings.TrimSpace(plan.Plan) == "" {
		plan.Plan = defaultPlan
	}
	if _, err := time.Parse(dateLayout, plan.NextReviewDate); err != nil {
		plan.NextReviewDate = c.clock().Format(dateLayout)
	}

	return plan, nil
}
