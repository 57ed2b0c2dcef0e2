package gemini

import "fmt"

// generateContent request

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	ResponseSchema   *schema `json:"responseSchema,omitempty"`
	Temperature      float64 `json:"temperature"`
}

type schema struct {
	Type       string             `json:"type"`
	Items      *schema            `json:"items,omitempty"`
	Properties map[string]*schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

// planSchema is the JSON shape the model must answer with
var planSchema = &schema{
	Type: "OBJECT",
	Properties: map[string]*schema{
		"gaps_identified":  {Type: "ARRAY", Items: &schema{Type: "STRING"}},
		"improvement_plan": {Type: "STRING"},
		"next_review_date": {Type: "STRING"},
	},
	Required: []string{"gaps_identified", "improvement_plan", "next_review_date"},
}

// generateContent response

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// planPayload is the model's JSON answer
type planPayload struct {
	Gaps           []string `json:"gaps_identified"`
	Plan           string   `json:"improvement_plan"`
	NextReviewDate string   `json:"next_review_date"`
}

// APIError is a non-200 answer from the API
type APIError struct {
	StatusCode int
	Status     string `json:"status"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gemini API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("gemini API error: HTTP %d %s: %s", e.StatusCode, e.Status, e.Message)
}
