package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/deliverypicker/orderops/pkg/models"
)

const extractPrompt = `Analyze this receipt/invoice image and extract product information.

For each product found, extract:
- SKU (product code/item number)
- Product name
- Quantity

Return ONLY a valid JSON array with this exact structure:
[
  {
    "sku": "OPC",
    "name": "Oxford Pant Classic",
    "quantity": 50
  }
]

Rules:
- If no SKU is visible, use an empty string ""
- If quantity is not specified, default to 1
- Extract ALL products visible in the image
- Return valid JSON only, no markdown formatting
- If no products found, return []`

// Extractor sends a receipt image to an OpenAI-compatible vision gateway
// and returns the extracted line items.
type Extractor struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewExtractor creates an extractor for the given gateway.
func NewExtractor(endpoint, apiKey, model string) *Extractor {
	return &Extractor{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// SetHTTPClient replaces the HTTP client (used by tests).
func (e *Extractor) SetHTTPClient(client *http.Client) {
	e.httpClient = client
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatContent struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// rawLine matches the gateway's loosely shaped output; fields are coerced
// at this boundary so the rest of the code sees concrete values.
type rawLine struct {
	SKU      *string `json:"sku"`
	Name     *string `json:"name"`
	Quantity *int    `json:"quantity"`
}

// Extract sends the receipt (as a data URI) to the gateway and parses the
// extracted lines. Absent SKUs become ""; absent or non-positive
// quantities become 1.
func (e *Extractor) Extract(ctx context.Context, imageDataURI string) ([]models.ExtractedLine, error) {
	if imageDataURI == "" {
		return nil, fmt.Errorf("no image data provided")
	}

	payload, err := json.Marshal(chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContent{
					{Type: "text", Text: extractPrompt},
					{Type: "image_url", ImageURL: &chatImageURL{URL: imageDataURI}},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("no response from gateway")
	}

	return ParseLines(decoded.Choices[0].Message.Content)
}

// ParseLines parses the model's reply into extracted lines. Markdown code
// fences are stripped first since models wrap JSON in them regardless of
// instructions.
func ParseLines(content string) ([]models.ExtractedLine, error) {
	cleaned := strings.ReplaceAll(content, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var raw []rawLine
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON response from gateway: %w", err)
	}

	lines := make([]models.ExtractedLine, 0, len(raw))
	for _, r := range raw {
		line := models.ExtractedLine{Quantity: 1}
		if r.SKU != nil {
			line.SKU = *r.SKU
		}
		if r.Name != nil {
			line.Name = *r.Name
		}
		if r.Quantity != nil && *r.Quantity > 0 {
			line.Quantity = *r.Quantity
		}
		lines = append(lines, line)
	}

	return lines, nil
}
