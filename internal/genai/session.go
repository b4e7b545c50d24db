// internal/genai/session.go
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var (
	ErrModelTurnFailed = errors.New("MODEL_TURN_FAILED")
)

// Sessioner is one stateful model conversation: the orchestrator drives it
// turn by turn and never sees the transport underneath. Tests substitute
// scripted fakes.
type Sessioner interface {
	SendText(ctx context.Context, text string) (*Reply, error)
	SendCapabilityResults(ctx context.Context, results []CapabilityResult) (*Reply, error)
}

// SessionFactory mints fresh sessions, one per analysis run.
type SessionFactory interface {
	NewSession(tools []FunctionDeclaration) Sessioner
}

// Client speaks the generative-language REST protocol.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		// No client-level timeout: per-turn deadlines come from the
		// caller's context.
		http: &http.Client{},
	}
}

// NewSession starts a conversation with the given capability declarations.
func (c *Client) NewSession(tools []FunctionDeclaration) Sessioner {
	s := &Session{client: c}
	if len(tools) > 0 {
		s.tools = []Tool{{FunctionDeclarations: tools}}
	}
	return s
}

// Session accumulates turn history so capability results land in the same
// conversation the request came from.
type Session struct {
	client  *Client
	tools   []Tool
	history []Content
}

func (s *Session) SendText(ctx context.Context, text string) (*Reply, error) {
	return s.send(ctx, Content{
		Role:  "user",
		Parts: []Part{{Text: text}},
	})
}

func (s *Session) SendCapabilityResults(ctx context.Context, results []CapabilityResult) (*Reply, error) {
	parts := make([]Part, 0, len(results))
	for _, r := range results {
		parts = append(parts, Part{
			FunctionResponse: &FunctionResponse{
				Name:     r.Name,
				Response: r.Response,
			},
		})
	}
	return s.send(ctx, Content{Role: "user", Parts: parts})
}

func (s *Session) send(ctx context.Context, turn Content) (*Reply, error) {
	s.history = append(s.history, turn)

	reqBody := generateRequest{
		Contents: s.history,
		Tools:    s.tools,
	}
	body, _ := json.Marshal(reqBody)

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		s.client.baseURL, s.client.model, url.QueryEscape(s.client.apiKey))

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelTurnFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelTurnFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrModelTurnFailed, resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrModelTurnFailed, err)
	}
	if genResp.Error != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrModelTurnFailed, genResp.Error.Message, genResp.Error.Status)
	}
	if len(genResp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrModelTurnFailed)
	}

	modelContent := genResp.Candidates[0].Content
	if modelContent.Role == "" {
		modelContent.Role = "model"
	}
	s.history = append(s.history, modelContent)

	return replyFromContent(modelContent), nil
}

func replyFromContent(content Content) *Reply {
	reply := &Reply{}
	var textParts []string
	for _, p := range content.Parts {
		if p.FunctionCall != nil {
			reply.Calls = append(reply.Calls, CapabilityCall{
				Name: p.FunctionCall.Name,
				Args: p.FunctionCall.Args,
			})
			continue
		}
		if p.Text != "" {
			textParts = append(textParts, p.Text)
		}
	}
	reply.Text = strings.Join(textParts, "")
	return reply
}
