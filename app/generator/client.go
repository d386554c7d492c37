package generator

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

const (
	RoleUser    = "USER"
	RoleChatbot = "CHATBOT"
)

// Message is one prior turn in a generation conversation.
type Message struct {
	Role    string
	Content string
}

// Request describes a single text-generation call. History carries the
// earlier turns of the same conversation so a retry can reference the
// previous answer.
type Request struct {
	Preamble    string
	Message     string
	History     []Message
	Temperature float64
}

// TextGenerator abstracts the text-generation collaborator.
type TextGenerator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// CohereGenerator implements TextGenerator using the Cohere Chat API.
// SDK: github.com/cohere-ai/cohere-go/v2
type CohereGenerator struct {
	client *cohereclient.Client
	model  string
}

func NewCohereGenerator(apiKey, model string) *CohereGenerator {
	// Force HTTP/1.1 to avoid HTTP/2 protocol errors against the Cohere
	// endpoint.
	httpClient := &http.Client{
		Timeout: 180 * time.Second,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}

	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)

	return &CohereGenerator{client: client, model: model}
}

func (g *CohereGenerator) Generate(ctx context.Context, req Request) (string, error) {
	chatHistory := make([]*cohere.Message, 0, len(req.History))
	for _, m := range req.History {
		switch m.Role {
		case RoleChatbot:
			chatHistory = append(chatHistory, &cohere.Message{
				Role:    "CHATBOT",
				Chatbot: &cohere.ChatMessage{Message: m.Content},
			})
		default:
			chatHistory = append(chatHistory, &cohere.Message{
				Role: "USER",
				User: &cohere.ChatMessage{Message: m.Content},
			})
		}
	}

	temperature := req.Temperature
	chatReq := &cohere.ChatRequest{
		Message:     req.Message,
		Model:       &g.model,
		Temperature: &temperature,
	}
	if req.Preamble != "" {
		chatReq.Preamble = &req.Preamble
	}
	if len(chatHistory) > 0 {
		chatReq.ChatHistory = chatHistory
	}

	resp, err := g.client.Chat(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("cohere chat error: %w", err)
	}
	if resp == nil || resp.Text == "" {
		return "", errors.New("cohere chat returned empty response")
	}

	return resp.Text, nil
}
