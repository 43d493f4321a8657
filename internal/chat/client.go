package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/models"
)

// ErrNotFound means the channel or message no longer exists on the chat side.
var ErrNotFound = errors.New("chat message not found")

// Message is the slice of chat-message state this service cares about.
type Message struct {
	ID          string `json:"id"`
	ChannelID   string `json:"channel_id"`
	ChannelType string `json:"channel_type"`
}

// IsText reports whether the message lives in a text-capable channel.
func (m *Message) IsText() bool {
	return m.ChannelType == "text"
}

// Binding is the narrow contract against the chat platform. The gateway
// client below implements it; tests substitute their own.
type Binding interface {
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)
	FetchReactors(ctx context.Context, channelID, messageID, emoji string) ([]string, error)
	SendMessage(ctx context.Context, channelID string, content models.RenderedMessage) (string, error)
	EditMessage(ctx context.Context, channelID, messageID string, content models.RenderedMessage) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
}

// GatewayClient talks to the chat gateway's REST surface.
type GatewayClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *logger.Logger
}

func NewGatewayClient(baseURL, token string, client *http.Client, log *logger.Logger) *GatewayClient {
	if len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return &GatewayClient{
		baseURL: baseURL,
		token:   token,
		client:  client,
		logger:  log,
	}
}

func (g *GatewayClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+g.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error("CHAT", fmt.Sprintf("Chat gateway error on %s %s: %v", method, path, err))
		return fmt.Errorf("chat gateway error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if cerr := Body.Close(); cerr != nil {
			g.logger.Error("CHAT", fmt.Sprintf("Failed to close chat response body: %v", cerr))
		}
	}(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		g.logger.Error("CHAT", fmt.Sprintf("Chat gateway returned %s on %s %s: %s", resp.Status, method, path, string(respBody)))
		return fmt.Errorf("chat gateway returned %s", resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode chat response: %w", err)
		}
	}
	return nil
}

func (g *GatewayClient) FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error) {
	var msg Message
	path := fmt.Sprintf("/v1/channels/%s/messages/%s", url.PathEscape(channelID), url.PathEscape(messageID))
	if err := g.do(ctx, http.MethodGet, path, nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (g *GatewayClient) FetchReactors(ctx context.Context, channelID, messageID, emoji string) ([]string, error) {
	var out struct {
		UserIDs []string `json:"user_ids"`
	}
	path := fmt.Sprintf("/v1/channels/%s/messages/%s/reactions/%s/users",
		url.PathEscape(channelID), url.PathEscape(messageID), url.PathEscape(emoji))
	if err := g.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.UserIDs, nil
}

func (g *GatewayClient) SendMessage(ctx context.Context, channelID string, content models.RenderedMessage) (string, error) {
	var out struct {
		MessageID string `json:"message_id"`
	}
	path := fmt.Sprintf("/v1/channels/%s/messages", url.PathEscape(channelID))
	if err := g.do(ctx, http.MethodPost, path, content, &out); err != nil {
		return "", err
	}
	g.logger.LogChat("SEND", out.MessageID, "Message sent to channel "+channelID)
	return out.MessageID, nil
}

func (g *GatewayClient) EditMessage(ctx context.Context, channelID, messageID string, content models.RenderedMessage) error {
	path := fmt.Sprintf("/v1/channels/%s/messages/%s", url.PathEscape(channelID), url.PathEscape(messageID))
	if err := g.do(ctx, http.MethodPatch, path, content, nil); err != nil {
		return err
	}
	g.logger.LogChat("EDIT", messageID, "Message edited in channel "+channelID)
	return nil
}

func (g *GatewayClient) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	path := fmt.Sprintf("/v1/channels/%s/messages/%s", url.PathEscape(channelID), url.PathEscape(messageID))
	if err := g.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	g.logger.LogChat("DELETE", messageID, "Message deleted from channel "+channelID)
	return nil
}

func (g *GatewayClient) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	path := fmt.Sprintf("/v1/channels/%s/messages/%s/reactions/%s",
		url.PathEscape(channelID), url.PathEscape(messageID), url.PathEscape(emoji))
	return g.do(ctx, http.MethodPut, path, nil, nil)
}
