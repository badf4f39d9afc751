package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nulzo/canteen-api/internal/httpclient"
)

const DefaultAPIBaseURL = "https://api.telegram.org"

// APIError is a Bot API reply with ok=false.
type APIError struct {
	Code        int    `json:"error_code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type envelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// Client talks to the Telegram Bot API for a single bot.
type Client struct {
	http    httpclient.HTTPClient
	baseURL string
	token   string
}

func NewClient(client httpclient.HTTPClient, baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	return &Client{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

func (c *Client) call(ctx context.Context, method, endpoint string, body interface{}, result interface{}) error {
	var env envelope
	err := httpclient.Send(ctx, c.http, httpclient.Request{
		Method: method,
		URL:    fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, endpoint),
		Body:   body,
		Secret: c.token,
	}, &env)

	// the Bot API reports failures with a non-2xx status and an ok=false body
	var upstream *httpclient.UpstreamError
	if errors.As(err, &upstream) {
		if jerr := json.Unmarshal(upstream.Body, &env); jerr != nil || env.OK {
			return err
		}
	} else if err != nil {
		return err
	}

	if !env.OK {
		return &APIError{Code: env.ErrorCode, Description: env.Description}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(env.Result, result); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", endpoint, err)
	}
	return nil
}

// GetUpdates returns the pending updates, oldest first.
func (c *Client) GetUpdates(ctx context.Context) ([]Update, error) {
	var updates []Update
	if err := c.call(ctx, http.MethodGet, "getUpdates", nil, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	body := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	return c.call(ctx, http.MethodPost, "sendMessage", body, nil)
}
