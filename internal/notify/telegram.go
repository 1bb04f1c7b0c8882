package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nekogravitycat/parts-market-backend/internal/pkg/retry"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram sends messages to a fixed chat through the Bot API.
type Telegram struct {
	token       string
	chatID      string
	client      *http.Client
	retryPolicy retry.Policy
}

func NewTelegram(token, chatID string, retryPolicy retry.Policy) *Telegram {
	return &Telegram{
		token:       token,
		chatID:      chatID,
		client:      &http.Client{Timeout: 10 * time.Second},
		retryPolicy: retryPolicy,
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts the message, retrying transport-level failures and 5xx replies.
// A 4xx reply is a configuration problem and is not retried.
func (t *Telegram) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: t.chatID, Text: text})
	if err != nil {
		return fmt.Errorf("encode telegram message failed: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", telegramAPIBase, t.token)

	err = retry.Do(ctx, t.retryPolicy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return permanentError{err}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("telegram replied %d", resp.StatusCode)
		}

		var result sendMessageResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
			return permanentError{fmt.Errorf("decode telegram response failed: %w", err)}
		}
		if !result.OK {
			return permanentError{fmt.Errorf("telegram rejected message: %s", result.Description)}
		}
		return nil
	}, transientSendError)
	if err != nil {
		return fmt.Errorf("send telegram notification failed: %w", err)
	}
	return nil
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func transientSendError(err error) bool {
	_, permanent := err.(permanentError)
	return !permanent
}
