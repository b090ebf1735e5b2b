package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

const telegramAPIURL = "https://api.telegram.org"

// TelegramSender pushes plain-text messages through the Bot API sendMessage method.
type TelegramSender struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewTelegramSender(token string) *TelegramSender {
	return &TelegramSender{
		baseURL: telegramAPIURL,
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the sender at another Bot API host (tests, local bot servers).
func (s *TelegramSender) WithBaseURL(u string) *TelegramSender {
	s.baseURL = strings.TrimRight(u, "/")
	return s
}

func (s *TelegramSender) ProviderID() string { return "telegram" }

type telegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (s *TelegramSender) Send(ctx context.Context, to string, text string) error {
	if s.token == "" {
		return fmt.Errorf("telegram bot token not configured")
	}
	raw, err := json.Marshal(telegramMessage{ChatID: to, Text: text})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		// *url.Error carries the request URL, which embeds the bot token
		var uerr *neturl.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var out telegramResponse
	_ = json.Unmarshal(body, &out)
	if resp.StatusCode != http.StatusOK || !out.OK {
		if out.Description != "" {
			return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, out.Description)
		}
		return fmt.Errorf("telegram returned %d", resp.StatusCode)
	}
	return nil
}
