package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/config"
)

// Sender delivers one message to one contact over a single channel. The
// returned provider id identifies which backend accepted the message.
type Sender interface {
	Name() string
	Send(ctx context.Context, c Contact, message string) (providerID string, err error)
}

// providerClient wraps the outbound HTTP client shared by all providers.
// Calls are paced by a token bucket so a burst of retries cannot hammer the
// provider APIs.
type providerClient struct {
	http    *http.Client
	limiter *rate.Limiter
}

func newProviderClient() *providerClient {
	return &providerClient{
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

func (pc *providerClient) do(req *http.Request) (*http.Response, error) {
	if err := pc.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return pc.http.Do(req)
}

// TwilioSMS sends through the Twilio messages API. Also used for WhatsApp
// with address prefixes.
type TwilioSMS struct {
	client     *providerClient
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	WhatsApp   bool
}

func (t *TwilioSMS) Name() string {
	if t.WhatsApp {
		return "twilio-whatsapp"
	}
	return "twilio"
}

func (t *TwilioSMS) Send(ctx context.Context, c Contact, message string) (string, error) {
	if t.AccountSID == "" || t.AuthToken == "" || t.From == "" {
		return "", ErrNotConfigured
	}

	base := t.BaseURL
	if base == "" {
		base = "https://api.twilio.com"
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", strings.TrimSuffix(base, "/"), t.AccountSID)

	from, to := t.From, c.Phone
	if t.WhatsApp {
		from, to = "whatsapp:"+from, "whatsapp:"+to
	}
	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Body", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(t.AccountSID, t.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s status %d", t.Name(), resp.StatusCode)
	}
	var data struct {
		SID string `json:"sid"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&data)
	if data.SID != "" {
		return t.Name() + ":" + data.SID, nil
	}
	return t.Name(), nil
}

// TextbeltSMS is the fallback SMS path.
type TextbeltSMS struct {
	client  *providerClient
	BaseURL string
	APIKey  string
}

func (t *TextbeltSMS) Name() string { return "textbelt" }

func (t *TextbeltSMS) Send(ctx context.Context, c Contact, message string) (string, error) {
	if t.APIKey == "" {
		return "", ErrNotConfigured
	}

	base := t.BaseURL
	if base == "" {
		base = "https://textbelt.com"
	}
	form := url.Values{}
	form.Set("phone", c.Phone)
	form.Set("message", message)
	form.Set("key", t.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(base, "/")+"/text", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("textbelt status %d", resp.StatusCode)
	}
	var data struct {
		Success bool   `json:"success"`
		TextID  string `json:"textId"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}
	if !data.Success {
		return "", fmt.Errorf("textbelt rejected message: %s", data.Error)
	}
	if data.TextID != "" {
		return "textbelt:" + data.TextID, nil
	}
	return "textbelt", nil
}

// SendgridEmail delivers over the SendGrid v3 mail API.
type SendgridEmail struct {
	client  *providerClient
	BaseURL string
	APIKey  string
	From    string
}

func (s *SendgridEmail) Name() string { return "sendgrid" }

func (s *SendgridEmail) Send(ctx context.Context, c Contact, message string) (string, error) {
	if s.APIKey == "" {
		return "", ErrNotConfigured
	}

	base := s.BaseURL
	if base == "" {
		base = "https://api.sendgrid.com"
	}
	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": c.Email}}},
		},
		"from":    map[string]string{"email": s.From},
		"subject": "Emergency alert",
		"content": []map[string]string{{"type": "text/plain", "value": message}},
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(base, "/")+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("sendgrid status %d", resp.StatusCode)
	}
	return "sendgrid", nil
}

// TelegramBot delivers over the Telegram bot API to the contact's chat id.
type TelegramBot struct {
	client  *providerClient
	BaseURL string
	Token   string
}

func (t *TelegramBot) Name() string { return "telegram" }

func (t *TelegramBot) Send(ctx context.Context, c Contact, message string) (string, error) {
	if t.Token == "" {
		return "", ErrNotConfigured
	}

	base := t.BaseURL
	if base == "" {
		base = "https://api.telegram.org"
	}
	body, _ := json.Marshal(map[string]string{"chat_id": c.ChatID, "text": message})

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimSuffix(base, "/"), t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("telegram status %d", resp.StatusCode)
	}
	return "telegram", nil
}

// WebPush posts the message to the contact's push subscription endpoint.
type WebPush struct {
	client *providerClient
}

func (w *WebPush) Name() string { return "webpush" }

func (w *WebPush) Send(ctx context.Context, c Contact, message string) (string, error) {
	body, _ := json.Marshal(map[string]string{"title": "Emergency alert", "body": message})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.PushEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("webpush status %d", resp.StatusCode)
	}
	return "webpush", nil
}

// Providers bundles the configured senders: the SMS fallback chain in
// configured order plus one sender per remaining channel.
type Providers struct {
	SMSChain []Sender
	Email    Sender
	WhatsApp Sender
	Telegram Sender
	Push     Sender
}

// NewProviders wires senders from configuration. Provider order for the SMS
// chain is a policy choice carried in config, not hard-coded.
func NewProviders(cfg config.Config) Providers {
	pc := newProviderClient()

	twilio := &TwilioSMS{client: pc, AccountSID: cfg.TwilioAccountSID, AuthToken: cfg.TwilioAuthToken, From: cfg.TwilioFromNumber}
	textbelt := &TextbeltSMS{client: pc, APIKey: cfg.TextbeltAPIKey}

	byName := map[string]Sender{"twilio": twilio, "textbelt": textbelt}
	var chain []Sender
	if p, ok := byName[cfg.SMSPrimaryProvider]; ok {
		chain = append(chain, p)
	}
	if p, ok := byName[cfg.SMSFallbackProvider]; ok && cfg.SMSFallbackProvider != cfg.SMSPrimaryProvider {
		chain = append(chain, p)
	}
	if len(chain) == 0 {
		chain = []Sender{twilio, textbelt}
	}

	return Providers{
		SMSChain: chain,
		Email:    &SendgridEmail{client: pc, APIKey: cfg.SendgridAPIKey, From: cfg.AlertFromEmail},
		WhatsApp: &TwilioSMS{client: pc, AccountSID: cfg.TwilioAccountSID, AuthToken: cfg.TwilioAuthToken, From: cfg.TwilioFromNumber, WhatsApp: true},
		Telegram: &TelegramBot{client: pc, Token: cfg.TelegramBotToken},
		Push:     &WebPush{client: pc},
	}
}
