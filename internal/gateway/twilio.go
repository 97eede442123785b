package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medigem-server/internal/config"
)

// TwilioClient sends SMS and WhatsApp messages through the Twilio REST API.
type TwilioClient struct {
	accountSID   string
	authToken    string
	smsFrom      string
	whatsappFrom string
	httpClient   *http.Client
	baseURL      string
}

// NewTwilioClient creates a Twilio client with a bounded request timeout.
func NewTwilioClient(cfg config.TwilioConfig, timeout time.Duration) *TwilioClient {
	return &TwilioClient{
		accountSID:   cfg.AccountSID,
		authToken:    cfg.AuthToken,
		smsFrom:      cfg.SMSFrom,
		whatsappFrom: cfg.WhatsAppFrom,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.twilio.com",
	}
}

// twilioMessageResponse is the subset of the Twilio message resource we read.
type twilioMessageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SendSMS sends a plain text message to a phone number and returns the
// message SID.
func (t *TwilioClient) SendSMS(ctx context.Context, to, body string) (string, error) {
	return t.send(ctx, t.smsFrom, to, body)
}

// SendWhatsApp sends a WhatsApp message to a phone number and returns the
// message SID.
func (t *TwilioClient) SendWhatsApp(ctx context.Context, to, body string) (string, error) {
	return t.send(ctx, "whatsapp:"+t.whatsappFrom, "whatsapp:"+to, body)
}

func (t *TwilioClient) send(ctx context.Context, from, to, body string) (string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, t.accountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var message twilioMessageResponse
	if err := json.Unmarshal(respBody, &message); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("twilio API error (status %d, code %d): %s", resp.StatusCode, message.Code, message.Message)
	}

	if message.SID == "" {
		return "", fmt.Errorf("no message SID in response")
	}

	return message.SID, nil
}
