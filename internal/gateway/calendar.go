package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medigem-server/internal/config"
	"medigem-server/internal/models"
)

// GoogleCalendarClient creates events on a doctor's primary Google Calendar
// using the OAuth credentials stored on the doctor record.
type GoogleCalendarClient struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
	baseURL      string
	tokenURL     string
}

// NewGoogleCalendarClient creates a calendar client with a bounded request timeout.
func NewGoogleCalendarClient(cfg config.GoogleOAuthConfig, timeout time.Duration) *GoogleCalendarClient {
	return &GoogleCalendarClient{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:  "https://www.googleapis.com/calendar/v3",
		tokenURL: "https://oauth2.googleapis.com/token",
	}
}

type calendarEventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type calendarEvent struct {
	Summary     string            `json:"summary"`
	Description string            `json:"description"`
	Start       calendarEventTime `json:"start"`
	End         calendarEventTime `json:"end"`
}

type calendarEventResponse struct {
	ID string `json:"id"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// CreateEvent inserts an event on the doctor's primary calendar and returns
// the created event id.
func (g *GoogleCalendarClient) CreateEvent(ctx context.Context, doctor *models.Doctor, summary, description string, start, end time.Time) (string, error) {
	accessToken, err := g.accessToken(ctx, doctor)
	if err != nil {
		return "", err
	}

	event := calendarEvent{
		Summary:     summary,
		Description: description,
		Start: calendarEventTime{
			DateTime: start.UTC().Format("2006-01-02T15:04:05"),
			TimeZone: "UTC",
		},
		End: calendarEventTime{
			DateTime: end.UTC().Format("2006-01-02T15:04:05"),
			TimeZone: "UTC",
		},
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}

	endpoint := g.baseURL + "/calendars/primary/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("calendar API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var created calendarEventResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("no event id in response")
	}

	return created.ID, nil
}

// accessToken resolves a usable access token for the doctor, exchanging the
// stored refresh token for a fresh one when available.
func (g *GoogleCalendarClient) accessToken(ctx context.Context, doctor *models.Doctor) (string, error) {
	if doctor.GoogleCalendarRefreshToken == "" {
		if doctor.GoogleCalendarToken == "" {
			return "", fmt.Errorf("doctor has no calendar credentials")
		}
		return doctor.GoogleCalendarToken, nil
	}

	form := url.Values{}
	form.Set("client_id", g.clientID)
	form.Set("client_secret", g.clientSecret)
	form.Set("refresh_token", doctor.GoogleCalendarRefreshToken)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token refresh error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var token tokenResponse
	if err := json.Unmarshal(respBody, &token); err != nil {
		return "", fmt.Errorf("failed to unmarshal token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("no access token in response")
	}

	return token.AccessToken, nil
}
