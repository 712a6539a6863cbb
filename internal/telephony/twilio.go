package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TwilioGateway places calls through the Twilio REST API.
//
// It deliberately avoids the provider SDK: the surface we need is one form
// POST with basic auth. Credentials and the source number are injected at
// construction; nothing here reads ambient state.

const defaultTwilioBaseURL = "https://api.twilio.com"

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string

	// BaseURL overrides the API host in tests.
	BaseURL string

	// Timeout bounds one placement request. The provider call is on the
	// critical path of the dialer worker, never of a client request.
	Timeout time.Duration
}

type TwilioGateway struct {
	cfg    TwilioConfig
	client *http.Client
}

func NewTwilioGateway(cfg TwilioConfig) (*TwilioGateway, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("telephony: twilio credentials are required")
	}
	if cfg.FromNumber == "" {
		return nil, errors.New("telephony: twilio from number is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTwilioBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &TwilioGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (g *TwilioGateway) Name() string { return "twilio" }

func (g *TwilioGateway) PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error) {
	if req.To == "" || req.CallbackURL == "" {
		return PlaceCallResult{}, &GatewayError{Op: "place_call", Err: errors.New("to and callback_url required")}
	}

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", g.cfg.FromNumber)
	form.Set("Url", req.CallbackURL)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", g.cfg.BaseURL, g.cfg.AccountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return PlaceCallResult{}, &GatewayError{Op: "place_call", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(g.cfg.AccountSID, g.cfg.AuthToken)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return PlaceCallResult{}, &GatewayError{Op: "place_call", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PlaceCallResult{}, &GatewayError{Op: "place_call", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PlaceCallResult{}, &GatewayError{Op: "place_call", StatusCode: resp.StatusCode, Err: fmt.Errorf("provider rejected request: %s", truncate(string(body), 200))}
	}

	var out struct {
		Sid string `json:"sid"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return PlaceCallResult{}, &GatewayError{Op: "place_call", Err: err}
	}
	if out.Sid == "" {
		return PlaceCallResult{}, &GatewayError{Op: "place_call", Err: errors.New("provider response missing call sid")}
	}
	return PlaceCallResult{ProviderCallID: out.Sid}, nil
}

func (g *TwilioGateway) RecordingMediaURL(providerRecordingID string) string {
	return fmt.Sprintf("%s/2010-04-01/Accounts/%s/Recordings/%s.mp3", defaultTwilioBaseURL, g.cfg.AccountSID, providerRecordingID)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
