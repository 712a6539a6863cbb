package telephony

import (
	"context"
	"errors"
	"fmt"
)

// Gateway defines the provider-agnostic call-placement interface used by
// business logic.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - Keep request/response types provider-agnostic.
// - The provider reports progress asynchronously via webhooks; PlaceCall only
//   initiates the call.
type Gateway interface {
	Name() string

	PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error)

	// RecordingMediaURL derives the playback URL for a finished recording
	// from the provider recording identifier. Pure; no I/O.
	RecordingMediaURL(providerRecordingID string) string
}

// PlaceCallRequest asks the provider to dial a destination and hit the
// supplied webhook once the call connects.
type PlaceCallRequest struct {
	// To is the destination number in E.164 form.
	To string `json:"to"`

	// CallbackURL receives the call-started webhook. It must be scoped to
	// the recording the call belongs to.
	CallbackURL string `json:"callback_url"`
}

type PlaceCallResult struct {
	// ProviderCallID is the provider's unique identifier for this call.
	ProviderCallID string `json:"provider_call_id"`
}

var ErrGateway = errors.New("telephony: gateway error")

// GatewayError wraps a provider failure with enough context for the dialer's
// retry decision and for the recording's failure reason.
type GatewayError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("telephony: %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("telephony: %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return ErrGateway }
