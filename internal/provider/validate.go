package provider

import (
	"errors"
	"fmt"
)

// ErrInvalidProvider reports a provider integration that violates the
// contract: a programming or configuration defect, never caller input.
// The dispatcher skips the offending candidate and moves on.
var ErrInvalidProvider = errors.New("invalid provider")

// Validate is the shared structural check applied to every provider
// instance before use. The compiler already enforces the method set, so
// this is the runtime backstop for the values those methods return:
// a degenerate nickname, endpoint, or auth pair would otherwise only
// surface as a confusing transport error.
func Validate(p Provider) error {
	if p.Nickname() == "" {
		return fmt.Errorf("%w: nickname must be set", ErrInvalidProvider)
	}

	if auth := p.Auth(); auth != nil {
		if auth.Username == "" || auth.Key == "" {
			return fmt.Errorf("%w: %s: auth pair is incomplete", ErrInvalidProvider, p.Nickname())
		}
	}

	endpoint := p.SendEndpoint()
	if !endpoint.Method.Valid() {
		return fmt.Errorf("%w: %s: unrecognized method %q", ErrInvalidProvider, p.Nickname(), endpoint.Method)
	}
	if endpoint.URL == "" {
		return fmt.Errorf("%w: %s: endpoint URL must be set", ErrInvalidProvider, p.Nickname())
	}

	return nil
}

// ValidateSerialized checks the shape of a Serialize result. The type
// system pins the tuple shape, so only the value-level degenerate cases
// remain: an unknown encoding or a nil payload.
func ValidateSerialized(enc Encoding, payload Payload) error {
	if !enc.Valid() {
		return fmt.Errorf("%w: unrecognized encoding %q", ErrInvalidProvider, enc)
	}
	if payload == nil {
		return fmt.Errorf("%w: serialized payload is nil", ErrInvalidProvider)
	}
	return nil
}
