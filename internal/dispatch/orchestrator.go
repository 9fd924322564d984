package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shineum/email-gateway/internal/email"
	"github.com/shineum/email-gateway/internal/provider"
	"github.com/shineum/email-gateway/internal/routing"
)

// ErrAllProvidersFailed is the explicit exhaustion result: every
// candidate was tried and none accepted the email. Individual candidate
// failures are logged, not returned, so provider-internal detail never
// leaks to the caller.
var ErrAllProvidersFailed = errors.New("no provider accepted the message")

// Result is a successful send: the winning provider's nickname and the
// response it returned.
type Result struct {
	Provider string
	Response *provider.Response
}

// Orchestrator drives the failover loop. Candidates are tried strictly
// one at a time, in resolver order; concurrent fan-out would risk
// double-delivery, which is worse than the added latency. The
// orchestrator imposes no timeout of its own beyond passing the context
// through to the transport.
type Orchestrator struct {
	resolver  *routing.Resolver
	transport Transport
	creds     map[string]provider.Credentials
	logger    *slog.Logger
}

// NewOrchestrator creates an orchestrator over the given resolver,
// transport, and per-nickname credential configuration.
func NewOrchestrator(resolver *routing.Resolver, transport Transport, creds map[string]provider.Credentials, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		resolver:  resolver,
		transport: transport,
		creds:     creds,
		logger:    logger,
	}
}

// Send resolves the candidate list for the email and tries each
// candidate in order until one accepts it. A routing error or candidate
// exhaustion is returned as an error; any per-candidate failure only
// skips that candidate.
func (o *Orchestrator) Send(ctx context.Context, e *email.Email, route string) (*Result, error) {
	candidates, err := o.resolver.Resolve(e, route)
	if err != nil {
		return nil, err
	}

	log := o.logger.With("send_id", uuid.NewString(), "route", route)

	for _, candidate := range candidates {
		out := o.attempt(ctx, candidate, e)
		if out.skip == nil {
			log.Info("email sent", "provider", candidate.Nickname)
			return &Result{Provider: candidate.Nickname, Response: out.response}, nil
		}

		// Contract violations are defects; transport and non-success
		// outcomes are expected operational noise.
		if errors.Is(out.skip, provider.ErrInvalidProvider) {
			log.Error("skipping invalid provider", "provider", candidate.Nickname, "error", out.skip)
		} else {
			log.Warn("provider attempt failed", "provider", candidate.Nickname, "error", out.skip)
		}
	}

	log.Warn("all candidate providers exhausted", "candidates", len(candidates))
	return nil, ErrAllProvidersFailed
}

// outcome is the tagged result of one candidate attempt: success
// carries the response, a skippable failure carries its reason.
type outcome struct {
	response *provider.Response
	skip     error
}

func skipped(reason error) outcome { return outcome{skip: reason} }

// attempt runs the full protocol for one candidate: instantiate and
// structurally validate the provider, serialize the email, build the
// request, execute the transport, and interpret the response. Every
// failure path is skippable; none aborts the overall send.
func (o *Orchestrator) attempt(ctx context.Context, candidate provider.Descriptor, e *email.Email) outcome {
	p, err := candidate.New(o.creds[candidate.Nickname])
	if err != nil {
		return skipped(fmt.Errorf("%w: %s: %v", provider.ErrInvalidProvider, candidate.Nickname, err))
	}
	if err := provider.Validate(p); err != nil {
		return skipped(err)
	}

	encoding, payload, err := serialize(p, e)
	if err != nil {
		return skipped(err)
	}

	endpoint := p.SendEndpoint()
	resp, err := o.transport(ctx, &Request{
		Method:   endpoint.Method,
		URL:      endpoint.URL,
		Auth:     p.Auth(),
		Encoding: encoding,
		Payload:  payload,
	})
	if err != nil {
		return skipped(fmt.Errorf("transport: %w", err))
	}

	if !p.IsSuccess(resp) {
		return skipped(fmt.Errorf("provider rejected the email (HTTP %d)", resp.StatusCode))
	}

	return outcome{response: resp}
}

// serialize invokes the provider's Serialize and checks the result
// shape. A panicking Serialize is a contract violation, treated like
// any other invalid provider rather than taking the send down.
func serialize(p provider.Provider, e *email.Email) (encoding provider.Encoding, payload provider.Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: serialize panicked: %v", provider.ErrInvalidProvider, p.Nickname(), r)
		}
	}()

	encoding, payload = p.Serialize(e)
	if err := provider.ValidateSerialized(encoding, payload); err != nil {
		return "", nil, fmt.Errorf("%s: %w", p.Nickname(), err)
	}
	return encoding, payload, nil
}
