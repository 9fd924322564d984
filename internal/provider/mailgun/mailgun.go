// Package mailgun implements the provider contract for the Mailgun v3
// messages API.
package mailgun

import (
	"github.com/shineum/email-gateway/internal/email"
	"github.com/shineum/email-gateway/internal/provider"
)

// Nickname is the configuration and routing key for this provider.
const Nickname = "mailgun"

// TODO: the sending domain belongs in configuration, next to the
// credentials for this nickname.
const sendURL = "https://api.mailgun.net/v3/mg.example.com/messages"

// Provider serializes emails for the Mailgun API, which authenticates
// with HTTP basic auth.
type Provider struct {
	creds provider.Credentials
}

// New creates a Mailgun provider from its configuration slice.
func New(creds provider.Credentials) (provider.Provider, error) {
	return &Provider{creds: creds}, nil
}

func (p *Provider) Nickname() string { return Nickname }

func (p *Provider) Auth() *provider.Auth {
	return &provider.Auth{Username: p.creds.User, Key: p.creds.Key}
}

func (p *Provider) SendEndpoint() provider.Endpoint {
	return provider.Endpoint{Method: provider.MethodPost, URL: sendURL}
}

// Serialize groups recipients by role as canonical "Name <addr>"
// strings, which Mailgun accepts directly. Null common fields pass
// through unfiltered.
func (p *Provider) Serialize(e *email.Email) (provider.Encoding, provider.Payload) {
	payload := provider.Payload{}
	for k, v := range e.Export() {
		payload[k] = v
	}

	for _, r := range e.Recipients() {
		key := string(r.Role)
		addrs, _ := payload[key].([]string)
		payload[key] = append(addrs, r.String())
	}

	payload["from"] = e.From().String()

	return provider.EncodingForm, payload
}

// IsSuccess accepts any 2xx status.
func (p *Provider) IsSuccess(resp *provider.Response) bool {
	return resp != nil && resp.StatusCode >= 200 && resp.StatusCode < 300
}
