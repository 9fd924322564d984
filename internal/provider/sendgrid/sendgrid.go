// Package sendgrid implements the provider contract for the SendGrid
// v2 mail send API.
package sendgrid

import (
	"github.com/shineum/email-gateway/internal/email"
	"github.com/shineum/email-gateway/internal/provider"
)

// Nickname is the configuration and routing key for this provider.
const Nickname = "sendgrid"

const sendURL = "https://api.sendgrid.com/api/mail.send.json"

// Provider serializes emails for the SendGrid API. Credentials travel
// in the form payload, not in HTTP auth.
type Provider struct {
	creds provider.Credentials
}

// New creates a SendGrid provider from its configuration slice.
func New(creds provider.Credentials) (provider.Provider, error) {
	return &Provider{creds: creds}, nil
}

func (p *Provider) Nickname() string { return Nickname }

func (p *Provider) Auth() *provider.Auth { return nil }

func (p *Provider) SendEndpoint() provider.Endpoint {
	return provider.Endpoint{Method: provider.MethodPost, URL: sendURL}
}

// Serialize maps the email onto SendGrid's parallel address/name lists.
// SendGrid is permissive about null fields, so the common fields are
// passed through unfiltered.
func (p *Provider) Serialize(e *email.Email) (provider.Encoding, provider.Payload) {
	payload := provider.Payload{
		"api_user": p.creds.User,
		"api_key":  p.creds.Key,
	}
	for k, v := range e.Export() {
		payload[k] = v
	}

	for _, role := range []email.Role{email.RoleTo, email.RoleCc, email.RoleBcc} {
		var addrs, names []string
		for _, r := range e.Recipients(role) {
			addrs = append(addrs, r.Address)
			// SendGrid rejects a mix of empty and populated display
			// names, so missing names fall back to the address.
			name := r.DisplayName
			if name == "" {
				name = r.Address
			}
			names = append(names, name)
		}
		if len(addrs) > 0 {
			payload[string(role)] = addrs
			payload[string(role)+"name"] = names
		}
	}

	payload["from"] = e.From().Address
	payload["fromname"] = e.From().DisplayName

	return provider.EncodingForm, payload
}

// IsSuccess accepts any 2xx status. SendGrid's response body carries no
// useful signal beyond the status code.
func (p *Provider) IsSuccess(resp *provider.Response) bool {
	return resp != nil && resp.StatusCode >= 200 && resp.StatusCode < 300
}
