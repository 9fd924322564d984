// Package elasticemail implements the provider contract for the
// Elastic Email v2 send API.
package elasticemail

import (
	"encoding/json"
	"strings"

	"github.com/shineum/email-gateway/internal/email"
	"github.com/shineum/email-gateway/internal/provider"
)

// Nickname is the configuration and routing key for this provider.
const Nickname = "elasticemail"

const sendURL = "https://api.elasticemail.com/v2/email/send"

// Provider serializes emails for the Elastic Email API. The API key
// travels in the form payload, not in HTTP auth.
type Provider struct {
	creds provider.Credentials
}

// New creates an Elastic Email provider from its configuration slice.
func New(creds provider.Credentials) (provider.Provider, error) {
	return &Provider{creds: creds}, nil
}

func (p *Provider) Nickname() string { return Nickname }

func (p *Provider) Auth() *provider.Auth { return nil }

func (p *Provider) SendEndpoint() provider.Endpoint {
	return provider.Endpoint{Method: provider.MethodPost, URL: sendURL}
}

// Serialize maps the email onto Elastic Email's msgTo/msgCC/msgBcc
// semicolon-joined address lists.
func (p *Provider) Serialize(e *email.Email) (provider.Encoding, provider.Payload) {
	common := e.Export()

	payload := provider.Payload{
		"msgTo":    joinAddresses(e.Recipients(email.RoleTo)),
		"msgCC":    joinAddresses(e.Recipients(email.RoleCc)),
		"msgBcc":   joinAddresses(e.Recipients(email.RoleBcc)),
		"from":     e.From().Address,
		"fromName": e.From().DisplayName,
		"apiKey":   p.creds.Key,
		"charset":  "utf-8",
		"bodyText": common["text"],
		"bodyHtml": common["html"],
		"subject":  common["subject"],
	}

	return provider.EncodingForm, payload
}

// IsSuccess requires HTTP 200 and a body of {"success": true}. Elastic
// Email reports API-level failures with a 200 status, so the body is
// authoritative; an unreadable body counts as failure.
func (p *Provider) IsSuccess(resp *provider.Response) bool {
	if resp == nil || resp.StatusCode != 200 {
		return false
	}
	var body struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return false
	}
	return body.Success
}

func joinAddresses(recipients []email.Recipient) string {
	addrs := make([]string, 0, len(recipients))
	for _, r := range recipients {
		addrs = append(addrs, r.Address)
	}
	return strings.Join(addrs, ";")
}
