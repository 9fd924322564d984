package mailgun

import (
	"testing"

	"github.com/shineum/email-gateway/internal/email"
	"github.com/shineum/email-gateway/internal/provider"
)

func TestContract(t *testing.T) {
	t.Parallel()

	p, err := New(provider.Credentials{User: "api", Key: "secret"})
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}

	if got := p.Nickname(); got != "mailgun" {
		t.Errorf("Nickname: got %q, want %q", got, "mailgun")
	}

	auth := p.Auth()
	if auth == nil {
		t.Fatal("Auth: got nil, want basic-auth pair")
	}
	if auth.Username != "api" || auth.Key != "secret" {
		t.Errorf("Auth: got %v, want api/secret", auth)
	}

	if err := provider.Validate(p); err != nil {
		t.Errorf("Validate: unexpected error: %v", err)
	}
}

func TestSerialize(t *testing.T) {
	t.Parallel()

	e := email.New(email.WithSubject("Test"))
	err := e.AddRecipients([]email.Recipient{
		{Address: "my@name.com", DisplayName: "my name", Role: email.RoleTo},
		{Address: "bare@address.com", Role: email.RoleTo},
		{Address: "copy@address.com", Role: email.RoleCc},
	})
	if err != nil {
		t.Fatalf("AddRecipients: unexpected error: %v", err)
	}
	if err := e.SetFrom(email.Recipient{Address: "s@b.com", DisplayName: "Sender", Role: email.RoleFrom}); err != nil {
		t.Fatalf("SetFrom: unexpected error: %v", err)
	}

	p, _ := New(provider.Credentials{User: "api", Key: "k"})
	encoding, payload := p.Serialize(e)

	if encoding != provider.EncodingForm {
		t.Errorf("encoding: got %q, want %q", encoding, provider.EncodingForm)
	}

	// Recipients are grouped by role as canonical header strings.
	tos, _ := payload["to"].([]string)
	if len(tos) != 2 || tos[0] != "my name <my@name.com>" || tos[1] != "bare@address.com" {
		t.Errorf("to: got %v, want canonical strings in order", payload["to"])
	}
	ccs, _ := payload["cc"].([]string)
	if len(ccs) != 1 || ccs[0] != "copy@address.com" {
		t.Errorf("cc: got %v, want [copy@address.com]", payload["cc"])
	}

	if payload["from"] != "Sender <s@b.com>" {
		t.Errorf("from: got %v, want %q", payload["from"], "Sender <s@b.com>")
	}
	if payload["subject"] != "Test" {
		t.Errorf("subject: got %v, want %q", payload["subject"], "Test")
	}
	// Empty bodies are coerced at export so Mailgun accepts the message.
	if payload["text"] != " " {
		t.Errorf("text: got %q, want single space", payload["text"])
	}
}

func TestIsSuccess(t *testing.T) {
	t.Parallel()

	p, _ := New(provider.Credentials{})
	if !p.IsSuccess(&provider.Response{StatusCode: 200}) {
		t.Error("IsSuccess(200): got false, want true")
	}
	if p.IsSuccess(&provider.Response{StatusCode: 401}) {
		t.Error("IsSuccess(401): got true, want false")
	}
	if p.IsSuccess(nil) {
		t.Error("IsSuccess(nil): got true, want false")
	}
}
