package email

import (
	"fmt"
	"os"
	"unicode/utf8"
)

// DefaultSubject is substituted when an email is built without a subject.
const DefaultSubject = "(no subject)"

// maxSubjectLen is the RFC 2822 soft limit on header line length.
const maxSubjectLen = 78

// defaultFrom is the fallback sender used when no From is supplied.
// Mirrors the process hostname so locally generated mail is traceable.
var defaultFrom = func() Recipient {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return Recipient{Address: "noreply@" + host, Role: RoleFrom}
}()

// Email is the full logical message: an insertion-ordered recipient
// collection, exactly one sender, subject, optional bodies and reply-to.
// It is built once per inbound send request, validated, then handed
// read-only to routing and dispatch.
type Email struct {
	recipients []Recipient
	from       Recipient
	subject    string
	replyTo    string
	text       string
	html       string
	files      any // attachment hook, not implemented
}

// Option configures an Email during construction.
type Option func(*Email)

// WithFrom sets the sender. The recipient's role must be RoleFrom;
// violations surface from SetFrom during New.
func WithFrom(r Recipient) Option { return func(e *Email) { e.from = r } }

// WithSubject sets the subject. Empty keeps the default placeholder.
func WithSubject(s string) Option { return func(e *Email) { e.subject = s } }

// WithReplyTo sets the reply-to address. Validity is checked by the
// caller via ValidateAddress, not here.
func WithReplyTo(addr string) Option { return func(e *Email) { e.replyTo = addr } }

// WithText sets the text/plain body.
func WithText(body string) Option { return func(e *Email) { e.text = body } }

// WithHTML sets the text/html body.
func WithHTML(body string) Option { return func(e *Email) { e.html = body } }

// WithFiles sets the opaque attachment placeholder.
func WithFiles(files any) Option { return func(e *Email) { e.files = files } }

// New creates an Email with the given options applied. Without options
// it is an empty email from the default sender; recipients are added
// separately via AddRecipient / AddRecipients.
func New(opts ...Option) *Email {
	e := &Email{from: defaultFrom}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// From returns the sender recipient.
func (e *Email) From() Recipient { return e.from }

// SetFrom replaces the sender. The recipient must carry RoleFrom.
func (e *Email) SetFrom(r Recipient) error {
	if r.Role != RoleFrom {
		return fmt.Errorf("%w: got role %q", ErrFromRole, r.Role)
	}
	e.from = r
	return nil
}

// Subject returns the effective subject with the default applied.
func (e *Email) Subject() string {
	if e.subject == "" {
		return DefaultSubject
	}
	return e.subject
}

// ReplyTo returns the reply-to address, empty if unset.
func (e *Email) ReplyTo() string { return e.replyTo }

// Text returns the text/plain body, empty if unset.
func (e *Email) Text() string { return e.text }

// HTML returns the text/html body, empty if unset.
func (e *Email) HTML() string { return e.html }

// AddRecipient validates and appends one recipient.
func (e *Email) AddRecipient(r Recipient) error {
	if err := r.Validate(); err != nil {
		return err
	}
	e.recipients = append(e.recipients, r)
	return nil
}

// AddRecipients appends recipients atomically: every element is
// validated before any is appended, so a failure leaves the email
// unmodified.
func (e *Email) AddRecipients(recipients []Recipient) error {
	for _, r := range recipients {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	e.recipients = append(e.recipients, recipients...)
	return nil
}

// Recipients returns the recipients in insertion order, optionally
// filtered by role. The returned slice is a copy; calling it repeatedly
// never mutates or consumes the underlying collection.
func (e *Email) Recipients(roles ...Role) []Recipient {
	if len(roles) == 0 {
		return append([]Recipient(nil), e.recipients...)
	}
	var out []Recipient
	for _, r := range e.recipients {
		for _, role := range roles {
			if r.Role == role {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Validate enforces the email invariants: at least one recipient and an
// effective subject within the RFC soft limit. Violations are reported,
// never silently repaired.
func (e *Email) Validate() error {
	if len(e.recipients) == 0 {
		return fmt.Errorf("%w: must have at least one recipient", ErrInvalidEmail)
	}
	// The cap counts characters, not bytes: a multibyte subject of 78
	// runes is valid.
	if utf8.RuneCountInString(e.Subject()) > maxSubjectLen {
		return fmt.Errorf("%w: subject must be at most %d characters", ErrInvalidEmail, maxSubjectLen)
	}
	return nil
}

// Export returns the provider-agnostic common fields: subject with the
// default applied, reply-to, and bodies with the empty-body coercion
// (providers reject empty bodies, so text becomes a single space when
// both bodies are absent). Recipients and the sender are excluded since
// every provider formats them differently. The attachment placeholder is
// excluded until attachments exist.
func (e *Email) Export() map[string]any {
	out := map[string]any{
		"subject": e.Subject(),
		"replyto": e.replyTo,
		"text":    e.text,
		"html":    e.html,
	}
	if e.text == "" && e.html == "" {
		out["text"] = " "
	}
	return out
}
