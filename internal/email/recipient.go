// Package email defines the core email data model shared by the routing
// and dispatch layers: recipients, the email aggregate, and their
// validation rules. Providers and the web layer depend on this package,
// never the other way around.
package email

import (
	"fmt"
	"net/mail"
	"strings"
)

// Role classifies how a recipient participates in an email.
type Role string

const (
	RoleTo   Role = "to"
	RoleCc   Role = "cc"
	RoleBcc  Role = "bcc"
	RoleFrom Role = "from"
)

// Valid reports whether the role is one of the four known values.
func (r Role) Valid() bool {
	switch r {
	case RoleTo, RoleCc, RoleBcc, RoleFrom:
		return true
	}
	return false
}

// Recipient is one email address with a role and an optional display
// name. It is a value type and is never mutated after construction.
type Recipient struct {
	Address     string
	DisplayName string
	Role        Role
}

// ParseRecipient builds a Recipient from a standard header string such
// as "Display Name <addr@example.com>" or a bare address. It never
// fails: malformed input yields a Recipient whose Validate rejects it.
func ParseRecipient(raw string, role Role) Recipient {
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		// Keep the raw input as the address so validation reports it.
		return Recipient{Address: strings.TrimSpace(raw), Role: role}
	}
	return Recipient{
		Address:     addr.Address,
		DisplayName: addr.Name,
		Role:        role,
	}
}

// String returns the canonical header representation:
// "Display Name <addr>" when a display name is set, else the bare address.
func (r Recipient) String() string {
	if r.DisplayName != "" {
		return fmt.Sprintf("%s <%s>", r.DisplayName, r.Address)
	}
	return r.Address
}

// Validate checks that the address is syntactically valid and the role
// is known. Deliverability is deliberately not checked.
func (r Recipient) Validate() error {
	if r.Address == "" {
		return fmt.Errorf("%w: address must be set", ErrInvalidRecipient)
	}
	if !r.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidRecipient, r.Role)
	}
	return ValidateAddress(r.Address)
}

// ValidateAddress checks the syntactic validity of a bare email address.
// It is the single format check used everywhere a raw address appears
// (recipients, reply-to), so the underlying validation can be swapped
// without touching call sites.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("%w: address must be set", ErrInvalidRecipient)
	}
	if strings.ContainsRune(address, 0) {
		return fmt.Errorf("%w: address contains NUL byte", ErrInvalidRecipient)
	}

	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("%w: invalid address format %q", ErrInvalidRecipient, address)
	}
	// mail.ParseAddress accepts "Name <addr>" forms; a bare address must
	// round-trip without picking up a display name.
	if parsed.Name != "" || parsed.Address != address {
		return fmt.Errorf("%w: invalid address format %q", ErrInvalidRecipient, address)
	}

	local, domain, ok := strings.Cut(address, "@")
	if !ok || local == "" || domain == "" {
		return fmt.Errorf("%w: address %q is missing a domain", ErrInvalidRecipient, address)
	}
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("%w: address %q has an incomplete domain", ErrInvalidRecipient, address)
	}
	return nil
}
