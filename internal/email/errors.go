package email

import "errors"

// ErrInvalidRecipient reports a recipient whose address or role does not
// pass syntactic validation. Surfaced to the inbound boundary as a
// caller-input problem, never retried.
var ErrInvalidRecipient = errors.New("invalid recipient")

// ErrInvalidEmail reports an email that does not meet the minimal
// structural requirements (at least one recipient, subject length).
var ErrInvalidEmail = errors.New("invalid email")

// ErrFromRole reports an attempt to set a sender whose role is not
// RoleFrom. This is a programming error, distinct from address-format
// problems.
var ErrFromRole = errors.New("from recipient must have role \"from\"")
