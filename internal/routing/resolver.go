package routing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shineum/email-gateway/internal/email"
	"github.com/shineum/email-gateway/internal/provider"
)

// ErrUnknownRoute reports a request naming a routing policy the table
// does not know. Callers surface it as a generic send failure.
var ErrUnknownRoute = errors.New("unknown route")

// addressDelimiter joins the to-recipient addresses into the single
// string the rule patterns are evaluated against.
const addressDelimiter = ","

// Resolver turns an email plus an optional policy name into the ordered
// provider candidate list the dispatcher will try.
type Resolver struct {
	table    *Table
	registry *provider.Registry
}

// NewResolver creates a resolver over a compiled table and the registry
// whose registration order serves as the no-policy default.
func NewResolver(table *Table, registry *provider.Registry) *Resolver {
	return &Resolver{table: table, registry: registry}
}

// Resolve returns the candidate descriptors for the email, fully
// materialized.
//
// With no policy name, the whole registry in registration order is
// returned and no rule matching happens at all. With a known policy,
// the to-recipient addresses are joined and each rule's pattern is
// evaluated in declaration order; the first match wins, else the
// policy's default applies. First match means exactly that: no scoring,
// no longest-match.
func (r *Resolver) Resolve(e *email.Email, policyName string) ([]provider.Descriptor, error) {
	if policyName == "" {
		return r.registry.All(), nil
	}

	policy, ok := r.table.Policy(policyName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRoute, policyName)
	}

	joined := joinToAddresses(e)
	for _, rule := range policy.Rules {
		if rule.Pattern.MatchString(joined) {
			return rule.Providers, nil
		}
	}
	return policy.Default, nil
}

func joinToAddresses(e *email.Email) string {
	recipients := e.Recipients(email.RoleTo)
	addrs := make([]string, 0, len(recipients))
	for _, r := range recipients {
		addrs = append(addrs, r.Address)
	}
	return strings.Join(addrs, addressDelimiter)
}
