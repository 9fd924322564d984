// Package routing maps an outbound email and an optional named routing
// policy to an ordered list of candidate providers. Policies are
// compiled once at startup; unresolved provider references are a
// configuration error, never a per-request one.
package routing

import (
	"fmt"
	"regexp"

	"github.com/shineum/email-gateway/internal/config"
	"github.com/shineum/email-gateway/internal/provider"
)

// Rule pairs a compiled pattern with the providers to use when it
// matches. Patterns use Go regexp semantics: match anywhere in the
// joined recipient string, case-sensitive.
type Rule struct {
	Pattern   *regexp.Regexp
	Providers []provider.Descriptor
}

// Policy is an ordered rule list plus the mandatory default candidate
// list used when no rule matches.
type Policy struct {
	Rules   []Rule
	Default []provider.Descriptor
}

// Table holds every named routing policy, fully compiled and resolved.
// It is immutable after construction.
type Table struct {
	policies map[string]Policy
}

// NewTable compiles the configured routes against the provider
// registry. Every referenced nickname must be registered and every
// pattern must compile; both are fatal configuration errors surfaced
// here, at startup, not at request time.
func NewTable(routes map[string]config.Route, registry *provider.Registry) (*Table, error) {
	table := &Table{policies: make(map[string]Policy, len(routes))}

	for name, route := range routes {
		if len(route.Default) == 0 {
			return nil, fmt.Errorf("route %q: default provider list is required", name)
		}

		policy := Policy{Rules: make([]Rule, 0, len(route.Rules))}

		for i, rule := range route.Rules {
			pattern, err := regexp.Compile(rule.Regex)
			if err != nil {
				return nil, fmt.Errorf("route %q: rule %d: invalid regex: %w", name, i, err)
			}
			descriptors, err := resolve(registry, rule.Providers)
			if err != nil {
				return nil, fmt.Errorf("route %q: rule %d: %w", name, i, err)
			}
			policy.Rules = append(policy.Rules, Rule{Pattern: pattern, Providers: descriptors})
		}

		descriptors, err := resolve(registry, route.Default)
		if err != nil {
			return nil, fmt.Errorf("route %q: default: %w", name, err)
		}
		policy.Default = descriptors

		table.policies[name] = policy
	}

	return table, nil
}

// Policy returns the named policy.
func (t *Table) Policy(name string) (Policy, bool) {
	p, ok := t.policies[name]
	return p, ok
}

func resolve(registry *provider.Registry, nicknames []string) ([]provider.Descriptor, error) {
	if len(nicknames) == 0 {
		return nil, fmt.Errorf("provider list is empty")
	}
	out := make([]provider.Descriptor, 0, len(nicknames))
	for _, nickname := range nicknames {
		d, ok := registry.Lookup(nickname)
		if !ok {
			return nil, fmt.Errorf("unregistered provider %q", nickname)
		}
		out = append(out, d)
	}
	return out, nil
}
