package email

// BuildRecipients parses and validates raw address strings grouped by
// role. Order is stable: roles in the order given, addresses in input
// order within each role. Empty strings are skipped. The first invalid
// address aborts the whole build.
func BuildRecipients(byRole map[Role][]string) ([]Recipient, error) {
	// Fixed iteration order keeps recipient insertion order deterministic.
	roles := []Role{RoleTo, RoleCc, RoleBcc}

	var recipients []Recipient
	for _, role := range roles {
		for _, raw := range byRole[role] {
			if raw == "" {
				continue
			}
			r := ParseRecipient(raw, role)
			if err := r.Validate(); err != nil {
				return nil, err
			}
			recipients = append(recipients, r)
		}
	}
	return recipients, nil
}

// BuildEmail assembles and validates a complete email from pre-built
// recipients and raw field values. From and reply-to are optional; when
// present they must themselves be valid. The returned email has passed
// Validate and is ready for routing.
func BuildEmail(recipients []Recipient, subject, text, html, from, replyTo string) (*Email, error) {
	e := New(
		WithSubject(subject),
		WithText(text),
		WithHTML(html),
	)
	if err := e.AddRecipients(recipients); err != nil {
		return nil, err
	}

	if from != "" {
		sender := ParseRecipient(from, RoleFrom)
		if err := sender.Validate(); err != nil {
			return nil, err
		}
		if err := e.SetFrom(sender); err != nil {
			return nil, err
		}
	}

	if replyTo != "" {
		// Reply-to is a bare address, not a Recipient: only the format
		// is checked.
		if err := ValidateAddress(replyTo); err != nil {
			return nil, err
		}
		e.replyTo = replyTo
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}
