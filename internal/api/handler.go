package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shineum/email-gateway/internal/dispatch"
	"github.com/shineum/email-gateway/internal/email"
	"github.com/shineum/email-gateway/internal/routing"
)

// sendRequest is the inbound send payload, accepted as a JSON body or
// URL-encoded form parameters. Recipient fields take a single address
// string or a list.
type sendRequest struct {
	To      stringList `json:"to"`
	Cc      stringList `json:"cc"`
	Bcc     stringList `json:"bcc"`
	Subject string     `json:"subject"`
	Text    string     `json:"text"`
	HTML    string     `json:"html"`
	From    string     `json:"from"`
	ReplyTo string     `json:"reply_to"`
	Route   string     `json:"route"`
}

// stringList decodes from either a JSON string or an array of strings.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*s = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*s = []string{single}
	return nil
}

// handleSend validates and sends an email.
//
// Validation failures are the caller's problem and come back verbatim
// with a 400. Everything that goes wrong after validation is uniform: a
// 502 with no per-candidate detail, which stays in the logs.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	req, err := parseSendRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipients, err := email.BuildRecipients(map[email.Role][]string{
		email.RoleTo:  req.To,
		email.RoleCc:  req.Cc,
		email.RoleBcc: req.Bcc,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	from := req.From
	if from == "" {
		from = s.config.DefaultFrom
	}

	e, err := email.BuildEmail(recipients, req.Subject, req.Text, req.HTML, from, req.ReplyTo)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.config.Sender.Send(r.Context(), e, req.Route)
	if err != nil {
		if errors.Is(err, routing.ErrUnknownRoute) || errors.Is(err, dispatch.ErrAllProvidersFailed) {
			s.logger.Warn("send failed", "route", req.Route, "error", err)
		} else {
			s.logger.Error("send failed", "route", req.Route, "error", err)
		}
		writeError(w, http.StatusBadGateway, "no provider accepted the message")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "sent",
		"provider": result.Provider,
	})
}

// parseSendRequest decodes the request body according to its content
// type: JSON, or URL-encoded form parameters for everything else.
func parseSendRequest(r *http.Request) (*sendRequest, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "application/json") {
		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		return &req, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form parameters: %w", err)
	}
	return &sendRequest{
		To:      r.Form["to"],
		Cc:      r.Form["cc"],
		Bcc:     r.Form["bcc"],
		Subject: r.Form.Get("subject"),
		Text:    r.Form.Get("text"),
		HTML:    r.Form.Get("html"),
		From:    r.Form.Get("from"),
		ReplyTo: r.Form.Get("reply_to"),
		Route:   r.Form.Get("route"),
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // headers already sent
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
