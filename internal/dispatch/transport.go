// Package dispatch executes the failover protocol: it walks the
// routing-resolved candidate list, builds each provider's request, runs
// it through an injected transport, and stops at the first provider
// that accepts the email.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shineum/email-gateway/internal/provider"
)

// Request is the transport-level description of one provider call: the
// endpoint, the optional basic-auth pair, and the payload together with
// the channel it belongs in.
type Request struct {
	Method   provider.Method
	URL      string
	Auth     *provider.Auth
	Encoding provider.Encoding
	Payload  provider.Payload
}

// Transport executes a provider request. The orchestrator never builds
// its own client; injecting the transport keeps timeout semantics with
// the caller and makes the whole dispatch loop testable without a
// network.
type Transport func(ctx context.Context, req *Request) (*provider.Response, error)

// HTTPTransport returns a Transport backed by the given HTTP client.
// The payload is placed according to the request encoding: URL-encoded
// form body, JSON body, or URL query parameters. Basic auth is attached
// only when the request carries an auth pair.
func HTTPTransport(client *http.Client) Transport {
	return func(ctx context.Context, req *Request) (*provider.Response, error) {
		httpReq, err := buildHTTPRequest(ctx, req)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("request to %s failed: %w", req.URL, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response from %s: %w", req.URL, err)
		}

		return &provider.Response{StatusCode: resp.StatusCode, Body: body}, nil
	}
}

func buildHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var body io.Reader
	var contentType string
	target := req.URL

	switch req.Encoding {
	case provider.EncodingForm:
		body = strings.NewReader(flatten(req.Payload).Encode())
		contentType = "application/x-www-form-urlencoded"
	case provider.EncodingJSON:
		data, err := json.Marshal(req.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode JSON payload: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case provider.EncodingQuery:
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + flatten(req.Payload).Encode()
	default:
		return nil, fmt.Errorf("unrecognized encoding %q", req.Encoding)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.Auth != nil {
		httpReq.SetBasicAuth(req.Auth.Username, req.Auth.Key)
	}
	return httpReq, nil
}

// flatten converts a payload into url.Values. Strings map to single
// values, string slices to repeated keys; nils and empty strings are
// dropped, so unset fields never appear as empty parameters. Anything
// else is rendered with fmt.
func flatten(payload provider.Payload) url.Values {
	values := url.Values{}
	for key, value := range payload {
		switch v := value.(type) {
		case nil:
		case string:
			if v != "" {
				values.Set(key, v)
			}
		case []string:
			for _, item := range v {
				values.Add(key, item)
			}
		default:
			values.Set(key, fmt.Sprint(v))
		}
	}
	return values
}
