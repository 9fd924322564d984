// Package provider defines the contract every third-party email service
// integration must satisfy, plus the structural validator and the
// registry of known provider types.
//
// A Provider only shapes data: it declares where to send (endpoint),
// how to authenticate, and how to serialize an email into its API
// format. All I/O is performed by the dispatch layer.
package provider

import (
	"github.com/shineum/email-gateway/internal/email"
)

// Method is an HTTP method a provider endpoint may use.
type Method string

const (
	MethodPost Method = "POST"
	MethodGet  Method = "GET"
)

// Valid reports whether the method is one of the recognized values.
func (m Method) Valid() bool {
	return m == MethodPost || m == MethodGet
}

// Encoding names the transport channel a serialized payload is placed
// into: an URL-encoded form body, a JSON body, or URL query parameters.
type Encoding string

const (
	EncodingForm  Encoding = "form"
	EncodingJSON  Encoding = "json"
	EncodingQuery Encoding = "query"
)

// Valid reports whether the encoding is one of the recognized values.
func (e Encoding) Valid() bool {
	switch e {
	case EncodingForm, EncodingJSON, EncodingQuery:
		return true
	}
	return false
}

// Auth is an HTTP basic-auth credential pair. Providers that embed
// credentials in the payload instead return a nil *Auth.
type Auth struct {
	Username string
	Key      string
}

// Endpoint is the method and URL a provider's send API lives at.
type Endpoint struct {
	Method Method
	URL    string
}

// Payload is a flat field mapping produced by Serialize. Values are
// strings or string slices; the transport flattens them according to
// the declared Encoding.
type Payload map[string]any

// Response is a transport-level response handed back to the provider
// for success interpretation.
type Response struct {
	StatusCode int
	Body       []byte
}

// Credentials is the per-nickname account identity loaded from
// configuration.
type Credentials struct {
	User string
	Key  string
}

// Provider is the capability set a third-party integration exposes.
// Implementations must be free of I/O: Serialize is a pure
// transformation and IsSuccess only inspects the given response.
type Provider interface {
	// Nickname returns the unique key used for configuration lookup and
	// routing-rule references.
	Nickname() string

	// Auth returns the HTTP basic-auth pair, or nil when the API does
	// not use HTTP auth.
	Auth() *Auth

	// SendEndpoint returns the method and URL of the send API.
	SendEndpoint() Endpoint

	// Serialize converts the email into the provider's field format and
	// names the transport channel the payload belongs in.
	Serialize(e *email.Email) (Encoding, Payload)

	// IsSuccess interprets a transport response. Implementations must
	// not panic; any inspection failure counts as false.
	IsSuccess(resp *Response) bool
}

// Factory instantiates a provider with its configuration slice.
type Factory func(creds Credentials) (Provider, error)

// Descriptor is a routing-resolved provider type: the nickname plus the
// factory the dispatcher instantiates lazily, one candidate at a time.
type Descriptor struct {
	Nickname string
	New      Factory
}
