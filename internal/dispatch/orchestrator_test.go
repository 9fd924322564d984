package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shineum/email-gateway/internal/email"
	"github.com/shineum/email-gateway/internal/provider"
	"github.com/shineum/email-gateway/internal/routing"
)

// fakeProvider is a scriptable provider contract implementation.
type fakeProvider struct {
	nickname         string
	auth             *provider.Auth
	endpoint         provider.Endpoint
	encoding         provider.Encoding
	payload          provider.Payload
	wantStatus       int
	panicOnSerialize bool
}

func newFake(nickname string) *fakeProvider {
	return &fakeProvider{
		nickname:   nickname,
		endpoint:   provider.Endpoint{Method: provider.MethodPost, URL: "https://" + nickname + ".example.com/send"},
		encoding:   provider.EncodingForm,
		payload:    provider.Payload{"subject": "s"},
		wantStatus: 200,
	}
}

func (f *fakeProvider) Nickname() string                { return f.nickname }
func (f *fakeProvider) Auth() *provider.Auth            { return f.auth }
func (f *fakeProvider) SendEndpoint() provider.Endpoint { return f.endpoint }

func (f *fakeProvider) Serialize(_ *email.Email) (provider.Encoding, provider.Payload) {
	if f.panicOnSerialize {
		panic("boom")
	}
	return f.encoding, f.payload
}

func (f *fakeProvider) IsSuccess(resp *provider.Response) bool {
	return resp != nil && resp.StatusCode == f.wantStatus
}

// transportScript replays a canned outcome per attempt and records every
// request it sees.
type transportScript struct {
	calls    []*Request
	outcomes []func() (*provider.Response, error)
}

func (s *transportScript) transport(_ context.Context, req *Request) (*provider.Response, error) {
	s.calls = append(s.calls, req)
	if len(s.calls) > len(s.outcomes) {
		return nil, errors.New("unexpected transport call")
	}
	return s.outcomes[len(s.calls)-1]()
}

func respondWith(status int) func() (*provider.Response, error) {
	return func() (*provider.Response, error) {
		return &provider.Response{StatusCode: status}, nil
	}
}

func failWith(err error) func() (*provider.Response, error) {
	return func() (*provider.Response, error) { return nil, err }
}

func newOrchestrator(t *testing.T, transport Transport, providers ...*fakeProvider) *Orchestrator {
	t.Helper()

	registry := provider.NewRegistry()
	creds := make(map[string]provider.Credentials)
	for _, p := range providers {
		p := p
		require.NoError(t, registry.Register(p.nickname, func(provider.Credentials) (provider.Provider, error) {
			return p, nil
		}))
		creds[p.nickname] = provider.Credentials{User: "u", Key: "k"}
	}

	table, err := routing.NewTable(nil, registry)
	require.NoError(t, err)

	return NewOrchestrator(routing.NewResolver(table, registry), transport, creds, nil)
}

func testEmail(t *testing.T) *email.Email {
	t.Helper()
	e := email.New(email.WithSubject("hello"), email.WithText("body"))
	require.NoError(t, e.AddRecipient(email.Recipient{Address: "a@b.com", Role: email.RoleTo}))
	require.NoError(t, e.Validate())
	return e
}

func TestSend_FailoverToThirdCandidate(t *testing.T) {
	t.Parallel()

	script := &transportScript{outcomes: []func() (*provider.Response, error){
		failWith(errors.New("dial timeout")),
		respondWith(500),
		respondWith(200),
	}}
	o := newOrchestrator(t, script.transport, newFake("p1"), newFake("p2"), newFake("p3"))

	result, err := o.Send(context.Background(), testEmail(t), "")
	require.NoError(t, err)
	assert.Equal(t, "p3", result.Provider)
	assert.Equal(t, 200, result.Response.StatusCode)

	// Exactly three attempts, in resolver order, none after the winner.
	require.Len(t, script.calls, 3)
	assert.Equal(t, "https://p1.example.com/send", script.calls[0].URL)
	assert.Equal(t, "https://p2.example.com/send", script.calls[1].URL)
	assert.Equal(t, "https://p3.example.com/send", script.calls[2].URL)
}

func TestSend_FirstCandidateWinsWithoutFurtherAttempts(t *testing.T) {
	t.Parallel()

	script := &transportScript{outcomes: []func() (*provider.Response, error){
		respondWith(200),
	}}
	o := newOrchestrator(t, script.transport, newFake("p1"), newFake("p2"))

	result, err := o.Send(context.Background(), testEmail(t), "")
	require.NoError(t, err)
	assert.Equal(t, "p1", result.Provider)
	assert.Len(t, script.calls, 1)
}

func TestSend_Exhaustion(t *testing.T) {
	t.Parallel()

	script := &transportScript{outcomes: []func() (*provider.Response, error){
		failWith(errors.New("connection refused")),
		respondWith(403),
	}}
	o := newOrchestrator(t, script.transport, newFake("p1"), newFake("p2"))

	result, err := o.Send(context.Background(), testEmail(t), "")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.Len(t, script.calls, 2)
}

func TestSend_SkipsInvalidCandidates(t *testing.T) {
	t.Parallel()

	badEndpoint := newFake("bad-endpoint")
	badEndpoint.endpoint.Method = provider.Method("PATCH")

	badSerialize := newFake("bad-serialize")
	badSerialize.panicOnSerialize = true

	badEncoding := newFake("bad-encoding")
	badEncoding.encoding = provider.Encoding("xml")

	good := newFake("good")

	script := &transportScript{outcomes: []func() (*provider.Response, error){
		respondWith(200),
	}}
	o := newOrchestrator(t, script.transport, badEndpoint, badSerialize, badEncoding, good)

	result, err := o.Send(context.Background(), testEmail(t), "")
	require.NoError(t, err)
	assert.Equal(t, "good", result.Provider)

	// Contract violations never reach the transport.
	require.Len(t, script.calls, 1)
	assert.Equal(t, "https://good.example.com/send", script.calls[0].URL)
}

func TestSend_SkipsFailingFactory(t *testing.T) {
	t.Parallel()

	registry := provider.NewRegistry()
	require.NoError(t, registry.Register("broken", func(provider.Credentials) (provider.Provider, error) {
		return nil, errors.New("missing credentials")
	}))
	good := newFake("good")
	require.NoError(t, registry.Register("good", func(provider.Credentials) (provider.Provider, error) {
		return good, nil
	}))

	table, err := routing.NewTable(nil, registry)
	require.NoError(t, err)

	script := &transportScript{outcomes: []func() (*provider.Response, error){
		respondWith(200),
	}}
	o := NewOrchestrator(routing.NewResolver(table, registry), script.transport, nil, nil)

	result, err := o.Send(context.Background(), testEmail(t), "")
	require.NoError(t, err)
	assert.Equal(t, "good", result.Provider)
	assert.Len(t, script.calls, 1)
}

func TestSend_UnknownRoutePropagates(t *testing.T) {
	t.Parallel()

	script := &transportScript{}
	o := newOrchestrator(t, script.transport, newFake("p1"))

	_, err := o.Send(context.Background(), testEmail(t), "ghost")
	assert.ErrorIs(t, err, routing.ErrUnknownRoute)
	assert.Empty(t, script.calls, "no attempt is made on a routing error")
}

func TestSend_RequestCarriesProviderDeclaration(t *testing.T) {
	t.Parallel()

	p := newFake("p1")
	p.auth = &provider.Auth{Username: "api", Key: "secret"}
	p.encoding = provider.EncodingJSON
	p.payload = provider.Payload{"subject": "hello"}

	script := &transportScript{outcomes: []func() (*provider.Response, error){
		respondWith(200),
	}}
	o := newOrchestrator(t, script.transport, p)

	_, err := o.Send(context.Background(), testEmail(t), "")
	require.NoError(t, err)

	require.Len(t, script.calls, 1)
	req := script.calls[0]
	assert.Equal(t, provider.MethodPost, req.Method)
	assert.Equal(t, "https://p1.example.com/send", req.URL)
	require.NotNil(t, req.Auth)
	assert.Equal(t, "api", req.Auth.Username)
	assert.Equal(t, provider.EncodingJSON, req.Encoding)
	assert.Equal(t, provider.Payload{"subject": "hello"}, req.Payload)
}

func TestSend_CredentialsReachFactory(t *testing.T) {
	t.Parallel()

	registry := provider.NewRegistry()
	var seen provider.Credentials
	p := newFake("p1")
	require.NoError(t, registry.Register("p1", func(creds provider.Credentials) (provider.Provider, error) {
		seen = creds
		return p, nil
	}))

	table, err := routing.NewTable(nil, registry)
	require.NoError(t, err)

	script := &transportScript{outcomes: []func() (*provider.Response, error){
		respondWith(200),
	}}
	creds := map[string]provider.Credentials{"p1": {User: "api_client", Key: "sk_test"}}
	o := NewOrchestrator(routing.NewResolver(table, registry), script.transport, creds, nil)

	_, err = o.Send(context.Background(), testEmail(t), "")
	require.NoError(t, err)
	assert.Equal(t, provider.Credentials{User: "api_client", Key: "sk_test"}, seen)
}
