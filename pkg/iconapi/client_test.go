package iconapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgerrors "github.com/zauberjournal/journal-api/pkg/errors"
)

func respond(status int, body string) roundTripFunc {
	return func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     http.Header{},
		}, nil
	}
}

func TestFetchIconsRequest(t *testing.T) {
	var captured *http.Request
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		return respond(http.StatusOK, `{"icons":[{"keyword":"tomate","emoji":"🍅"},{"keyword":"kirschtomate","emoji":"🍒"}]}`)(req)
	})

	client, err := NewClient("http://journal.test/", WithHTTPClient(&http.Client{Transport: rt}), WithUserAgent("test-agent"))
	require.NoError(t, err)

	icons, err := client.FetchIcons(context.Background())
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, http.MethodGet, captured.Method)
	assert.Equal(t, "http://journal.test/api/v1/icon-mappings", captured.URL.String())
	assert.Equal(t, "test-agent", captured.Header.Get("User-Agent"))
	assert.Equal(t, []Icon{{Keyword: "tomate", Emoji: "🍅"}, {Keyword: "kirschtomate", Emoji: "🍒"}}, icons)
}

func TestFetchIconsEmptyTable(t *testing.T) {
	client, err := NewClient("http://journal.test", WithHTTPClient(&http.Client{Transport: respond(http.StatusOK, `{"icons":[]}`)}))
	require.NoError(t, err)

	icons, err := client.FetchIcons(context.Background())
	require.NoError(t, err)
	assert.Empty(t, icons)
}

func TestFetchIconsStatusError(t *testing.T) {
	client, err := NewClient("http://journal.test", WithHTTPClient(&http.Client{Transport: respond(http.StatusServiceUnavailable, "maintenance")}))
	require.NoError(t, err)

	_, err = client.FetchIcons(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "maintenance", statusErr.Body)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestFetchIconsDecodeError(t *testing.T) {
	for name, body := range map[string]string{
		"malformed":     `{"icons":[`,
		"missing icons": `{"data":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			client, err := NewClient("http://journal.test", WithHTTPClient(&http.Client{Transport: respond(http.StatusOK, body)}))
			require.NoError(t, err)

			_, err = client.FetchIcons(context.Background())
			var decodeErr *DecodeError
			assert.True(t, errors.As(err, &decodeErr), "expected DecodeError, got %v", err)
		})
	}
}

func TestFetchIconsTransportError(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	client, err := NewClient("http://journal.test", WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	_, err = client.FetchIcons(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	var decodeErr *DecodeError
	assert.False(t, errors.As(err, &statusErr))
	assert.False(t, errors.As(err, &decodeErr))
	assert.ErrorContains(t, errors.Unwrap(err), "connection refused")
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ")
	assert.ErrorIs(t, err, errBaseURLRequired)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
