package yahoo_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"stockinfo/internal/provider/yahoo"
)

// jsonResponse encodes body as a 200 response.
func jsonResponse(t *testing.T, body any) *http.Response {
	t.Helper()
	buffer := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buffer).Encode(body))
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(buffer),
	}
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	// Assert: defaults should return a client.
	client, err := yahoo.NewClient()
	require.NoErrorf(t, err, "unexpected error: %v", err)
	require.NotNilf(t, client, "unexpected nil client")
}

func TestNewClient_ErrBaseURL(t *testing.T) {
	t.Parallel()

	_, err := yahoo.NewClient(yahoo.WithBaseURL(""))
	require.Error(t, err)

	_, err = yahoo.NewClient(yahoo.WithBaseURL(string([]rune{0x7f})))
	require.Error(t, err)
}

func TestWithBaseURL(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Arrange: define a base url
	baseURL := "http://localhost:8080"

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Truef(t, strings.HasPrefix(req.URL.String(), baseURL), "expected url to start with base url, received: %s", req.URL.String())
			return jsonResponse(t, map[string]any{}), nil
		}).
		Times(1)

	// Arrange: create a new client.
	client, err := yahoo.NewClient(yahoo.WithHTTPClient(httpClient), yahoo.WithBaseURL(baseURL))
	require.NoError(t, err)

	// Act: call GetChart with the overridden base URL.
	_, err = client.GetChart(context.Background(), "7203.T", "5d", false)
	require.NoError(t, err)
}

func TestWithHeaderAndQuery(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: headers and default query params are sent on every request
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "bar", req.Header.Get("foo"))
			require.Equal(t, "application/json", req.Header.Get("Accept"))
			require.Equal(t, "US", req.URL.Query().Get("region"))
			return jsonResponse(t, map[string]any{}), nil
		}).
		Times(2)

	// Arrange: create a new client with a custom header and query.
	client, err := yahoo.NewClient(
		yahoo.WithHTTPClient(httpClient),
		yahoo.WithHeader(http.Header{"foo": []string{"bar"}}),
		yahoo.WithQuery(url.Values{"region": []string{"US"}}),
	)
	require.NoError(t, err)

	// Act: both endpoints carry the defaults.
	_, err = client.GetChart(context.Background(), "AAPL", "5d", false)
	require.NoError(t, err)
	_, err = client.GetQuoteSummary(context.Background(), "AAPL", nil)
	require.NoError(t, err)
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(&http.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       io.NopCloser(strings.NewReader("Too Many Requests")),
		}, nil).
		Times(1)

	client, err := yahoo.NewClient(yahoo.WithHTTPClient(httpClient))
	require.NoError(t, err)

	_, err = client.GetChart(context.Background(), "AAPL", "5d", false)
	var se *yahoo.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusTooManyRequests, se.Code)
	require.Equal(t, "Too Many Requests", se.Body)
}
