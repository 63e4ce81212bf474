package elasticbud_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/elasticbud"
)

// newTestCluster starts a fake cluster and returns a client wired to it.
// mutate, when non-nil, adjusts the config before the client is built.
func newTestCluster(t *testing.T, handler http.Handler, mutate func(*elasticbud.ClusterConfig), opts ...elasticbud.Option) *elasticbud.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	cfg := elasticbud.ClusterConfig{
		Host:          u.Hostname(),
		Port:          port,
		Timeout:       5 * time.Second,
		MaxRetries:    3,
		RetryInterval: time.Millisecond,
		MaxIdleConns:  4,
		Insecure:      true,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	client, err := elasticbud.New(cfg, opts...)
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write([]byte(body))
	require.NoError(t, err)
}
