package browser

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
	"github.com/damongreen123/fpl-ccd-configuration/internal/poll"
)

func testPoller(t *testing.T) *poll.Poller {
	t.Helper()
	p, err := poll.New(5*time.Millisecond, 100*time.Millisecond)
	require.NoError(t, err)
	return p
}

func configFor(t *testing.T, rawURL string) Config {
	t.Helper()
	host, port, err := net.SplitHostPort(rawURL[len("http://"):])
	require.NoError(t, err)
	n, err := strconv.Atoi(port)
	require.NoError(t, err)
	return Config{CDPAddress: host, CDPPort: n, ProfileDir: t.TempDir()}
}

func TestLaunchReusesRunningBrowser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/version" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"Browser":"Chrome/126"}`))
	}))
	defer srv.Close()

	l := NewLauncher(configFor(t, srv.URL), testPoller(t), nil)
	l.lookup = func() (string, error) { return "", errors.New("must not look for a binary") }

	require.NoError(t, l.Launch(context.Background()))
	assert.False(t, l.Running())
	assert.Equal(t, srv.URL, l.CDPURL())
	l.Stop()
}

func TestLaunchTimesOutOnUnhealthyEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	l := NewLauncher(configFor(t, srv.URL), testPoller(t), nil)
	err := l.Launch(context.Background())
	assert.Equal(t, failure.CodeTimeoutExceeded, failure.Code(err))
}

func TestLaunchWithoutBrowserBinary(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := "http://" + ln.Addr().String()
	require.NoError(t, ln.Close())

	l := NewLauncher(configFor(t, addr), testPoller(t), nil)
	l.lookup = func() (string, error) { return "", errors.New("no supported browser found") }

	err = l.Launch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no supported browser")
	assert.False(t, l.Running())
}
