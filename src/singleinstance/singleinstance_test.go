package singleinstance

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	mu      sync.Mutex
	actions []string
	err     error
}

func (h *fakeHandler) HandleAction(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.actions = append(h.actions, name)
	return nil
}

func (h *fakeHandler) Status(context.Context) (string, error) {
	return "mode=idle pending=0 busy=false", nil
}

func (h *fakeHandler) got() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.actions...)
}

// usePort pins the port range to a single port that was free a moment ago.
func usePort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", residentHost+":0")
	require.NoError(t, err)
	port := lis.Addr().(*net.TCPAddr).Port
	require.NoError(t, lis.Close())
	t.Setenv("SINGLEINSTANCE_PORT_START", strconv.Itoa(port))
	t.Setenv("SINGLEINSTANCE_PORT_END", strconv.Itoa(port))
	return port
}

func startServer(t *testing.T, h Handler) *Server {
	t.Helper()
	usePort(t)
	srv := NewServer(h)
	if err := srv.Start(); err != nil {
		t.Skipf("loopback unavailable in this environment: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return srv
}

func TestSendAction(t *testing.T) {
	h := &fakeHandler{}
	srv := startServer(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	port, ok := DetectResidentPort(ctx)
	require.True(t, ok)
	require.Equal(t, srv.Port(), port)

	require.NoError(t, SendAction(ctx, "capture"))
	require.NoError(t, SendAction(ctx, "move-up"))
	require.Equal(t, []string{"capture", "move-up"}, h.got())
}

func TestSendActionHandlerError(t *testing.T) {
	h := &fakeHandler{err: errors.New("unknown action \"bogus\"")}
	startServer(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := SendAction(ctx, "bogus")
	require.EqualError(t, err, "unknown action \"bogus\"")
}

func TestQueryStatus(t *testing.T) {
	startServer(t, &fakeHandler{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	text, err := QueryStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, "mode=idle pending=0 busy=false", text)
}

func TestDispatch(t *testing.T) {
	srv := NewServer(&fakeHandler{})
	ctx := context.Background()

	require.Equal(t, "PONG", srv.dispatch(ctx, "PING"))
	require.Equal(t, "OK", srv.dispatch(ctx, "ACTION reset"))
	require.Equal(t, "ERROR missing action name", srv.dispatch(ctx, "ACTION"))
	require.Equal(t, `ERROR unknown command "HELLO"`, srv.dispatch(ctx, "HELLO"))
}

func TestNoResident(t *testing.T) {
	usePort(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, ok := DetectResidentPort(ctx)
	require.False(t, ok)
	require.ErrorIs(t, SendAction(ctx, "capture"), ErrNoResident)
}

func TestPortRangeClamp(t *testing.T) {
	t.Setenv("SINGLEINSTANCE_PORT_START", "80")
	t.Setenv("SINGLEINSTANCE_PORT_END", "70000")
	start, end := getPortRange()
	require.Equal(t, 1024, start)
	require.Equal(t, 65535, end)

	t.Setenv("SINGLEINSTANCE_PORT_START", "")
	t.Setenv("SINGLEINSTANCE_PORT_END", "")
	start, end = getPortRange()
	require.Equal(t, defaultPortStart, start)
	require.Equal(t, defaultPortEnd, end)
}

func TestExchange(t *testing.T) {
	srv := startServer(t, &fakeHandler{})

	resp, err := exchange(srv.Port(), "PING", time.Second)
	require.NoError(t, err)
	require.Equal(t, "PONG", resp)

	resp, err = exchange(srv.Port(), "STATUS", time.Second)
	require.NoError(t, err)
	require.Equal(t, "OK mode=idle pending=0 busy=false", resp)
}

func TestDetectIgnoresForeignListener(t *testing.T) {
	lis, err := net.Listen("tcp", residentHost+":0")
	if err != nil {
		t.Skipf("loopback unavailable in this environment: %v", err)
	}
	t.Cleanup(func() { _ = lis.Close() })
	go func() {
		for {
			c, err := lis.Accept()
			if err != nil {
				return
			}
			_, _ = c.Write([]byte("HELLO\n"))
			_ = c.Close()
		}
	}()
	port := strconv.Itoa(lis.Addr().(*net.TCPAddr).Port)
	t.Setenv("SINGLEINSTANCE_PORT_START", port)
	t.Setenv("SINGLEINSTANCE_PORT_END", port)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, ok := DetectResidentPort(ctx)
	require.False(t, ok)
	require.ErrorIs(t, SendAction(ctx, "capture"), ErrNoResident)
}
