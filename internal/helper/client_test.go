package helper

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/typist/humantype/internal/core"
)

// spawnShellHelper starts a tiny shell-scripted stand-in for the real
// keyhelper binary: it's given full control over what it echoes back,
// letting tests drive the handshake and ack-ordering contract without
// a real OS injector.
func spawnShellHelper(t *testing.T, script string, cfg ClientConfig) *Client {
	t.Helper()
	cmd := exec.Command("sh", "-c", script)

	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	c := &Client{
		cfg:         cfg,
		cmd:         cmd,
		stdin:       stdin,
		stdout:      stdout,
		alive:       true,
		readyCh:     make(chan struct{}),
		terminateCh: make(chan struct{}),
	}
	c.logger = zap.NewNop()
	go c.readLoop()
	go c.watchExit()
	return c
}

func TestClient_HandshakeSucceedsOnReady(t *testing.T) {
	c := spawnShellHelper(t, `echo READY; while read -r line; do echo OK; done`, DefaultClientConfig())
	defer c.Close()

	require.NoError(t, c.Ready(context.Background()))
	ack, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)
	require.True(t, ack.OK)
}

func TestClient_HandshakeTimeoutDowngradesToFireAndForget(t *testing.T) {
	cfg := ClientConfig{HandshakeTimeout: 30 * time.Millisecond, AckTimeout: time.Second}
	c := spawnShellHelper(t, `sleep 5`, cfg)
	defer c.Close()

	require.NoError(t, c.Ready(context.Background()))
	ack, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)
	require.True(t, ack.OK, "fire-and-forget mode always resolves OK without awaiting an ack")
}

func TestClient_SequentialSendsEachResolveOK(t *testing.T) {
	c := spawnShellHelper(t, `echo READY; while read -r line; do echo OK; done`, DefaultClientConfig())
	defer c.Close()

	require.NoError(t, c.Ready(context.Background()))
	for i := 0; i < 5; i++ {
		ack, err := c.Send(context.Background(), "x")
		require.NoError(t, err)
		require.True(t, ack.OK)
	}
}

func TestClient_AckTimeoutReturnsAckTimeoutAndStaysAlive(t *testing.T) {
	cfg := ClientConfig{HandshakeTimeout: time.Second, AckTimeout: 30 * time.Millisecond}
	c := spawnShellHelper(t, `echo READY; sleep 5`, cfg)
	defer c.Close()

	require.NoError(t, c.Ready(context.Background()))
	_, err := c.Send(context.Background(), "slow")
	require.ErrorIs(t, err, core.ErrAckTimeout)
	require.True(t, c.IsAlive())
}

func TestClient_ProcessExitFailsPendingWithHelperGone(t *testing.T) {
	c := spawnShellHelper(t, `echo READY; read -r line; exit 1`, DefaultClientConfig())
	require.NoError(t, c.Ready(context.Background()))

	_, err := c.Send(context.Background(), "bye")
	require.ErrorIs(t, err, core.ErrHelperGone)

	time.Sleep(50 * time.Millisecond)
	require.False(t, c.IsAlive())
}
