package helper

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/typist/humantype/internal/core"
)

// ClientConfig carries the timeouts of spec §4.3.
type ClientConfig struct {
	HandshakeTimeout time.Duration
	AckTimeout       time.Duration
}

// DefaultClientConfig returns the recommended timeouts.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 2 * time.Second,
		AckTimeout:       2 * time.Second,
	}
}

type pendingAck struct {
	resultCh chan core.Ack
}

// Client wraps a keystroke-helper subprocess, implementing
// core.HelperClientPort. Grounded on the teacher's subprocess-pipe
// pattern (stdin/stdout pipes plus a background scanning goroutine),
// generalized to the FIFO ack queue spec §4.3 requires.
type Client struct {
	cfg    ClientConfig
	logger *zap.Logger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	mu          sync.Mutex
	pending     []*pendingAck
	alive       bool
	downgraded  bool
	readyCh     chan struct{}
	readyErr    error
	readyOnce   sync.Once
	terminateCh chan struct{}
}

// Spawn starts the keystroke-helper binary at path and begins reading
// its stdout line by line.
func Spawn(ctx context.Context, path string, args []string, cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cmd := exec.Command(path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %v", core.ErrHelperSpawnFailed, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", core.ErrHelperSpawnFailed, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrHelperSpawnFailed, err)
	}

	c := &Client{
		cfg:         cfg,
		logger:      logger,
		cmd:         cmd,
		stdin:       stdin,
		stdout:      stdout,
		alive:       true,
		readyCh:     make(chan struct{}),
		terminateCh: make(chan struct{}),
	}

	go c.readLoop()
	go c.watchExit()

	return c, nil
}

func (c *Client) readLoop() {
	scanner := bufio.NewScanner(c.stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if line == Ready {
			c.resolveReady(nil)
			continue
		}
		c.resolveOldest(core.Ack{OK: line == AckOK})
	}
	c.terminate(core.ErrHelperGone)
}

func (c *Client) watchExit() {
	_ = c.cmd.Wait()
	c.terminate(core.ErrHelperGone)
}

func (c *Client) resolveReady(err error) {
	c.readyOnce.Do(func() {
		c.readyErr = err
		close(c.readyCh)
	})
}

func (c *Client) resolveOldest(ack core.Ack) {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	p := c.pending[0]
	c.pending = c.pending[1:]
	c.mu.Unlock()
	p.resultCh <- ack
}

func (c *Client) terminate(cause error) {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return
	}
	c.alive = false
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, p := range pending {
		p.resultCh <- core.Ack{OK: false}
	}
	c.resolveReady(cause)
	close(c.terminateCh)
}

// Ready implements core.HelperClientPort. If READY has not arrived by
// the handshake timeout, the client silently downgrades to
// fire-and-forget mode and Ready returns nil (not an error) — per
// spec §4.3, a missing handshake tolerates legacy helpers.
func (c *Client) Ready(ctx context.Context) error {
	select {
	case <-c.readyCh:
		return c.readyErr
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.cfg.HandshakeTimeout):
		c.mu.Lock()
		c.downgraded = true
		c.mu.Unlock()
		c.logger.Warn("helper handshake timed out, downgrading to fire-and-forget")
		return nil
	}
}

// Send implements core.HelperClientPort.
func (c *Client) Send(ctx context.Context, line string) (core.Ack, error) {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return core.Ack{}, core.ErrHelperGone
	}
	downgraded := c.downgraded
	c.mu.Unlock()

	if _, err := io.WriteString(c.stdin, line+"\n"); err != nil {
		c.terminate(core.ErrHelperGone)
		return core.Ack{}, fmt.Errorf("write: %w", core.ErrHelperGone)
	}

	if downgraded {
		return core.Ack{OK: true}, nil
	}

	p := &pendingAck{resultCh: make(chan core.Ack, 1)}
	c.mu.Lock()
	c.pending = append(c.pending, p)
	c.mu.Unlock()

	timer := time.NewTimer(c.cfg.AckTimeout)
	defer timer.Stop()

	select {
	case ack := <-p.resultCh:
		if !ack.OK && !c.IsAlive() {
			return ack, core.ErrHelperGone
		}
		return ack, nil
	case <-timer.C:
		c.removePending(p)
		return core.Ack{}, core.ErrAckTimeout
	case <-ctx.Done():
		c.removePending(p)
		return core.Ack{}, ctx.Err()
	case <-c.terminateCh:
		return core.Ack{}, core.ErrHelperGone
	}
}

func (c *Client) removePending(p *pendingAck) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, x := range c.pending {
		if x == p {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// IsAlive implements core.HelperClientPort.
func (c *Client) IsAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

// Close implements core.HelperClientPort: asks the helper to exit,
// then releases the subprocess.
func (c *Client) Close() error {
	if c.IsAlive() {
		_, _ = io.WriteString(c.stdin, CmdExit+"\n")
	}
	_ = c.stdin.Close()
	if c.cmd.Process != nil {
		select {
		case <-c.terminateCh:
		case <-time.After(500 * time.Millisecond):
			_ = c.cmd.Process.Kill()
		}
	}
	return nil
}
