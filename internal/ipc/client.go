package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Common errors.
var (
	ErrNotConnected     = errors.New("not connected to daemon")
	ErrDaemonNotRunning = errors.New("daemon is not running")
)

// ClientConfig configures the IPC client.
type ClientConfig struct {
	SocketPath     string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(socketPath string) ClientConfig {
	return ClientConfig{
		SocketPath:     socketPath,
		ConnectTimeout: 5 * time.Second,
		RequestTimeout: 10 * time.Second,
	}
}

// Client is a synchronous request/response client for the daemon socket.
// Safe for concurrent use; requests are serialized on the connection.
type Client struct {
	cfg ClientConfig

	mu        sync.Mutex
	conn      net.Conn
	connected atomic.Bool
	nextReqID atomic.Uint32
}

// NewClient creates a new IPC client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	return &Client{cfg: cfg}
}

// Connect establishes a connection to the daemon.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected.Load() {
		return nil
	}

	conn, err := dial(c.cfg.SocketPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrDaemonNotRunning
		}
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return ErrDaemonNotRunning
		}
		return fmt.Errorf("connect: %w", err)
	}

	c.conn = conn
	c.connected.Store(true)
	return nil
}

// Close closes the connection to the daemon.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connected.Store(false)
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// Do sends a request and waits for the matching response.
func (c *Client) Do(msgType MessageType, payload any) (*Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected.Load() || c.conn == nil {
		return nil, ErrNotConnected
	}

	var data []byte
	if payload != nil {
		var err error
		data, err = Encode(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	reqID := c.nextReqID.Add(1)
	msg := NewMessage(msgType, reqID, data)

	deadline := time.Now().Add(c.cfg.RequestTimeout)
	c.conn.SetWriteDeadline(deadline)
	if err := msg.Write(c.conn); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	c.conn.SetReadDeadline(deadline)
	for {
		resp, err := ReadMessage(c.conn)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.Header.RequestID != reqID {
			continue
		}
		if resp.Header.Type == MsgError {
			var errResp ErrorResponse
			if derr := Decode(resp.Payload, &errResp); derr == nil {
				return nil, fmt.Errorf("daemon error %d: %s", errResp.Code, errResp.Message)
			}
			return nil, errors.New("daemon error")
		}
		return resp, nil
	}
}

// Ping checks that the daemon answers.
func (c *Client) Ping() error {
	resp, err := c.Do(MsgPing, nil)
	if err != nil {
		return err
	}
	if resp.Header.Type != MsgPong {
		return fmt.Errorf("unexpected response type %#x", resp.Header.Type)
	}
	return nil
}

// Status returns the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	resp, err := c.Do(MsgStatusRequest, nil)
	if err != nil {
		return nil, err
	}
	var status StatusResponse
	if err := Decode(resp.Payload, &status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

// Pause pauses journaling and returns the resulting state.
func (c *Client) Pause() (bool, error) {
	return c.pauseCommand(MsgPause)
}

// Resume resumes journaling and returns the resulting state.
func (c *Client) Resume() (bool, error) {
	return c.pauseCommand(MsgResume)
}

// TogglePause flips the pause state and returns the resulting state.
func (c *Client) TogglePause() (bool, error) {
	return c.pauseCommand(MsgTogglePause)
}

func (c *Client) pauseCommand(msgType MessageType) (bool, error) {
	resp, err := c.Do(msgType, nil)
	if err != nil {
		return false, err
	}
	var state PauseStateResponse
	if err := Decode(resp.Payload, &state); err != nil {
		return false, fmt.Errorf("decode pause state: %w", err)
	}
	return state.Paused, nil
}

// NewSegment rotates to a new journal segment.
func (c *Client) NewSegment() (*NewSegmentResponse, error) {
	resp, err := c.Do(MsgNewSegment, nil)
	if err != nil {
		return nil, err
	}
	var seg NewSegmentResponse
	if err := Decode(resp.Payload, &seg); err != nil {
		return nil, fmt.Errorf("decode segment response: %w", err)
	}
	return &seg, nil
}

// OpenLogs asks for the journal directory.
func (c *Client) OpenLogs() (string, error) {
	resp, err := c.Do(MsgOpenLogs, nil)
	if err != nil {
		return "", err
	}
	var out OpenLogsResponse
	if err := Decode(resp.Payload, &out); err != nil {
		return "", fmt.Errorf("decode open logs response: %w", err)
	}
	return out.Dir, nil
}

// Stats returns the daily counters, newest first.
func (c *Client) Stats(days int) (*StatsResponse, error) {
	resp, err := c.Do(MsgStatsRequest, &StatsRequest{Days: days})
	if err != nil {
		return nil, err
	}
	var stats StatsResponse
	if err := Decode(resp.Payload, &stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return &stats, nil
}

// SetAutostart enables or disables launch-at-login.
func (c *Client) SetAutostart(enabled bool) (*AutostartResponse, error) {
	resp, err := c.Do(MsgAutostartSet, &AutostartSetRequest{Enabled: enabled})
	if err != nil {
		return nil, err
	}
	var out AutostartResponse
	if err := Decode(resp.Payload, &out); err != nil {
		return nil, fmt.Errorf("decode autostart response: %w", err)
	}
	return &out, nil
}

// Quit asks the daemon to shut down.
func (c *Client) Quit() error {
	_, err := c.Do(MsgQuit, nil)
	return err
}
