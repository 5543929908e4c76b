package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

const (
	pingTimeout    = 300 * time.Millisecond
	requestTimeout = 2 * time.Second
)

type tcpClient struct {
	ports PortRange
}

func newTcpClient() Client { return &tcpClient{ports: PortRangeFromEnv()} }

func (c *tcpClient) TryRunOnce(ctx context.Context) (bool, string, error) {
	addr, ok := find(ctx, c.ports)
	if !ok {
		return false, "", nil
	}
	summary, err := capture(ctx, addr)
	return true, summary, err
}

// FindResident returns the address of a running resident, if one answers PING.
func FindResident(ctx context.Context) (string, bool) {
	return find(ctx, PortRangeFromEnv())
}

func find(ctx context.Context, ports PortRange) (string, bool) {
	for _, addr := range ports.candidates() {
		if ctx.Err() != nil {
			return "", false
		}
		if status, _, err := exchange(ctx, addr, pingRequest, pingTimeout); err == nil && status == pongResponse {
			return addr, true
		}
	}
	return "", false
}

// capture asks the resident at addr for one capture and waits for its outcome.
func capture(ctx context.Context, addr string) (string, error) {
	status, body, err := exchange(ctx, addr, captureCommand+"\n", requestTimeout)
	if err != nil {
		return "", err
	}
	switch status {
	case successStatus:
		return body, nil
	case errorStatus:
		if body == ErrBusy.Error() {
			return "", ErrBusy
		}
		return "", errors.New(body)
	default:
		return "", fmt.Errorf("unexpected status %q", status)
	}
}

// exchange is the one dial path of the protocol: write a request line, read a
// status line, then read the rest as the body until the resident closes.
// timeout bounds the dial and a PING. A capture may take longer, so it runs
// until ctx's deadline.
func exchange(ctx context.Context, addr, line string, timeout time.Duration) (status, body string, err error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", "", err
	}
	defer conn.Close()

	ping := line == pingRequest
	if ping {
		_ = conn.SetDeadline(time.Now().Add(timeout))
	} else if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(line); err != nil {
		return "", "", err
	}
	if err := w.Flush(); err != nil {
		return "", "", err
	}

	br := bufio.NewReader(conn)
	status, err = br.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("read status: %w", err)
	}
	if ping {
		return status, "", nil
	}
	rest, err := io.ReadAll(br)
	if err != nil {
		return status, "", fmt.Errorf("read body: %w", err)
	}
	return status, string(rest), nil
}
