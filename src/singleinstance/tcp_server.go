package singleinstance

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	residentHost   = "127.0.0.1"
	pingRequest    = "PING\n"
	pongResponse   = "PONG\n"
	captureCommand = "CAPTURE"
	successStatus  = "SUCCESS\n"
	errorStatus    = "ERROR\n"
)

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	lis       net.Listener
	incoming  chan *tcpConn
	port      int
	done      chan struct{}
	closeOnce sync.Once
}

func newTcpServer() Server {
	return &tcpServer{incoming: make(chan *tcpConn, 8), done: make(chan struct{})}
}

// Start binds only the first port of the range. When that port is taken by a
// resident that answers PING, the error wraps ErrAlreadyRunning.
func (s *tcpServer) Start(ctx context.Context) error {
	if s.lis != nil {
		return nil
	}
	ports := PortRangeFromEnv()
	addr := ports.ListenAddr()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		if status, _, perr := exchange(ctx, addr, pingRequest, pingTimeout); perr == nil && status == pongResponse {
			return fmt.Errorf("%w at %s", ErrAlreadyRunning, addr)
		}
		log.Printf("singleinstance: failed to bind %s: %v", addr, err)
		return err
	}
	s.lis = lis
	s.port = ports.Start
	log.Printf("singleinstance: listening on %s", addr)
	go s.acceptLoop(ctx)
	return nil
}

func (s *tcpServer) Port() int { return s.port }

func (s *tcpServer) acceptLoop(ctx context.Context) {
	for {
		c, err := s.lis.Accept()
		if err != nil {
			return
		}
		remote := c.RemoteAddr().String()
		_ = c.SetDeadline(time.Now().Add(3 * time.Second))
		br := bufio.NewReader(c)
		line, _ := br.ReadString('\n')
		bw := bufio.NewWriter(c)
		if line == pingRequest {
			log.Printf("singleinstance: PING from %s -> PONG", remote)
			_, _ = bw.WriteString(pongResponse)
			_ = bw.Flush()
			_ = c.Close()
			continue
		}

		cmd := strings.ToUpper(strings.TrimSpace(line))
		tc := &tcpConn{c: c, r: Request{Command: cmd}, w: bw}
		if cmd != captureCommand {
			log.Printf("singleinstance: unknown request %q from %s", cmd, remote)
			_ = tc.RespondError(fmt.Sprintf("unknown request %q", cmd))
			_ = tc.Close()
			continue
		}
		_ = c.SetDeadline(time.Time{})
		log.Printf("singleinstance: %s request from %s", cmd, remote)
		select {
		case s.incoming <- tc:
		case <-s.done:
			_ = tc.Close()
			return
		case <-ctx.Done():
			_ = tc.Close()
			return
		}
	}
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, net.ErrClosed
	case tc := <-s.incoming:
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.lis != nil {
			_ = s.lis.Close()
		}
	})
	return nil
}

type tcpConn struct {
	c net.Conn
	r Request
	w *bufio.Writer
}

func (tc *tcpConn) Request() Request { return tc.r }

func (tc *tcpConn) RespondSuccess(summary string) error {
	if _, err := tc.w.WriteString(successStatus + summary); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) RespondError(msg string) error {
	if _, err := tc.w.WriteString(errorStatus + msg); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error { return tc.c.Close() }
