package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"time"
)

const serveTimeout = 3 * time.Second

// Server owns the loopback endpoint of the resident instance.
type Server struct {
	handler Handler
	lis     net.Listener
	port    int
}

func NewServer(h Handler) *Server { return &Server{handler: h} }

// Start binds the first free port in the configured range.
func (s *Server) Start() error {
	if s.lis != nil {
		return nil
	}
	start, end := getPortRange()
	var lastErr error
	for port := start; port <= end; port++ {
		addr := fmt.Sprintf("%s:%d", residentHost, port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		s.lis = lis
		s.port = port
		log.Printf("singleinstance: listening on %s", addr)
		return nil
	}
	return fmt.Errorf("no free port in %d-%d: %w", start, end, lastErr)
}

// Port returns the bound port (0 if not started).
func (s *Server) Port() int { return s.port }

// Serve accepts connections until ctx is cancelled. Start must be called first.
func (s *Server) Serve(ctx context.Context) error {
	if s.lis == nil {
		return errors.New("singleinstance: server not started")
	}
	go func() {
		<-ctx.Done()
		_ = s.lis.Close()
	}()
	for {
		c, err := s.lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.handleConn(ctx, c)
	}
}

func (s *Server) Close() error {
	if s.lis == nil {
		return nil
	}
	return s.lis.Close()
}

func (s *Server) handleConn(ctx context.Context, c net.Conn) {
	defer c.Close()
	remote := c.RemoteAddr().String()
	_ = c.SetDeadline(time.Now().Add(serveTimeout))

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		log.Printf("singleinstance: read from %s: %v", remote, err)
		return
	}
	req := strings.TrimSpace(line)
	resp := s.dispatch(ctx, req)
	if req != cmdPing {
		log.Printf("singleinstance: %q from %s -> %q", req, remote, resp)
	}
	_, _ = c.Write([]byte(resp + "\n"))
}

func (s *Server) dispatch(ctx context.Context, line string) string {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case cmdPing:
		return respPong
	case cmdAction:
		if arg == "" {
			return respError + " missing action name"
		}
		if err := s.handler.HandleAction(ctx, arg); err != nil {
			return respError + " " + oneLine(err.Error())
		}
		return respOK
	case cmdStatus:
		text, err := s.handler.Status(ctx)
		if err != nil {
			return respError + " " + oneLine(err.Error())
		}
		return respOK + " " + oneLine(text)
	default:
		return respError + " unknown command " + fmt.Sprintf("%q", cmd)
	}
}

func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
