package proxy

import (
	"context"
	"net"
	"time"

	"github.com/mrbash/artax/internal/socks5"
)

// SOCKS5Server serves a minimal SOCKS5 proxy supporting only the CONNECT
// command, forwarding through the configured outbound dialer.
type SOCKS5Server struct {
	ctx context.Context
	cfg Config
}

func NewSOCKS5Server(ctx context.Context, cfg Config) *SOCKS5Server {
	if ctx == nil {
		ctx = context.Background()
	}
	return &SOCKS5Server{ctx: ctx, cfg: cfg}
}

// Serve accepts SOCKS5 connections on ln until Accept fails.
func (s *SOCKS5Server) Serve(ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			return err
		}
		go func() {
			if err := s.handleConn(c); err != nil {
				s.cfg.Logger.Debug().Err(err).Msg("socks5 connection error")
			}
		}()
	}
}

func (s *SOCKS5Server) handleConn(clientConn net.Conn) error {
	defer clientConn.Close()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	if s.cfg.NegotiationTimeout > 0 {
		_ = clientConn.SetDeadline(time.Now().Add(s.cfg.NegotiationTimeout))
	}

	if err := socks5.ServerNegotiateNoAuth(clientConn); err != nil {
		return err
	}

	req, err := socks5.ServerReadRequest(clientConn)
	if err != nil {
		return err
	}
	if req.Cmd != socks5.CmdConnect {
		socks5.WriteCommandNotSupportedReply(clientConn, req.Atyp)
		return nil
	}

	serverConn, err := s.cfg.Dialer.DialContext(ctx, "tcp", req.Address())
	if err != nil {
		socks5.WriteConnectionRefusedReply(clientConn, req.Atyp)
		return err
	}
	defer serverConn.Close()

	if err := socks5.WriteSuccessReply(clientConn, serverConn.LocalAddr()); err != nil {
		return err
	}

	_ = clientConn.SetDeadline(time.Time{})

	return CopyBidirectional(ctx, clientConn, serverConn)
}
