package tproxy

import (
	"context"
	"fmt"
	"net"

	"github.com/mrbash/artax/internal/proxy"
)

type Server struct {
	ctx context.Context
	cfg proxy.Config
}

func NewServer(ctx context.Context, cfg proxy.Config) *Server {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Server{ctx: ctx, cfg: cfg}
}

func (s *Server) Serve(ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}
		go func() {
			if err := s.handle(c); err != nil {
				s.cfg.Logger.Debug().Err(err).Msg("tproxy connection error")
			}
		}()
	}
}

func (s *Server) handle(c net.Conn) error {
	defer c.Close()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	dst, ok := OriginalDst(c)
	if !ok {
		return fmt.Errorf("original destination unavailable")
	}

	up, err := s.cfg.Dialer.DialContext(ctx, "tcp", dst.String())
	if err != nil {
		return err
	}
	defer up.Close()

	if err := proxy.CopyBidirectional(ctx, c, up); err != nil {
		return fmt.Errorf("proxy: %w", err)
	}
	return nil
}
