package proxy

import (
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrbash/artax/internal/dialer"
)

type Config struct {
	NegotiationTimeout time.Duration
	HTTPIdleTimeout    time.Duration

	KeepAlive net.KeepAliveConfig

	Dialer dialer.Dialer

	// Logger receives per-connection error events. The zero value discards
	// them.
	Logger zerolog.Logger
}
