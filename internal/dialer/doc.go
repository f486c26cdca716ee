package dialer

// Package dialer provides outbound dialing implementations used by artax.
//
// Dialers implement a small interface (DialContext) and are used by proxy
// listeners to establish outbound connections either directly or via an
// upstream proxy (HTTP CONNECT or SOCKS5). The HTTP CONNECT path drives the
// handshake with internal/tunnel, so connections it returns are tagged with
// the negotiated proxy response for later pipeline stages.
