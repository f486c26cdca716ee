package proxy

// Package proxy implements artax's inbound proxy listeners.
//
// HTTPProxyServer serves an HTTP forward proxy: CONNECT requests are
// hijacked and relayed as raw byte tunnels through the configured outbound
// dialer, everything else goes through a reverse proxy. SOCKS5Server serves
// a minimal SOCKS5 CONNECT proxy on the same dialer.
//
// When the configured dialer chains through an upstream HTTP proxy, the
// outbound side of each tunnel is itself a CONNECT tunnel negotiated by
// internal/tunnel.
