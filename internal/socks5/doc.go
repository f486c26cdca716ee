package socks5

// Package socks5 provides a small, shared SOCKS5 handshake implementation
// used by artax.
//
// It wraps the low-level protocol types in github.com/txthinking/socks5 so
// that negotiation and CONNECT request/reply handling live in one place,
// shared between the outbound dialer (internal/dialer) and the inbound
// listener (internal/proxy).
//
// This is not a full SOCKS5 implementation: only the CONNECT command and the
// no-auth and username/password methods are supported.
