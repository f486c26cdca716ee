package tunnel

// Package tunnel establishes HTTP CONNECT tunnels over already-connected
// sockets.
//
// Negotiate writes a CONNECT request for a destination authority, parses the
// proxy's streamed response with an incremental parser, and on a 200 status
// hands the socket back wrapped in a Conn that marks it as tunneled and
// carries the negotiated response. Bytes the proxy sent past the header
// terminator (for example the start of a TLS handshake) are preserved and
// replayed ahead of subsequent reads.
//
// The package deliberately does not implement general HTTP message parsing:
// it recognizes exactly one status-line + header block per negotiation and
// treats everything after the blank line as opaque tunnel payload.
