package tunnel

import (
	"net"
)

// Conn is a net.Conn whose byte stream is being relayed to a destination
// authority by an HTTP proxy. It replays any bytes the proxy delivered past
// the response header terminator before reading from the socket again, so
// nothing handed to the next protocol phase is lost.
//
// Later pipeline stages discover the tunnel with IsTunneled or
// TunnelResponse instead of re-deriving connection state.
type Conn struct {
	net.Conn
	resp     *Response
	buffered []byte
}

func newConn(c net.Conn, resp *Response) *Conn {
	var buffered []byte
	if len(resp.Trailing) > 0 {
		buffered = append([]byte(nil), resp.Trailing...)
	}
	return &Conn{Conn: c, resp: resp, buffered: buffered}
}

// Response returns the proxy's negotiated CONNECT response.
func (c *Conn) Response() *Response {
	return c.resp
}

func (c *Conn) Read(b []byte) (int, error) {
	if len(c.buffered) > 0 {
		n := copy(b, c.buffered)
		c.buffered = c.buffered[n:]
		return n, nil
	}
	return c.Conn.Read(b)
}

// NetConn returns the underlying connection to the proxy.
func (c *Conn) NetConn() net.Conn {
	return c.Conn
}

// IsTunneled reports whether conn carries an established CONNECT tunnel.
func IsTunneled(conn net.Conn) bool {
	_, ok := conn.(*Conn)
	return ok
}

// TunnelResponse returns the CONNECT response negotiated on conn, if conn is
// a tunneled connection.
func TunnelResponse(conn net.Conn) (*Response, bool) {
	tc, ok := conn.(*Conn)
	if !ok {
		return nil, false
	}
	return tc.resp, true
}
