package tunnel

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned (wrapped) when the proxy's bytes cannot be
// parsed as an HTTP status-line + header block. It indicates the proxy itself
// is non-conformant, as opposed to a well-formed rejection (ProxyError) or an
// I/O failure (TransportError).
var ErrMalformedResponse = errors.New("malformed proxy response")

// TransportError reports an I/O failure during tunnel negotiation: a failed
// write or read, or the proxy closing the connection before a complete
// response was observed. The connection is likely unusable; callers should
// close it and, if desired, retry on a fresh connection.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tunnel %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProxyError reports a complete, well-formed proxy response with a non-200
// status. The connection was not tunneled but may still be usable for another
// CONNECT attempt; that decision belongs to the caller.
type ProxyError struct {
	StatusCode int
	Status     string
	Header     []Field
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("tunnel: proxy returned %s", e.Status)
}

// Is matches any *ProxyError, so callers can test with errors.Is without
// constructing an identical value.
func (e *ProxyError) Is(target error) bool {
	_, ok := target.(*ProxyError)
	return ok
}
