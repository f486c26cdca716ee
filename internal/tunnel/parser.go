package tunnel

import (
	"bytes"
	"fmt"
	"strings"
)

// maxResponseBytes bounds how much status-line + header data the parser will
// buffer before declaring the response malformed.
const maxResponseBytes = 64 << 10

// Field is a single header as received, with original name casing and order
// preserved.
type Field struct {
	Name  string
	Value string
}

// Response is a parsed CONNECT response: the status line, the headers in
// wire order, and any bytes that followed the header terminator. Trailing
// bytes belong to the next protocol phase (e.g. a TLS ServerHello) and must
// be handed to whatever reads from the tunnel next.
type Response struct {
	StatusCode int
	Status     string
	Header     []Field
	Trailing   []byte
}

// Get returns the value of the first header matching name, case-insensitively,
// or "" if absent.
func (r *Response) Get(name string) string {
	for _, f := range r.Header {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

type parserState int

const (
	stateStatusLine parserState = iota
	stateHeaders
	stateDone
)

// Parser incrementally parses a single HTTP status-line + header block from
// arbitrarily fragmented input. A response split across any number of Feed
// calls parses identically to one delivered whole.
//
// A Parser recognizes exactly one response and is not reusable; construct a
// fresh one per negotiation with NewParser.
type Parser struct {
	state parserState
	buf   []byte
	total int
	resp  *Response
	err   error
}

func NewParser() *Parser {
	return &Parser{}
}

// Feed consumes the next chunk of bytes from the proxy. It returns done=true
// once the blank-line header terminator has been seen; any bytes past the
// terminator are recorded as Response().Trailing rather than reparsed.
//
// A parse failure is terminal: the same error is returned for every
// subsequent call. An empty chunk is a no-op.
func (p *Parser) Feed(chunk []byte) (done bool, err error) {
	if p.err != nil {
		return false, p.err
	}
	if p.state == stateDone {
		p.resp.Trailing = append(p.resp.Trailing, chunk...)
		return true, nil
	}

	p.buf = append(p.buf, chunk...)
	p.total += len(chunk)
	if p.total > maxResponseBytes {
		return false, p.fail("response headers exceed %d bytes", maxResponseBytes)
	}

	for {
		i := bytes.IndexByte(p.buf, '\n')
		if i < 0 {
			// Mid-line: buffer and wait for more input.
			return false, nil
		}
		line := string(bytes.TrimSuffix(p.buf[:i], []byte{'\r'}))
		p.buf = p.buf[i+1:]

		switch p.state {
		case stateStatusLine:
			resp, err := parseStatusLine(line)
			if err != nil {
				p.err = err
				return false, err
			}
			p.resp = resp
			p.state = stateHeaders

		case stateHeaders:
			if line == "" {
				p.resp.Trailing = append([]byte(nil), p.buf...)
				p.buf = nil
				p.state = stateDone
				return true, nil
			}
			name, value, ok := strings.Cut(line, ":")
			if !ok || name == "" {
				return false, p.fail("bad header line %q", line)
			}
			p.resp.Header = append(p.resp.Header, Field{
				Name:  name,
				Value: strings.Trim(value, " \t"),
			})
		}
	}
}

// Response returns the parsed response, or nil if Feed has not yet
// reported done.
func (p *Parser) Response() *Response {
	if p.state != stateDone {
		return nil
	}
	return p.resp
}

func (p *Parser) fail(format string, args ...any) error {
	p.err = fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
	return p.err
}

// parseStatusLine validates "HTTP/<version> <3-digit status> <reason>".
// Anything else, including a status outside 100-599, is malformed rather
// than merely unsuccessful.
func parseStatusLine(line string) (*Response, error) {
	proto, rest, ok := strings.Cut(line, " ")
	if !ok || !strings.HasPrefix(proto, "HTTP/") {
		return nil, fmt.Errorf("%w: bad status line %q", ErrMalformedResponse, line)
	}

	codeStr, _, _ := strings.Cut(rest, " ")
	if len(codeStr) != 3 {
		return nil, fmt.Errorf("%w: bad status %q", ErrMalformedResponse, codeStr)
	}
	code := 0
	for _, c := range []byte(codeStr) {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("%w: bad status %q", ErrMalformedResponse, codeStr)
		}
		code = code*10 + int(c-'0')
	}
	if code < 100 || code > 599 {
		return nil, fmt.Errorf("%w: status %d out of range", ErrMalformedResponse, code)
	}

	return &Response{StatusCode: code, Status: rest}, nil
}
