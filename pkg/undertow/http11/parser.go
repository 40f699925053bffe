package http11

import (
	"bytes"
)

// maxErrorLine bounds the request line echoed inside a ParseError
const maxErrorLine = 64

// ParseRequest converts one framed message into a Request.
//
// The first line must be METHOD SP PATH SP VERSION with exactly three
// whitespace-separated tokens, each within its length limit. The version is
// checked before the method. Leading empty lines are skipped and the request
// line ends at the first CR or LF. Every following non-empty line up to the
// blank line is kept verbatim as a header; header names and values are not
// interpreted. The path is passed through undecoded.
//
// ParseRequest is a pure function of frame: it has no state and never
// retains frame.
func ParseRequest(frame RawFrame) (*Request, error) {
	// Empty lines ahead of the request line are ignored
	msg := bytes.TrimLeft(frame, "\r\n")

	lineEnd := bytes.IndexAny(msg, "\r\n")
	if lineEnd == -1 {
		lineEnd = len(msg)
	}
	line := msg[:lineEnd]

	tokens := bytes.FieldsFunc(line, isSpace)
	if len(tokens) != 3 {
		return nil, newParseError(ErrMalformedRequestLine, line)
	}
	method, path, version := tokens[0], tokens[1], tokens[2]

	if len(method) > MaxMethodLen || len(path) > MaxPathLen || len(version) > MaxVersionLen {
		return nil, newParseError(ErrTokenTooLong, line)
	}
	if string(version) != SupportedVersion {
		return nil, newParseError(ErrUnsupportedVersion, line)
	}
	if string(method) != SupportedMethod {
		return nil, newParseError(ErrUnsupportedMethod, line)
	}

	req := &Request{
		Method:  SupportedMethod,
		Path:    string(path),
		Version: SupportedVersion,
	}
	req.Headers = headerLines(msg[lineEnd:])
	return req, nil
}

// headerLines returns the non-empty lines before the first blank line.
// block starts at the terminator of the request line. Lines may end in
// CRLF or a bare LF.
func headerLines(block []byte) []string {
	block = skipLineEnd(block)

	var headers []string
	for len(block) > 0 {
		line, rest, _ := bytes.Cut(block, lf)
		line = bytes.TrimSuffix(line, cr)
		if len(line) == 0 {
			break
		}
		headers = append(headers, string(line))
		block = rest
	}
	return headers
}

// skipLineEnd drops one CRLF, LF or CR from the front of b.
func skipLineEnd(b []byte) []byte {
	if bytes.HasPrefix(b, crlfBytes) {
		return b[len(crlfBytes):]
	}
	if len(b) > 0 && (b[0] == '\r' || b[0] == '\n') {
		return b[1:]
	}
	return b
}

var (
	cr = []byte{'\r'}
	lf = []byte{'\n'}
)

// isSpace matches the ASCII whitespace set that separates request-line tokens.
func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\v', '\f', '\r', '\n':
		return true
	}
	return false
}

func newParseError(reason error, line []byte) *ParseError {
	if len(line) > maxErrorLine {
		line = line[:maxErrorLine]
	}
	return &ParseError{Err: reason, Line: string(line)}
}
