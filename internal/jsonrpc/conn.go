package jsonrpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// DefaultMaxMessageBytes bounds a single line before the connection is
// considered abusive and closed. Callers typically override this from
// config.ServerConfig.MaxMessageBytes.
const DefaultMaxMessageBytes = 10 * 1024 * 1024

// Dispatcher routes a single decoded Request to its handler and returns
// the Response to write back. It returns nil for notifications, which
// produce no response per the JSON-RPC 2.0 spec.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *Request) *Response
}

// Conn frames JSON-RPC 2.0 messages (single requests or batches) over a
// newline-delimited byte stream, the same framing the daemon's Unix-socket
// clients speak.
type Conn struct {
	scanner *bufio.Scanner
	writer  io.Writer
	writeMu sync.Mutex
}

// NewConn wraps a reader/writer pair (typically a net.Conn) with
// line-delimited JSON-RPC framing. maxMessageBytes bounds a single line;
// a value <= 0 falls back to DefaultMaxMessageBytes.
func NewConn(r io.Reader, w io.Writer, maxMessageBytes int) *Conn {
	if maxMessageBytes <= 0 {
		maxMessageBytes = DefaultMaxMessageBytes
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageBytes)
	return &Conn{scanner: scanner, writer: w}
}

// ReadMessage reads the next line and decodes it as either a single
// Request or a Batch. isBatch tells the caller which shape was received
// (an empty batch `[]` is itself a protocol error the caller should turn
// into CodeInvalidRequest).
func (c *Conn) ReadMessage() (reqs []Request, isBatch bool, err error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return nil, false, fmt.Errorf("reading message: %w", err)
		}
		return nil, false, io.EOF
	}

	line := bytes.TrimSpace(c.scanner.Bytes())
	if len(line) == 0 {
		return nil, false, nil
	}

	if line[0] == '[' {
		var batch Batch
		if err := json.Unmarshal(line, &batch); err != nil {
			return nil, true, &decodeError{err}
		}
		return []Request(batch), true, nil
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, false, &decodeError{err}
	}
	return []Request{req}, false, nil
}

// decodeError marks an error as a JSON parse failure so Serve can map it
// to CodeParseError rather than treating it as a connection fault.
type decodeError struct{ err error }

func (d *decodeError) Error() string { return d.err.Error() }
func (d *decodeError) Unwrap() error { return d.err }

// WriteResponse writes a single response terminated by a newline.
func (c *Conn) WriteResponse(resp *Response) error {
	return c.writeLine(resp)
}

// WriteBatch writes a batch of responses as a single JSON array line.
// Per spec, a batch consisting entirely of notifications produces no
// response; callers should not invoke WriteBatch with an empty slice.
func (c *Conn) WriteBatch(resps []*Response) error {
	if len(resps) == 0 {
		return nil
	}
	return c.writeLine(resps)
}

func (c *Conn) writeLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling response: %w", err)
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.writer.Write(data)
	return err
}

// Serve reads and dispatches messages from conn until the connection is
// closed or ctx is canceled. It is run in its own goroutine per client by
// internal/daemon.
func Serve(ctx context.Context, conn *Conn, dispatcher Dispatcher) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		reqs, isBatch, err := conn.ReadMessage()
		if err != nil {
			if de, ok := err.(*decodeError); ok {
				_ = conn.WriteResponse(NewErrorResponse(nil, NewError(CodeParseError, "parse error: "+de.Error())))
				continue
			}
			return err
		}
		if reqs == nil {
			continue // blank line
		}

		if isBatch && len(reqs) == 0 {
			_ = conn.WriteResponse(NewErrorResponse(nil, NewError(CodeInvalidRequest, "invalid request: empty batch")))
			continue
		}

		if !isBatch {
			resp := dispatchOne(ctx, dispatcher, &reqs[0])
			if resp != nil {
				if err := conn.WriteResponse(resp); err != nil {
					return err
				}
			}
			continue
		}

		responses := make([]*Response, 0, len(reqs))
		for i := range reqs {
			if resp := dispatchOne(ctx, dispatcher, &reqs[i]); resp != nil {
				responses = append(responses, resp)
			}
		}
		if err := conn.WriteBatch(responses); err != nil {
			return err
		}
	}
}

func dispatchOne(ctx context.Context, dispatcher Dispatcher, req *Request) *Response {
	if req.JSONRPC != Version || req.Method == "" {
		if req.IsNotification() {
			return nil
		}
		return NewErrorResponse(req.ID, NewError(CodeInvalidRequest, "invalid request: missing jsonrpc version or method"))
	}
	return dispatcher.Dispatch(ctx, req)
}
