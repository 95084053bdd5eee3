// Package h3 implements the H3 Connection Engine (H3CE): it wraps a QUIC
// connection, drives an HTTP/3 request/response state machine over it
// using the wire package's QPACK codec and varint framing, and exposes
// send_request / receive / close as spec §4.2 describes them.
package h3

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"
	"go.uber.org/zap"

	"github.com/wireclient/httpcore/internal/obs"
	"github.com/wireclient/httpcore/internal/streamutil"
	"github.com/wireclient/httpcore/wire"
)

const (
	// appErrorNoError is the application-error code close() sends on a
	// clean shutdown (spec §4.2).
	appErrorNoError quic.ApplicationErrorCode = 0x100
	// appErrorAlreadyClosed is reported (non-fatally) when close() is
	// called on an already-closed connection.
	appErrorAlreadyClosed quic.ApplicationErrorCode = 0x101

	closeReason = "HTTP/3 connection closed by application"

	defaultReadScratch = 4096
)

// Connection is the H3 Connection State record from spec §3. It owns the
// QUIC connection handle and a lazily created HTTP/3 adapter, both guarded
// by their own mutex, acquired in the fixed order (connection, adapter)
// spec §4.2 mandates to avoid deadlock between concurrent send_request/
// receive/close calls.
type Connection struct {
	connMu   sync.Mutex
	quicConn quic.Connection

	adapterMu sync.Mutex
	adapter   *adapter

	timeouts TimeoutConfig
	logger   *zap.Logger

	closed atomic.Bool

	// isErrorMarker is set only on the placeholder returned by
	// newErrorConnection; every operation on it short-circuits to a
	// single ErrorChunk per spec §4.2 / §9.
	isErrorMarker bool
	markerMessage string
}

// Option configures a Connection at construction time.
type Option func(*Connection)

// WithLogger attaches a structured logger (nil defaults to a no-op one,
// matching the rest of the core).
func WithLogger(log *zap.Logger) Option {
	return func(c *Connection) { c.logger = obs.Named(log, "h3") }
}

// New creates an H3 connection over an already-established QUIC
// connection. The HTTP/3 adapter is not created here -- it is built
// lazily on the first send_request call, per spec §4.2.
func New(quicConn quic.Connection, timeouts TimeoutConfig, opts ...Option) *Connection {
	c := &Connection{quicConn: quicConn, timeouts: timeouts, logger: obs.Named(nil, "h3")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewSafe is the single documented construction path for callers that must
// get a Connection back even when a real QUIC connection isn't available
// (spec §4.2 / §9): a nil quicConn -- the one failure mode H3CE itself can
// detect -- yields the error-marked placeholder instead of a connection
// whose every operation would nil-pointer-panic. This function does not
// recurse and cannot itself fail: placeholder allocation is a plain struct
// literal, so "a single failure to allocate even the placeholder" (spec
// §4.2) cannot arise on this path.
func NewSafe(quicConn quic.Connection, timeouts TimeoutConfig, opts ...Option) *Connection {
	if quicConn == nil {
		return newErrorConnection("cannot construct H3 connection: no QUIC connection available", nil)
	}
	return New(quicConn, timeouts, opts...)
}

// newErrorConnection builds the error-marked placeholder spec §4.2 and §9
// describe: returned when construction of a normal connection is
// impossible but the caller's contract requires a connection object back.
// This path never recurses and never panics; every operation on the
// result emits exactly one ErrorChunk.
func newErrorConnection(reason string, log *zap.Logger) *Connection {
	return &Connection{isErrorMarker: true, markerMessage: reason, logger: obs.Named(log, "h3")}
}

// IsError reports whether this is the error-marked placeholder.
func (c *Connection) IsError() bool { return c.isErrorMarker }

// IsClosed reports whether the connection has reached its terminal state
// (spec §3): the placeholder is always closed; otherwise the QUIC handle's
// own context is the source of truth.
func (c *Connection) IsClosed() bool {
	if c.isErrorMarker {
		return true
	}
	if c.closed.Load() {
		return true
	}
	if c.quicConn == nil {
		return true
	}
	select {
	case <-c.quicConn.Context().Done():
		return true
	default:
		return false
	}
}

// ensureAdapter lazily creates the HTTP/3 adapter on first use. Caller
// must not already hold adapterMu.
func (c *Connection) ensureAdapter() *adapter {
	c.adapterMu.Lock()
	defer c.adapterMu.Unlock()
	if c.adapter == nil {
		c.adapter = newAdapter()
	}
	return c.adapter
}

// Response is what send_request returns: the decoded response header
// event plus the body stream described in spec §4.2.
type Response struct {
	Status  int
	Headers map[string][]string
	Body    <-chan HTTPChunk
}

// openRequestStream is the only part of send_request that touches shared
// QUIC connection state, so it is the only part held behind connMu --
// spec §4.2 requires "no operation holds a lock across a suspension point
// longer than one poll cycle", and OpenStreamSync is exactly one such
// cycle. Everything after this (header/body writes, the header poll) runs
// unlocked, letting send_request and receive proceed concurrently on
// different streams.
func (c *Connection) openRequestStream(ctx context.Context) (*adapter, quic.Stream, error) {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	a := c.ensureAdapter()
	stream, err := c.quicConn.OpenStreamSync(ctx)
	if err != nil {
		return nil, nil, wrapErr(KindConnection, "opening HTTP/3 request stream", err)
	}
	return a, stream, nil
}

// SendRequest implements spec §4.2's send_request operation. streamIDHint
// is advisory only -- QUIC assigns the real stream id when the stream is
// opened, since client-initiated bidirectional stream ids aren't
// caller-selectable.
func (c *Connection) SendRequest(ctx context.Context, method, uri string, headers map[string][]string, body []byte, streamIDHint uint64) (*Response, error) {
	if c.isErrorMarker {
		ch := make(chan HTTPChunk, 1)
		ch <- errorChunk(c.markerMessage)
		close(ch)
		return &Response{Body: ch}, nil
	}

	fields, err := buildRequestHeaders(method, uri, headers)
	if err != nil {
		return nil, err
	}

	connectCtx := ctx
	if c.timeouts.Connect > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, c.timeouts.Connect)
		defer cancel()
	}
	a, stream, err := c.openRequestStream(connectCtx)
	if err != nil {
		return nil, err
	}

	hasBody := len(body) > 0
	if err := a.writeH3Frame(stream, headersFrame(fields)); err != nil {
		return nil, wrapErr(KindNetwork, "writing request headers", err)
	}
	if hasBody {
		if c.timeouts.Request > 0 {
			_ = stream.SetWriteDeadline(time.Now().Add(c.timeouts.Request))
		}
		if err := a.writeH3Frame(stream, dataFrame(body)); err != nil {
			if isWouldBlock(err) {
				// "Would block" from the body send is a debug event, not
				// a failure, since headers were already enqueued (spec
				// §4.2) -- the caller can re-enter receive to retry.
				c.logger.Debug("body write would block; headers already sent", zap.Error(err))
			} else {
				return nil, wrapErr(KindNetwork, "writing request body", err)
			}
		}
	}
	if err := stream.Close(); err != nil && !errors.Is(err, io.EOF) {
		c.logger.Debug("closing request stream write side", zap.Error(err))
	}

	// Poll once for the response header event on the created stream id.
	if c.timeouts.Request > 0 {
		_ = stream.SetReadDeadline(time.Now().Add(c.timeouts.Request))
	}
	fr := newFrameReader(stream, a)
	frame, err := fr.next()
	if err != nil {
		return nil, wrapErr(KindNetwork, "reading response headers", err)
	}
	if frame.Type != wire.H3FrameHeaders {
		return nil, newErr(KindProtocol, "expected HEADERS as first response frame")
	}
	status, respHeaders, err := decodeResponseHeaders(frame.Headers)
	if err != nil {
		return nil, err
	}
	if cl, ok := respHeaders["content-length"]; ok && len(cl) == 1 {
		if _, err := strconv.Atoi(cl[0]); err != nil {
			c.logger.Debug("malformed content-length header", zap.String("value", cl[0]))
		}
	}

	out := streamutil.NewChannel[HTTPChunk]()
	go c.receiveLoop(stream, fr, out)

	return &Response{Status: status, Headers: respHeaders, Body: out}, nil
}

// receiveLoop drives one stream's response body to completion, per spec
// §4.2's event table. It owns out and closes it when the stream reaches a
// terminal state. fr carries any DATA-frame chunking state left over from
// the header poll in SendRequest, so the same frameReader must be reused
// rather than recreated here.
func (c *Connection) receiveLoop(stream quic.Stream, fr *frameReader, out chan HTTPChunk) {
	defer close(out)
	ctx := context.Background()

	bo := newBackoff(time.Millisecond, 250*time.Millisecond)
	for {
		if c.IsClosed() {
			return
		}
		if c.timeouts.Idle > 0 {
			_ = stream.SetReadDeadline(time.Now().Add(c.timeouts.Idle))
		}
		frame, err := fr.next()
		if err != nil {
			if isWouldBlock(err) {
				bo.wait()
				continue
			}
			if errors.Is(err, io.EOF) {
				streamutil.Send(ctx, out, endChunk())
				return
			}
			streamutil.Send(ctx, out, errorChunk(err.Error()))
			return
		}
		bo.reset()

		switch frame.Type {
		case wire.H3FrameHeaders: // trailers, or a duplicate header event
			_, hdrs, err := decodeResponseHeaders(frame.Headers)
			if err == nil {
				if !streamutil.Send(ctx, out, headersChunk(0, hdrs)) {
					return
				}
			}
		case wire.H3FrameData:
			if !streamutil.Send(ctx, out, dataChunk(frame.Payload)) {
				return
			}
		case wire.H3FrameGoAway:
			return
		default:
			// Unknown/control-level frame type on a request stream:
			// ignored, parsing continues.
		}
	}
}

// Close implements spec §4.2's close operation.
func (c *Connection) Close() error {
	if c.isErrorMarker {
		return nil
	}
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.closed.Swap(true) {
		c.logger.Debug("close on already-closed connection", zap.Uint64("code", uint64(appErrorAlreadyClosed)))
		return nil
	}
	if err := c.quicConn.CloseWithError(appErrorNoError, closeReason); err != nil {
		return wrapErr(KindConnection, "closing QUIC connection", err)
	}
	return nil
}

func isWouldBlock(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
