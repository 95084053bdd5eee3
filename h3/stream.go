package h3

import "github.com/quic-go/quic-go"

// Stream is the H3 Stream record from spec §3: a stream id in the QUIC
// stream-id space plus a reference back to its owning connection. Nothing
// in this package constructs one: SendRequest returns a Response, not a
// Stream, and a request stream's end (FIN or reset) is visible only as the
// receive loop closing the Response's HTTPChunk channel.
type Stream struct {
	ID   quic.StreamID
	conn *Connection
}

// Connection returns the H3 connection this stream belongs to.
func (s *Stream) Connection() *Connection { return s.conn }
