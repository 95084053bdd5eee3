// Package wire implements the stateless HTTP/2 and HTTP/3 frame codec: frame
// parsing and serialization, and HPACK (RFC 7541) / QPACK (RFC 9204) header
// compression over the shared static tables and Huffman codec.
//
// The codec never panics. Every malformed input produces an ErrorChunk on
// the output stream or a returned *Error from a construction-time call.
package wire

// FrameKind distinguishes the two wire families carried by FrameChunk.
type FrameKind uint8

const (
	KindH2 FrameKind = iota
	KindH3
	KindError
)

// HeaderField is a decoded (or about-to-be-encoded) header, carrying the
// HPACK/QPACK "never indexed" sensitivity bit through decode so that a
// re-encoder downstream can preserve the indexing directive a literal
// arrived with (see DESIGN.md, REDESIGN FLAG #3).
type HeaderField struct {
	Name      string
	Value     string
	Sensitive bool
}

// H2Frame is the tagged union of the HTTP/2 frame payloads this codec
// understands, per RFC 7540 §6.
type H2Frame struct {
	Type uint8

	// DATA
	StreamID  uint32
	Payload   []byte
	EndStream bool

	// HEADERS
	Headers    []HeaderField
	EndHeaders bool

	// PRIORITY
	Dependency uint32
	Weight     uint8
	Exclusive  bool

	// RST_STREAM / GOAWAY
	ErrorCode uint32

	// SETTINGS
	Settings []SettingPair

	// PING
	Opaque [8]byte

	// GOAWAY
	LastStreamID uint32
	DebugData    []byte

	// WINDOW_UPDATE
	Increment uint32
}

// SettingPair is one HTTP/2 SETTINGS (id, value) entry.
type SettingPair struct {
	ID    uint16
	Value uint32
}

// H3Frame is the tagged union of HTTP/3 frame payloads (RFC 9114 §7.2).
type H3Frame struct {
	Type uint64

	StreamID uint64
	Payload  []byte
	Headers  []HeaderField

	Settings []SettingPair

	PushID uint64

	ErrorCode uint64
	Reason    string
}

// FrameChunk is one item on the parser's output channel: exactly one of H2,
// H3 or Err is populated, selected by Kind.
type FrameChunk struct {
	Kind FrameKind
	H2   *H2Frame
	H3   *H3Frame
	Err  *ErrorChunk
}

// ErrorChunk is the terminal sentinel injected in place of a data chunk
// whenever parsing or serialization cannot produce a normal frame.
type ErrorChunk struct {
	Message string
}

func errChunk(msg string) FrameChunk {
	return FrameChunk{Kind: KindError, Err: &ErrorChunk{Message: msg}}
}

func h2Chunk(f *H2Frame) FrameChunk {
	return FrameChunk{Kind: KindH2, H2: f}
}

func h3Chunk(f *H3Frame) FrameChunk {
	return FrameChunk{Kind: KindH3, H3: f}
}

// HTTP/2 frame type identifiers, RFC 7540 §11.2.
const (
	FrameData         uint8 = 0x0
	FrameHeaders      uint8 = 0x1
	FramePriority     uint8 = 0x2
	FrameRstStream    uint8 = 0x3
	FrameSettings     uint8 = 0x4
	FramePushPromise  uint8 = 0x5
	FramePing         uint8 = 0x6
	FrameGoAway       uint8 = 0x7
	FrameWindowUpdate uint8 = 0x8
	FrameContinuation uint8 = 0x9
)

// HTTP/2 frame flags, relevant subset per RFC 7540 §6.
const (
	FlagEndStream  uint8 = 0x1
	FlagAck        uint8 = 0x1
	FlagEndHeaders uint8 = 0x4
	FlagPadded     uint8 = 0x8
	FlagPriority   uint8 = 0x20
)

// HTTP/3 frame type identifiers, RFC 9114 §7.2.
const (
	H3FrameData         uint64 = 0x0
	H3FrameHeaders      uint64 = 0x1
	H3FrameCancelPush   uint64 = 0x3
	H3FrameSettings     uint64 = 0x4
	H3FramePushPromise  uint64 = 0x5
	H3FrameGoAway       uint64 = 0x7
	H3FrameMaxPushID    uint64 = 0xd
	H3FrameConnectClose uint64 = 0xff // internal marker, never on the wire
)
