package wire

// Codec exposes the WC external interface named in spec §6:
// {parse_frames, serialize_frame, compress, decompress}. It holds no state
// of its own beyond the two header-compression codecs it owns, each
// belonging to a single connection per spec §5.
type Codec struct {
	hpackDec *HPACKDecoder
	hpackEnc *HPACKEncoder
	qpackDec *QPACKDecoder
	qpackEnc *QPACKEncoder
}

// NewCodec returns a Codec with fresh HPACK and QPACK state.
func NewCodec() *Codec {
	return &Codec{
		hpackDec: NewHPACKDecoder(),
		hpackEnc: NewHPACKEncoder(),
		qpackDec: NewQPACKDecoder(),
		qpackEnc: NewQPACKEncoder(),
	}
}

// ParseH2Frames parses an HTTP/2 byte buffer into FrameChunks, decoding any
// embedded HEADERS payloads with this codec's HPACK decoder (so dynamic
// table state persists across calls on the same connection).
func (c *Codec) ParseH2Frames(buf []byte) []FrameChunk {
	var out []FrameChunk
	for len(buf) > 0 {
		if len(buf) < h2FrameHeaderLen {
			out = append(out, errChunk("truncated frame header"))
			return out
		}
		length := int(buf[0])<<16 | int(buf[1])<<8 | int(buf[2])
		typ := buf[3]
		flags := buf[4]
		streamID := beUint32(buf[5:9]) & 0x7fffffff

		if h2FrameHeaderLen+length > len(buf) {
			out = append(out, errChunk("frame payload extends past end of buffer"))
			return out
		}
		payload := buf[h2FrameHeaderLen : h2FrameHeaderLen+length]
		buf = buf[h2FrameHeaderLen+length:]

		chunk, err := parseH2FramePayload(c.hpackDec, typ, flags, streamID, payload)
		if err != nil {
			out = append(out, errChunk(err.Error()))
			continue
		}
		out = append(out, chunk)
	}
	return out
}

// ParseH3Frames mirrors ParseH2Frames for the HTTP/3 varint framing, using
// this codec's QPACK decoder.
func (c *Codec) ParseH3Frames(buf []byte) []FrameChunk {
	var out []FrameChunk
	for len(buf) > 0 {
		typ, n1, err := readVarint(buf)
		if err != nil {
			out = append(out, errChunk("truncated H3 frame type"))
			return out
		}
		rest := buf[n1:]
		length, n2, err := readVarint(rest)
		if err != nil {
			out = append(out, errChunk("truncated H3 frame length"))
			return out
		}
		rest = rest[n2:]
		if int(length) > len(rest) {
			out = append(out, errChunk("H3 frame payload extends past end of buffer"))
			return out
		}
		payload := rest[:length]
		buf = rest[length:]

		chunk, err := parseH3FramePayload(c.qpackDec, typ, payload)
		if err != nil {
			out = append(out, errChunk(err.Error()))
			continue
		}
		out = append(out, chunk)
	}
	return out
}

// SerializeH2Frame and SerializeH3Frame are re-exposed via the codec so
// callers who need persistent HPACK/QPACK encoder dynamic state (currently
// none, since the minimal encoder never uses the dynamic table) go through
// one entry point alongside parsing.
func (c *Codec) SerializeH2Frame(f *H2Frame) ([]byte, error) { return SerializeH2Frame(c.hpackEnc, f) }
func (c *Codec) SerializeH3Frame(f *H3Frame) ([]byte, error) { return SerializeH3Frame(c.qpackEnc, f) }

// CompressHPACK and DecompressHPACK expose direct HPACK use outside the
// frame layer (spec §4.1's "independently for test harnesses").
func (c *Codec) CompressHPACK(fields []HeaderField) []byte { return c.hpackEnc.EncodeHeaderBlock(fields) }
func (c *Codec) DecompressHPACK(payload []byte) ([]HeaderField, error) {
	return c.hpackDec.DecodeHeaderBlock(payload)
}

// CompressQPACK and DecompressQPACK are the QPACK equivalents.
func (c *Codec) CompressQPACK(fields []HeaderField) []byte { return c.qpackEnc.EncodeHeaderBlock(fields) }
func (c *Codec) DecompressQPACK(payload []byte) ([]HeaderField, error) {
	return c.qpackDec.DecodeHeaderBlock(payload)
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
