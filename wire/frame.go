package wire

import "encoding/binary"

const h2FrameHeaderLen = 9
const maxFrameLength = 1<<24 - 1

// ParseH2Frames walks buf, emitting one FrameChunk per HTTP/2 frame found,
// per spec §4.1's parse contract: it stops (with a terminal ErrorChunk) on a
// truncated trailing frame, and emits (non-terminal) ErrorChunks for unknown
// frame types while continuing to the next header.
func ParseH2Frames(buf []byte) []FrameChunk {
	var out []FrameChunk
	dec := NewHPACKDecoder()
	for len(buf) > 0 {
		if len(buf) < h2FrameHeaderLen {
			out = append(out, errChunk("truncated frame header"))
			return out
		}
		length := int(buf[0])<<16 | int(buf[1])<<8 | int(buf[2])
		typ := buf[3]
		flags := buf[4]
		streamID := binary.BigEndian.Uint32(buf[5:9]) & 0x7fffffff

		if h2FrameHeaderLen+length > len(buf) {
			out = append(out, errChunk("frame payload extends past end of buffer"))
			return out
		}
		payload := buf[h2FrameHeaderLen : h2FrameHeaderLen+length]
		buf = buf[h2FrameHeaderLen+length:]

		chunk, err := parseH2FramePayload(dec, typ, flags, streamID, payload)
		if err != nil {
			out = append(out, errChunk(err.Error()))
			continue
		}
		out = append(out, chunk)
	}
	return out
}

func parseH2FramePayload(dec *HPACKDecoder, typ, flags uint8, streamID uint32, payload []byte) (FrameChunk, error) {
	switch typ {
	case FrameData:
		return h2Chunk(&H2Frame{
			Type: typ, StreamID: streamID, Payload: append([]byte(nil), payload...),
			EndStream: flags&FlagEndStream != 0,
		}), nil

	case FrameHeaders:
		headers, err := dec.DecodeHeaderBlock(payload)
		if err != nil {
			return FrameChunk{}, err
		}
		return h2Chunk(&H2Frame{
			Type: typ, StreamID: streamID, Headers: headers,
			EndStream: flags&FlagEndStream != 0, EndHeaders: flags&FlagEndHeaders != 0,
		}), nil

	case FramePriority:
		if len(payload) != 5 {
			return FrameChunk{}, newErr(KindProtocol, "PRIORITY payload must be 5 bytes")
		}
		dep := binary.BigEndian.Uint32(payload[:4])
		excl := dep&0x80000000 != 0
		dep &^= 0x80000000
		return h2Chunk(&H2Frame{
			Type: typ, StreamID: streamID, Dependency: dep, Weight: payload[4], Exclusive: excl,
		}), nil

	case FrameRstStream:
		if len(payload) != 4 {
			return FrameChunk{}, newErr(KindProtocol, "RST_STREAM payload must be 4 bytes")
		}
		return h2Chunk(&H2Frame{
			Type: typ, StreamID: streamID, ErrorCode: binary.BigEndian.Uint32(payload),
		}), nil

	case FrameSettings:
		pairs, err := parseSettings(payload)
		if err != nil {
			return FrameChunk{}, err
		}
		return h2Chunk(&H2Frame{Type: typ, StreamID: streamID, Settings: pairs}), nil

	case FramePing:
		if len(payload) != 8 {
			return FrameChunk{}, newErr(KindProtocol, "PING payload must be 8 bytes")
		}
		f := &H2Frame{Type: typ, StreamID: streamID}
		copy(f.Opaque[:], payload)
		return h2Chunk(f), nil

	case FrameGoAway:
		if len(payload) < 8 {
			return FrameChunk{}, newErr(KindProtocol, "GOAWAY payload too short")
		}
		last := binary.BigEndian.Uint32(payload[:4]) &^ 0x80000000
		code := binary.BigEndian.Uint32(payload[4:8])
		return h2Chunk(&H2Frame{
			Type: typ, StreamID: streamID, LastStreamID: last, ErrorCode: code,
			DebugData: append([]byte(nil), payload[8:]...),
		}), nil

	case FrameWindowUpdate:
		if len(payload) != 4 {
			return FrameChunk{}, newErr(KindProtocol, "WINDOW_UPDATE payload must be 4 bytes")
		}
		inc := binary.BigEndian.Uint32(payload) &^ 0x80000000
		return h2Chunk(&H2Frame{Type: typ, StreamID: streamID, Increment: inc}), nil

	case FramePushPromise, FrameContinuation:
		// Recognized but not independently modeled by spec §3; surface as
		// a headers-shaped pass-through so callers observing the stream
		// still see payload bytes.
		return h2Chunk(&H2Frame{Type: typ, StreamID: streamID, Payload: append([]byte(nil), payload...)}), nil

	default:
		return FrameChunk{}, newErr(KindProtocol, "unknown HTTP/2 frame type")
	}
}

// parseSettings decodes a sequence of (16-bit id, 32-bit value) pairs and
// validates identifiers the HTTP/2 spec constrains (carried over from the
// teacher's settings.go; spec.md §4.1 only asks for the wire shape, but the
// teacher treats value validation as part of parsing itself).
func parseSettings(payload []byte) ([]SettingPair, error) {
	if len(payload)%6 != 0 {
		return nil, newErr(KindProtocol, "SETTINGS payload length must be a multiple of 6")
	}
	pairs := make([]SettingPair, 0, len(payload)/6)
	for i := 0; i < len(payload); i += 6 {
		id := binary.BigEndian.Uint16(payload[i : i+2])
		val := binary.BigEndian.Uint32(payload[i+2 : i+6])
		if id == settingEnablePush && val > 1 {
			return nil, newErr(KindProtocol, "SETTINGS_ENABLE_PUSH must be 0 or 1")
		}
		pairs = append(pairs, SettingPair{ID: id, Value: val})
	}
	return pairs, nil
}

const settingEnablePush uint16 = 0x2

// SerializeH2Frame encodes f into its wire bytes. Returns ErrFrameTooLarge
// if the resulting payload exceeds 2^24-1 bytes (spec §4.1).
func SerializeH2Frame(enc *HPACKEncoder, f *H2Frame) ([]byte, error) {
	var payload []byte
	flags := byte(0)

	switch f.Type {
	case FrameData:
		payload = f.Payload
		if f.EndStream {
			flags |= FlagEndStream
		}
	case FrameHeaders:
		payload = enc.EncodeHeaderBlock(f.Headers)
		if f.EndStream {
			flags |= FlagEndStream
		}
		if f.EndHeaders {
			flags |= FlagEndHeaders
		}
	case FramePriority:
		payload = make([]byte, 5)
		dep := f.Dependency
		if f.Exclusive {
			dep |= 0x80000000
		}
		binary.BigEndian.PutUint32(payload[:4], dep)
		payload[4] = f.Weight
	case FrameRstStream:
		payload = make([]byte, 4)
		binary.BigEndian.PutUint32(payload, f.ErrorCode)
	case FrameSettings:
		payload = make([]byte, 0, len(f.Settings)*6)
		for _, p := range f.Settings {
			var b [6]byte
			binary.BigEndian.PutUint16(b[:2], p.ID)
			binary.BigEndian.PutUint32(b[2:], p.Value)
			payload = append(payload, b[:]...)
		}
	case FramePing:
		payload = append([]byte(nil), f.Opaque[:]...)
	case FrameGoAway:
		payload = make([]byte, 8+len(f.DebugData))
		binary.BigEndian.PutUint32(payload[:4], f.LastStreamID)
		binary.BigEndian.PutUint32(payload[4:8], f.ErrorCode)
		copy(payload[8:], f.DebugData)
	case FrameWindowUpdate:
		payload = make([]byte, 4)
		binary.BigEndian.PutUint32(payload, f.Increment)
	default:
		payload = f.Payload
	}

	if len(payload) > maxFrameLength {
		return nil, ErrFrameTooLarge
	}

	header := make([]byte, h2FrameHeaderLen, h2FrameHeaderLen+len(payload))
	header[0] = byte(len(payload) >> 16)
	header[1] = byte(len(payload) >> 8)
	header[2] = byte(len(payload))
	header[3] = f.Type
	header[4] = flags
	binary.BigEndian.PutUint32(header[5:], f.StreamID&0x7fffffff)
	return append(header, payload...), nil
}
