package wire

// ParseH3Frames walks buf as a sequence of HTTP/3 frames: a type varint, a
// length varint, then that many payload bytes (RFC 9114 §7.1).
func ParseH3Frames(buf []byte) []FrameChunk {
	var out []FrameChunk
	dec := NewQPACKDecoder()
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

		chunk, err := parseH3FramePayload(dec, typ, payload)
		if err != nil {
			out = append(out, errChunk(err.Error()))
			continue
		}
		out = append(out, chunk)
	}
	return out
}

func parseH3FramePayload(dec *QPACKDecoder, typ uint64, payload []byte) (FrameChunk, error) {
	switch typ {
	case H3FrameData:
		return h3Chunk(&H3Frame{Type: typ, Payload: append([]byte(nil), payload...)}), nil

	case H3FrameHeaders:
		headers, err := dec.DecodeHeaderBlock(payload)
		if err != nil {
			return FrameChunk{}, err
		}
		return h3Chunk(&H3Frame{Type: typ, Headers: headers}), nil

	case H3FrameSettings:
		pairs, err := parseH3Settings(payload)
		if err != nil {
			return FrameChunk{}, err
		}
		return h3Chunk(&H3Frame{Type: typ, Settings: pairs}), nil

	case H3FrameCancelPush, H3FrameMaxPushID:
		id, _, err := readVarint(payload)
		if err != nil {
			return FrameChunk{}, err
		}
		return h3Chunk(&H3Frame{Type: typ, PushID: id}), nil

	case H3FramePushPromise:
		id, n, err := readVarint(payload)
		if err != nil {
			return FrameChunk{}, err
		}
		headers, err := dec.DecodeHeaderBlock(payload[n:])
		if err != nil {
			return FrameChunk{}, err
		}
		return h3Chunk(&H3Frame{Type: typ, PushID: id, Headers: headers}), nil

	case H3FrameGoAway:
		id, _, err := readVarint(payload)
		if err != nil {
			return FrameChunk{}, err
		}
		return h3Chunk(&H3Frame{Type: typ, StreamID: id}), nil

	default:
		return FrameChunk{}, newErr(KindProtocol, "unknown HTTP/3 frame type")
	}
}

func parseH3Settings(payload []byte) ([]SettingPair, error) {
	var pairs []SettingPair
	for len(payload) > 0 {
		id, n1, err := readVarint(payload)
		if err != nil {
			return nil, err
		}
		payload = payload[n1:]
		val, n2, err := readVarint(payload)
		if err != nil {
			return nil, err
		}
		payload = payload[n2:]
		if id > 0xffff {
			return nil, newErr(KindProtocol, "SETTINGS identifier out of range")
		}
		pairs = append(pairs, SettingPair{ID: uint16(id), Value: uint32(val)})
	}
	return pairs, nil
}

// SerializeH3Frame encodes f as a type-varint, length-varint, payload
// triple.
func SerializeH3Frame(enc *QPACKEncoder, f *H3Frame) ([]byte, error) {
	var payload []byte
	switch f.Type {
	case H3FrameData:
		payload = f.Payload
	case H3FrameHeaders:
		payload = enc.EncodeHeaderBlock(f.Headers)
	case H3FrameSettings:
		for _, p := range f.Settings {
			var err error
			payload, err = appendVarint(payload, uint64(p.ID))
			if err != nil {
				return nil, err
			}
			payload, err = appendVarint(payload, uint64(p.Value))
			if err != nil {
				return nil, err
			}
		}
	case H3FrameCancelPush, H3FrameMaxPushID:
		var err error
		payload, err = appendVarint(payload, f.PushID)
		if err != nil {
			return nil, err
		}
	case H3FramePushPromise:
		var err error
		payload, err = appendVarint(payload, f.PushID)
		if err != nil {
			return nil, err
		}
		payload = append(payload, enc.EncodeHeaderBlock(f.Headers)...)
	case H3FrameGoAway:
		var err error
		payload, err = appendVarint(payload, f.StreamID)
		if err != nil {
			return nil, err
		}
	default:
		payload = f.Payload
	}

	var dst []byte
	dst, err := appendVarint(dst, f.Type)
	if err != nil {
		return nil, err
	}
	dst, err = appendVarint(dst, uint64(len(payload)))
	if err != nil {
		return nil, err
	}
	return append(dst, payload...), nil
}
