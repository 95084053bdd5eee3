package wire

// HPACK (RFC 7541) header-block decoder and encoder. The decoder is a full
// implementation of the four representations plus the dynamic-table-size
// update; the encoder emits only the minimal conforming subset described in
// spec §4.1 ("Serialization"): indexed when an exact static match exists,
// literal-with-static-name when only the name matches, literal-without-
// indexing otherwise. No Huffman on output in this minimal form.

const defaultHPACKTableSize = 4096

// HPACKDecoder decodes HPACK header blocks against a per-connection dynamic
// table. It is not safe for concurrent use; one decoder belongs to one HTTP/2
// connection's receive direction, matching the dynamic table's ownership
// rule in spec §5 ("belongs to exactly one connection").
type HPACKDecoder struct {
	dynamic *dynamicTable
}

func NewHPACKDecoder() *HPACKDecoder {
	return &HPACKDecoder{dynamic: newDynamicTable(defaultHPACKTableSize)}
}

// DecodeHeaderBlock decodes a complete HEADERS payload into an ordered list
// of header fields. It never panics; any malformed representation yields a
// *Error with KindProtocol.
func (d *HPACKDecoder) DecodeHeaderBlock(payload []byte) ([]HeaderField, error) {
	var out []HeaderField
	b := payload
	for len(b) > 0 {
		c := b[0]
		var (
			field HeaderField
			n     int
			err   error
		)
		switch {
		case c&0x80 != 0: // 1xxxxxxx: indexed header field
			field, n, err = d.decodeIndexed(b)
		case c&0xc0 == 0x40: // 01xxxxxx: literal with incremental indexing
			field, n, err = d.decodeLiteral(b, 6, true, false)
		case c&0xe0 == 0x20: // 001xxxxx: dynamic table size update
			var size uint64
			size, n, err = readPrefixInt(5, b)
			if err == nil {
				d.dynamic.SetCapacity(int(size))
				b = b[n:]
				continue
			}
		case c&0xf0 == 0x00: // 0000xxxx: literal without indexing
			field, n, err = d.decodeLiteral(b, 4, false, false)
		case c&0xf0 == 0x10: // 0001xxxx: literal never indexed
			field, n, err = d.decodeLiteral(b, 4, false, true)
		default:
			err = newErr(KindProtocol, "invalid HPACK representation octet")
		}
		if err != nil {
			return out, err
		}
		out = append(out, field)
		b = b[n:]
	}
	return out, nil
}

func (d *HPACKDecoder) decodeIndexed(b []byte) (HeaderField, int, error) {
	idx, n, err := readPrefixInt(7, b)
	if err != nil {
		return HeaderField{}, 0, err
	}
	if idx == 0 {
		return HeaderField{}, 0, newErr(KindProtocol, "indexed representation with index 0")
	}
	f, ok := d.lookup(int(idx))
	if !ok {
		return HeaderField{}, 0, ErrIndexNotFound
	}
	return f, n, nil
}

func (d *HPACKDecoder) decodeLiteral(b []byte, prefixBits uint, incremental, neverIndexed bool) (HeaderField, int, error) {
	idx, n, err := readPrefixInt(prefixBits, b)
	if err != nil {
		return HeaderField{}, 0, err
	}
	rest := b[n:]
	var name string
	if idx == 0 {
		var nameBytes []byte
		var m int
		nameBytes, m, err = decodeString(rest)
		if err != nil {
			return HeaderField{}, 0, err
		}
		name = string(nameBytes)
		rest = rest[m:]
		n += m
	} else {
		f, ok := d.lookup(int(idx))
		if !ok {
			return HeaderField{}, 0, ErrIndexNotFound
		}
		name = f.Name
	}
	valueBytes, m, err := decodeString(rest)
	if err != nil {
		return HeaderField{}, 0, err
	}
	n += m
	field := HeaderField{Name: name, Value: string(valueBytes), Sensitive: neverIndexed}
	if incremental {
		d.dynamic.Insert(field)
	}
	return field, n, nil
}

// lookup resolves an HPACK index against the static table (1..61) then the
// dynamic table (62..).
func (d *HPACKDecoder) lookup(idx int) (HeaderField, bool) {
	if idx >= 1 && idx <= len(hpackStaticTable) {
		return hpackStaticTable[idx-1], true
	}
	return d.dynamic.Get(idx - len(hpackStaticTable))
}

// decodeString decodes an HPACK string literal: a Huffman bit plus a
// 7-bit-prefixed length, per RFC 7541 §5.2.
func decodeString(b []byte) ([]byte, int, error) {
	if len(b) == 0 {
		return nil, 0, ErrTruncatedFrame
	}
	huff := b[0]&0x80 != 0
	length, n, err := readPrefixInt(7, b)
	if err != nil {
		return nil, 0, err
	}
	total := n + int(length)
	if total > len(b) {
		return nil, 0, ErrTruncatedFrame
	}
	raw := b[n:total]
	if !huff {
		return append([]byte(nil), raw...), total, nil
	}
	dst, err := huffmanDecode(nil, raw)
	if err != nil {
		return nil, 0, err
	}
	return dst, total, nil
}

// HPACKEncoder serializes header fields using the minimal conforming
// representation subset (spec §4.1 "Serialization").
type HPACKEncoder struct{}

func NewHPACKEncoder() *HPACKEncoder { return &HPACKEncoder{} }

func (e *HPACKEncoder) EncodeHeaderBlock(fields []HeaderField) []byte {
	var dst []byte
	for _, f := range fields {
		dst = e.encodeField(dst, f)
	}
	return dst
}

func (e *HPACKEncoder) encodeField(dst []byte, f HeaderField) []byte {
	exact, nameOnly := hpackStaticNameIndex(f.Name, f.Value)
	switch {
	case exact > 0:
		return writePrefixInt(dst, 7, 0x80, uint64(exact))
	case nameOnly > 0:
		top := byte(0x00) // literal without indexing, index != 0
		if f.Sensitive {
			top = 0x10
		}
		dst = writePrefixInt(dst, 4, top, uint64(nameOnly))
		return appendLiteralString(dst, f.Value)
	default:
		top := byte(0x00)
		if f.Sensitive {
			top = 0x10
		}
		dst = append(dst, top) // index 0 in the 4-bit prefix
		dst = appendLiteralString(dst, f.Name)
		return appendLiteralString(dst, f.Value)
	}
}

// appendLiteralString appends a non-Huffman-coded HPACK/QPACK string
// literal (the minimal conforming encoder never emits Huffman output).
func appendLiteralString(dst []byte, s string) []byte {
	dst = writePrefixInt(dst, 7, 0x00, uint64(len(s)))
	return append(dst, s...)
}
