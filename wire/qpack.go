package wire

// QPACK (RFC 9204) header-block decoder and encoder, restricted to the
// conforming subset spec §4.1 allows: a zero-sized dynamic table on the
// encode side, with decode tolerating a non-zero Required Insert Count /
// Base prefix and reporting any dynamic-table reference it cannot resolve
// as a synthetic placeholder value rather than failing the whole block.

const qpackDynamicPlaceholder = "<qpack-dynamic-reference>"

// QPACKDecoder decodes QPACK header blocks. Supports only a zero-capacity
// dynamic table: encoder-side dynamic insertions are never produced by this
// codec, but a peer's dynamic references are tolerated per spec.
type QPACKDecoder struct {
	dynamic *dynamicTable
}

func NewQPACKDecoder() *QPACKDecoder {
	return &QPACKDecoder{dynamic: newDynamicTable(0)}
}

// DecodeHeaderBlock decodes one QPACK header block: a two-varint prefix
// (Required Insert Count, Base) followed by representations.
func (d *QPACKDecoder) DecodeHeaderBlock(payload []byte) ([]HeaderField, error) {
	b := payload
	_, n1, err := readPrefixInt(8, b)
	if err != nil {
		return nil, err
	}
	b = b[n1:]
	if len(b) == 0 {
		return nil, ErrTruncatedFrame
	}
	// Base carries a sign bit in the top bit of its leading octet (the
	// 7-bit prefix integer that follows indicates the magnitude of the
	// delta from Required Insert Count).
	b = b[:] // sign bit consumed as part of the 7-bit prefix read below
	_, n2, err := readPrefixInt(7, b)
	if err != nil {
		return nil, err
	}
	b = b[n2:]

	var out []HeaderField
	for len(b) > 0 {
		c := b[0]
		var (
			field HeaderField
			n     int
		)
		switch {
		case c&0x80 != 0: // 1Sxxxxxx indexed
			field, n, err = d.decodeIndexed(b)
		case c&0xc0 == 0x40: // 01NSxxxx literal with name reference
			field, n, err = d.decodeLiteralWithName(b)
		case c&0xf0 == 0x10: // 0001xxxx literal without name reference
			field, n, err = d.decodeLiteralWithoutName(b)
		case c&0xe0 == 0x20: // 001xxxxx post-base indexed
			field, n, err = d.decodePostBase(b)
		default:
			err = newErr(KindProtocol, "invalid QPACK representation octet")
		}
		if err != nil {
			return out, err
		}
		out = append(out, field)
		b = b[n:]
	}
	return out, nil
}

func (d *QPACKDecoder) decodeIndexed(b []byte) (HeaderField, int, error) {
	static := b[0]&0x40 != 0
	idx, n, err := readPrefixInt(6, b)
	if err != nil {
		return HeaderField{}, 0, err
	}
	if static {
		if int(idx) >= len(qpackStaticTable) {
			return HeaderField{}, 0, ErrIndexNotFound
		}
		return qpackStaticTable[idx], n, nil
	}
	return HeaderField{Name: qpackDynamicPlaceholder, Value: qpackDynamicPlaceholder}, n, nil
}

func (d *QPACKDecoder) decodeLiteralWithName(b []byte) (HeaderField, int, error) {
	neverIndex := b[0]&0x20 != 0
	static := b[0]&0x10 != 0
	idx, n, err := readPrefixInt(4, b)
	if err != nil {
		return HeaderField{}, 0, err
	}
	var name string
	if static {
		if int(idx) >= len(qpackStaticTable) {
			return HeaderField{}, 0, ErrIndexNotFound
		}
		name = qpackStaticTable[idx].Name
	} else {
		name = qpackDynamicPlaceholder
	}
	valueBytes, m, err := decodeString(b[n:])
	if err != nil {
		return HeaderField{}, 0, err
	}
	return HeaderField{Name: name, Value: string(valueBytes), Sensitive: neverIndex}, n + m, nil
}

// decodeLiteralWithoutName decodes a "literal without name reference"
// representation. The 0001N tag occupies its own octet (mirroring how
// decodeLiteralWithName's name-reference index and decodeIndexed's index
// each get a dedicated prefix octet), and both name and value follow as
// standard string literals -- the same H-bit-plus-7-bit-prefix form
// appendLiteralString/decodeString use everywhere else in this package, so
// a name of any length decodes with the exact prefix width it was encoded
// with.
func (d *QPACKDecoder) decodeLiteralWithoutName(b []byte) (HeaderField, int, error) {
	neverIndex := b[0]&0x08 != 0
	nameBytes, n, err := decodeString(b[1:])
	if err != nil {
		return HeaderField{}, 0, err
	}
	n++ // account for the leading tag octet
	valueBytes, m, err := decodeString(b[n:])
	if err != nil {
		return HeaderField{}, 0, err
	}
	return HeaderField{Name: string(nameBytes), Value: string(valueBytes), Sensitive: neverIndex}, n + m, nil
}

func (d *QPACKDecoder) decodePostBase(b []byte) (HeaderField, int, error) {
	_, n, err := readPrefixInt(5, b)
	if err != nil {
		return HeaderField{}, 0, err
	}
	return HeaderField{Name: qpackDynamicPlaceholder, Value: qpackDynamicPlaceholder}, n, nil
}

// QPACKEncoder serializes header fields against the static table only: it
// never allocates dynamic-table capacity and so never emits a dynamic
// reference, satisfying the "conforming provided it never emits dynamic
// references" rule in spec §4.1.
type QPACKEncoder struct{}

func NewQPACKEncoder() *QPACKEncoder { return &QPACKEncoder{} }

// EncodeHeaderBlock serializes fields with Required Insert Count=0, Base=0
// (both always valid against a never-used dynamic table).
func (e *QPACKEncoder) EncodeHeaderBlock(fields []HeaderField) []byte {
	dst := writePrefixInt(nil, 8, 0x00, 0) // Required Insert Count
	dst = writePrefixInt(dst, 7, 0x00, 0)  // Base, sign bit clear
	for _, f := range fields {
		dst = e.encodeField(dst, f)
	}
	return dst
}

func (e *QPACKEncoder) encodeField(dst []byte, f HeaderField) []byte {
	exact, nameOnly := qpackStaticNameIndex(f.Name, f.Value)
	switch {
	case exact >= 0:
		return writePrefixInt(dst, 6, 0xc0, uint64(exact)) // indexed, static
	case nameOnly >= 0:
		top := byte(0x50) // 01_ S=1 (0x10), literal with name reference
		if f.Sensitive {
			top |= 0x20
		}
		dst = writePrefixInt(dst, 4, top, uint64(nameOnly))
		return appendLiteralString(dst, f.Value)
	default:
		top := byte(0x10) // 0001, no name reference
		if f.Sensitive {
			top |= 0x08
		}
		dst = append(dst, top)
		dst = appendLiteralString(dst, f.Name)
		return appendLiteralString(dst, f.Value)
	}
}
