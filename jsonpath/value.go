package jsonpath

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/ohler55/ojg/oj"
)

// Kind of a decoded JSON value.
type ValueKind int

const (
	KNull ValueKind = iota
	KBool
	KNumber
	KString
	KArray
	KObject
)

// Value is this package's own JSON representation. encoding/json's
// map[string]interface{} does not preserve member order, and spec §4.4
// requires wildcard/descendant traversal to freeze a stable member order
// per execution -- so objects here carry their keys in encounter order
// alongside a name->value index for name-selector lookups.
type Value struct {
	Kind ValueKind
	B    bool
	N    float64
	S    string
	Arr  []*Value

	Keys []string
	Vals []*Value
	idx  map[string]int
}

func newObject() *Value {
	return &Value{Kind: KObject, idx: make(map[string]int)}
}

func (v *Value) set(key string, val *Value) {
	if i, ok := v.idx[key]; ok {
		v.Vals[i] = val
		return
	}
	v.idx[key] = len(v.Keys)
	v.Keys = append(v.Keys, key)
	v.Vals = append(v.Vals, val)
}

// Get returns the member named key, or nil if absent.
func (v *Value) Get(key string) *Value {
	if v.Kind != KObject {
		return nil
	}
	if i, ok := v.idx[key]; ok {
		return v.Vals[i]
	}
	return nil
}

// Decode reads exactly one JSON value from r using token-based decoding so
// object member order is preserved.
func Decode(r io.Reader) (*Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// NewDecoder wraps r in a json.Decoder configured for this package's
// number handling, for callers that need to decode a sequence of
// concatenated top-level values (spec §4.4's streaming execution).
func NewDecoder(r io.Reader) *json.Decoder {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec
}

// DecodeNext reads the next top-level value from dec. Returns io.EOF when
// the input is exhausted between values.
func DecodeNext(dec *json.Decoder) (*Value, error) {
	return decodeValue(dec)
}

// DecodeBytes is the []byte convenience form of Decode.
func DecodeBytes(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytesReader(data))
	dec.UseNumber()
	return decodeValue(dec)
}

func bytesReader(b []byte) io.Reader { return &byteReader{b: b} }

type byteReader struct {
	b []byte
	i int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.i >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.i:])
	r.i += n
	return n, nil
}

func decodeValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := newObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return obj, nil
		case '[':
			arr := &Value{Kind: KArray}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr.Arr = append(arr.Arr, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return nil, err
		}
		return &Value{Kind: KNumber, N: f}, nil
	case string:
		return &Value{Kind: KString, S: t}, nil
	case bool:
		return &Value{Kind: KBool, B: t}, nil
	case nil:
		return &Value{Kind: KNull}, nil
	default:
		return nil, fmt.Errorf("unsupported token %v", tok)
	}
}

// ToPlain converts to a plain Go value tree (map[string]interface{},
// []interface{}, float64, string, bool, nil) suitable for generic helpers
// such as the ojg-based deep-equality check and for final deserialization
// into a caller's target type.
func (v *Value) ToPlain() any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case KNull:
		return nil
	case KBool:
		return v.B
	case KNumber:
		return v.N
	case KString:
		return v.S
	case KArray:
		out := make([]any, len(v.Arr))
		for i, e := range v.Arr {
			out[i] = e.ToPlain()
		}
		return out
	case KObject:
		out := make(map[string]any, len(v.Keys))
		for i, k := range v.Keys {
			out[k] = v.Vals[i].ToPlain()
		}
		return out
	default:
		return nil
	}
}

// deepEqual implements spec §4.4's "arrays/objects by deep equality" rule
// by marshaling both sides through ojg with member-order-insensitive
// sorting, so struct-identical-but-differently-ordered objects compare
// equal the way RFC 9535 requires.
func deepEqual(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KNull:
		return true
	case KBool:
		return a.B == b.B
	case KNumber:
		return a.N == b.N
	case KString:
		return a.S == b.S
	default:
		ab, errA := oj.Marshal(a.ToPlain(), &oj.Options{Sort: true})
		bb, errB := oj.Marshal(b.ToPlain(), &oj.Options{Sort: true})
		if errA != nil || errB != nil {
			return false
		}
		return string(ab) == string(bb)
	}
}
