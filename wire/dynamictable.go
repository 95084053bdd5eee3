package wire

// dynamicTable is the bounded FIFO insertion-indexed table used by the
// HPACK decoder; the QPACK decoder holds a zero-capacity one and the
// encoders hold none (spec §3, "Compressed Header Table").
// Entries evict oldest-first once the size accounting exceeds capacity.
//
// Per RFC 7541 §4.1 / RFC 9204 §3.2.2 the size of an entry is
// len(name)+len(value)+32; capacity is the negotiated/announced maximum.
type dynamicTable struct {
	entries  []HeaderField // entries[0] is the most recently inserted
	size     int
	capacity int
	// insertCount is the running count of all insertions ever made, used by
	// QPACK's Required Insert Count / relative indexing.
	insertCount uint64
}

func newDynamicTable(capacity int) *dynamicTable {
	return &dynamicTable{capacity: capacity}
}

func entrySize(f HeaderField) int {
	return len(f.Name) + len(f.Value) + 32
}

// SetCapacity applies a new capacity, evicting from the tail as needed.
func (t *dynamicTable) SetCapacity(capacity int) {
	t.capacity = capacity
	t.evict()
}

func (t *dynamicTable) evict() {
	for t.size > t.capacity && len(t.entries) > 0 {
		last := t.entries[len(t.entries)-1]
		t.entries = t.entries[:len(t.entries)-1]
		t.size -= entrySize(last)
	}
}

// Insert adds a new entry at the front (most recent), evicting as needed.
// An entry larger than the whole table's capacity empties the table
// entirely without being inserted (RFC 7541 §4.4).
func (t *dynamicTable) Insert(f HeaderField) {
	sz := entrySize(f)
	t.insertCount++
	if sz > t.capacity {
		t.entries = t.entries[:0]
		t.size = 0
		return
	}
	t.entries = append([]HeaderField{f}, t.entries...)
	t.size += sz
	t.evict()
}

// Get returns the entry at HPACK dynamic index i (1-based, counted from the
// most recently inserted entry placed right after the static table).
func (t *dynamicTable) Get(i int) (HeaderField, bool) {
	if i < 1 || i > len(t.entries) {
		return HeaderField{}, false
	}
	return t.entries[i-1], true
}

// Len is the current live entry count.
func (t *dynamicTable) Len() int { return len(t.entries) }

// InsertCount is the total number of entries ever inserted (QPACK Required
// Insert Count bookkeeping).
func (t *dynamicTable) InsertCount() uint64 { return t.insertCount }

// GetAbsolute returns the entry at QPACK absolute index idx (0 is the
// first-ever-inserted entry).
func (t *dynamicTable) GetAbsolute(idx uint64) (HeaderField, bool) {
	if idx >= t.insertCount {
		return HeaderField{}, false
	}
	// Position from the front: newest entry has absolute index
	// insertCount-1.
	pos := t.insertCount - 1 - idx
	return t.Get(int(pos) + 1)
}
