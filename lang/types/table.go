package types

const tableMaxLoad = 0.75

type entry struct {
	key   *String
	value Value
}

// A Table maps interned strings to values using open addressing with
// linear probing. Key comparison is pointer identity, which interning
// makes sound. Deleting an entry leaves a tombstone (nil key, true value)
// so probe sequences keep running past it.
//
// The zero value is an empty table ready for use.
type Table struct {
	count   int // live entries plus tombstones
	entries []entry
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].key != nil {
			n++
		}
	}
	return n
}

// Get returns the value for key and whether it was present.
func (t *Table) Get(key *String) (Value, bool) {
	if t.count == 0 {
		return nil, false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return nil, false
	}
	return e.value, true
}

// Set maps key to value and reports whether the key was new.
func (t *Table) Set(key *String, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.adjustCapacity(growCapacity(len(t.entries)))
	}

	e := findEntry(t.entries, key)
	isNew := e.key == nil
	if isNew && e.value == nil {
		// a reused tombstone was already counted
		t.count++
	}
	e.key = key
	e.value = value
	return isNew
}

// Delete removes key, leaving a tombstone. It reports whether the key was
// present.
func (t *Table) Delete(key *String) bool {
	if t.count == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = True
	return true
}

// AddAll copies every live entry of src into t. Inherit relies on it to
// copy the superclass method table into the subclass.
func (t *Table) AddAll(src *Table) {
	for i := range src.entries {
		if e := &src.entries[i]; e.key != nil {
			t.Set(e.key, e.value)
		}
	}
}

// FindString returns the interned key whose bytes equal s, or nil. It is
// the only lookup that compares bytes instead of identity, so the heap can
// find an existing interned duplicate before allocating.
func (t *Table) FindString(s string, hash uint32) *String {
	if t.count == 0 {
		return nil
	}
	index := int(hash) & (len(t.entries) - 1)
	for {
		e := &t.entries[index]
		if e.key == nil {
			// stop on a truly empty slot, skip tombstones
			if e.value == nil {
				return nil
			}
		} else if e.key.hash == hash && e.key.str == s {
			return e.key
		}
		index = (index + 1) & (len(t.entries) - 1)
	}
}

// RemoveWhite deletes every entry whose key is unmarked. The collector
// calls it between trace and sweep so that the intern table does not keep
// strings alive.
func (t *Table) RemoveWhite() {
	for i := range t.entries {
		if e := &t.entries[i]; e.key != nil && !e.key.marked {
			t.Delete(e.key)
		}
	}
}

// findEntry returns the slot for key: the live entry holding it, or the
// slot an insertion should use. The first tombstone seen during the probe
// is returned as insertion slot, but only if no live key is found further
// along the probe.
func findEntry(entries []entry, key *String) *entry {
	var tombstone *entry
	index := int(key.hash) & (len(entries) - 1)
	for {
		e := &entries[index]
		if e.key == nil {
			if e.value == nil {
				// empty slot
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		index = (index + 1) & (len(entries) - 1)
	}
}

func (t *Table) adjustCapacity(capacity int) {
	entries := make([]entry, capacity)

	// reinsertion drops tombstones, recount live keys
	t.count = 0
	for i := range t.entries {
		e := &t.entries[i]
		if e.key == nil {
			continue
		}
		dest := findEntry(entries, e.key)
		dest.key = e.key
		dest.value = e.value
		t.count++
	}
	t.entries = entries
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}
