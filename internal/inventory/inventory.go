package inventory

// Entry is the metadata held for one relative key. Local entries
// carry ModTime, remote entries carry ETag.
type Entry struct {
	Key     string
	Size    int64
	ModTime int64
	ETag    string

	// Dir marks a directory row. Directory rows never take part in
	// diffing; only leaf file keys do.
	Dir bool
}

// Inventory maps relative keys to entries while remembering insertion
// order, so downstream diffing is deterministic.
type Inventory struct {
	entries map[string]Entry
	keys    []string
}

func New() *Inventory {
	return &Inventory{
		entries: make(map[string]Entry),
	}
}

// Add records an entry. Keys ending in '/' are normalized into
// zero-size directory rows. Re-adding a key overwrites the previous
// entry without changing its position.
func (inv *Inventory) Add(entry Entry) {
	if len(entry.Key) > 0 && entry.Key[len(entry.Key)-1] == '/' {
		entry.Dir = true
		entry.Size = 0
	}

	if _, ok := inv.entries[entry.Key]; !ok {
		inv.keys = append(inv.keys, entry.Key)
	}
	inv.entries[entry.Key] = entry
}

// Get looks up the entry for a key.
func (inv *Inventory) Get(key string) (Entry, bool) {
	entry, ok := inv.entries[key]
	return entry, ok
}

// Keys returns all keys in insertion order, including directory rows.
func (inv *Inventory) Keys() []string {
	return inv.keys
}

// Len is the number of entries, directory rows included.
func (inv *Inventory) Len() int {
	return len(inv.keys)
}
