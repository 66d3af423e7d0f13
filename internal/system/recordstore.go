package system

import (
	"sort"
	"sync"

	"github.com/zboralski/wie/internal/wipic"
)

var _ wipic.DatabaseContext = (*Facade)(nil)

// store holds one named record store's records, keyed by record id.
// Ids are assigned sequentially starting at 1, MIDP RecordStore style,
// and are never reused after a delete.
type store struct {
	name    string
	records map[int32][]byte
	nextID  int32
}

// RecordStore is the per-app persistent key-value repository backing
// org.kwis.msp.db.DataBase and the platform RecordStore API (spec §4.10
// "platform callbacks ... database repository", spec §6 "Persisted
// state. Per-app record stores live under the platform's database
// repository; encoding is the raw record bytes as written").
type RecordStore struct {
	mu      sync.Mutex
	handles map[wipic.StoreHandle]*store
	nextH   wipic.StoreHandle
}

// NewRecordStore creates an empty repository.
func NewRecordStore() *RecordStore {
	return &RecordStore{handles: make(map[wipic.StoreHandle]*store)}
}

// OpenStore opens (creating if necessary) the store named name, returning
// a handle stable for the lifetime of the process.
func (r *RecordStore) OpenStore(name string) (wipic.StoreHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for h, s := range r.handles {
		if s.name == name {
			return h, nil
		}
	}
	r.nextH++
	h := r.nextH
	r.handles[h] = &store{name: name, records: make(map[int32][]byte), nextID: 1}
	return h, nil
}

// CloseStore is a no-op: stores persist for the process lifetime and are
// identified by name, not by an exclusive lock.
func (r *RecordStore) CloseStore(h wipic.StoreHandle) error { return nil }

// Count reports how many records the store holds.
func (r *RecordStore) Count(h wipic.StoreHandle) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.handles[h]
	if !ok {
		return 0
	}
	return len(s.records)
}

// AddRecord appends a new record, assigning it the next sequential id.
func (r *RecordStore) AddRecord(h wipic.StoreHandle, data []byte) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.handles[h]
	if !ok {
		return 0, ErrNotFound{Path: "record store"}
	}
	id := s.nextID
	s.nextID++
	cp := append([]byte(nil), data...)
	s.records[id] = cp
	return id, nil
}

// ReadRecord returns the bytes stored at id.
func (r *RecordStore) ReadRecord(h wipic.StoreHandle, id int32) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.handles[h]
	if !ok {
		return nil, false
	}
	data, ok := s.records[id]
	return data, ok
}

// WriteRecord overwrites the record at id if it exists, or inserts it at
// id if id is not yet in use (id==0 behaves like AddRecord).
func (r *RecordStore) WriteRecord(h wipic.StoreHandle, id int32, data []byte) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.handles[h]
	if !ok {
		return 0, ErrNotFound{Path: "record store"}
	}
	if id == 0 {
		id = s.nextID
		s.nextID++
	} else if id >= s.nextID {
		s.nextID = id + 1
	}
	s.records[id] = append([]byte(nil), data...)
	return id, nil
}

// DeleteRecord removes the record at id.
func (r *RecordStore) DeleteRecord(h wipic.StoreHandle, id int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.handles[h]
	if !ok {
		return ErrNotFound{Path: "record store"}
	}
	delete(s.records, id)
	return nil
}

// ListRecords returns every record id currently stored, ascending.
func (r *RecordStore) ListRecords(h wipic.StoreHandle) []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.handles[h]
	if !ok {
		return nil
	}
	ids := make([]int32, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// singleRecordID is the fixed id used by the "write exactly one record"
// convenience some save-slot MIDlets rely on instead of CRUD-by-id.
const singleRecordID int32 = 1

// ReadSingleRecord returns the store's sole record, if any.
func (r *RecordStore) ReadSingleRecord(h wipic.StoreHandle) ([]byte, bool) {
	return r.ReadRecord(h, singleRecordID)
}

// WriteSingleRecord replaces the store's entire contents with a single
// record at the fixed id, discarding whatever else was stored.
func (r *RecordStore) WriteSingleRecord(h wipic.StoreHandle, data []byte) error {
	r.mu.Lock()
	s, ok := r.handles[h]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound{Path: "record store"}
	}
	s.records = map[int32][]byte{singleRecordID: append([]byte(nil), data...)}
	if s.nextID <= singleRecordID {
		s.nextID = singleRecordID + 1
	}
	r.mu.Unlock()
	return nil
}
