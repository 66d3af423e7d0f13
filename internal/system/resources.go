package system

import "sync"

// ResourceTable assigns small sequential integer ids to named resources
// (images, sounds, and other files packaged in the jar) so that WIPI-C's
// get_resource_id/get_resource kernel calls, which exchange handles by
// id, can be backed by the virtual filesystem's byte vectors (spec §4.8
// "Kernel", slots get_resource_id/get_resource).
type ResourceTable struct {
	fs *Filesystem

	mu      sync.Mutex
	idByName map[string]int32
	nameByID []string // index i holds the name assigned id i
}

// NewResourceTable creates a resource table backed by fs.
func NewResourceTable(fs *Filesystem) *ResourceTable {
	return &ResourceTable{fs: fs, idByName: make(map[string]int32)}
}

// ID returns the id assigned to name, assigning a fresh one on first
// lookup if the named resource exists in the filesystem. ok is false
// when no such resource exists.
func (r *ResourceTable) ID(name string) (int32, bool) {
	if _, exists := r.fs.Get(name); !exists {
		return 0, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.idByName[name]; ok {
		return id, true
	}
	id := int32(len(r.nameByID))
	r.idByName[name] = id
	r.nameByID = append(r.nameByID, name)
	return id, true
}

// Size reports the byte length of the resource identified by id.
func (r *ResourceTable) Size(id int32) (uint32, bool) {
	data, ok := r.Data(id)
	if !ok {
		return 0, false
	}
	return uint32(len(data)), true
}

// Data returns the raw bytes of the resource identified by id.
func (r *ResourceTable) Data(id int32) ([]byte, bool) {
	r.mu.Lock()
	if id < 0 || int(id) >= len(r.nameByID) {
		r.mu.Unlock()
		return nil, false
	}
	name := r.nameByID[id]
	r.mu.Unlock()

	return r.fs.Get(name)
}
