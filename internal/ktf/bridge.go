package ktf

import (
	"sync"

	"github.com/zboralski/wie/internal/arm"
	"github.com/zboralski/wie/internal/jvm"
	"github.com/zboralski/wie/internal/mem"
)

// GetClassFunc resolves a class by fully-qualified name through the
// vendor binary's own get_class entry point, returning the resulting
// RawClass pointer (spec §4.7 "Class-loader bridge").
type GetClassFunc func(name string) (uint32, error)

// Bridge is the KTF implementation of jvm.Resolver: it turns the vendor
// binary's pre-built class/method/field tables in emulated memory into
// jvm.ClassDefinition/jvm.Method/jvm.Field values, and routes method
// invocation back through the ARM engine (spec C8).
type Bridge struct {
	engine   *arm.Engine
	rw       mem.ByteReadWriter
	vtables  *VtableRegistry
	getClass GetClassFunc

	cacheMu    sync.Mutex
	classCache map[string]uint32
}

// NewBridge creates a class-library bridge over engine. getClass may be
// nil if every class the running application needs is already resolved
// and cached ahead of time; any cache miss will then fail with a
// KindFatal error rather than calling into the vendor binary.
func NewBridge(engine *arm.Engine, vtables *VtableRegistry, getClass GetClassFunc) *Bridge {
	return &Bridge{
		engine:     engine,
		rw:         engine,
		vtables:    vtables,
		getClass:   getClass,
		classCache: make(map[string]uint32),
	}
}

var _ jvm.Resolver = (*Bridge)(nil)

// PreloadClass registers name as already resolved to ptr, used to seed
// the cache with well-known classes (java.lang.Object and friends)
// discovered once at startup.
func (b *Bridge) PreloadClass(name string, ptr uint32) {
	b.cacheMu.Lock()
	defer b.cacheMu.Unlock()
	b.classCache[name] = ptr
}
