package ktf

import "github.com/zboralski/wie/internal/mem"

// PEB layout at arm.PEBBase (spec §3 "PEB layout. At 0x7FF00000:
// { ptr_java_context_data: u32, ptr_current_java_exception_handler: u32 }"):
// a fixed-address record other tasks read through the system facade
// rather than threading a context pointer through every call.
const (
	pebPtrJavaContextData            = 0x00
	pebPtrCurrentJavaExceptionHandler = 0x04
)

// WriteJavaContextData stores the JVM bridge context pointer at its PEB
// slot, done once during bootstrap after the vendor binary's entrypoint
// protocol has produced it.
func WriteJavaContextData(w mem.ByteWriter, pebBase, ptr uint32) error {
	return mem.WriteU32(w, pebBase+pebPtrJavaContextData, ptr)
}

// JavaContextData reads the JVM bridge context pointer back out of the PEB.
func JavaContextData(r mem.ByteReader, pebBase uint32) (uint32, error) {
	return mem.ReadU32(r, pebBase+pebPtrJavaContextData)
}

// SetCurrentJavaExceptionHandler records the ARM address of the
// exception handler currently in scope, consulted when java_throw's
// host callback (Callbacks.JavaThrow) needs to know where to resume.
// Zero means no handler is installed.
func SetCurrentJavaExceptionHandler(w mem.ByteWriter, pebBase, addr uint32) error {
	return mem.WriteU32(w, pebBase+pebPtrCurrentJavaExceptionHandler, addr)
}

// CurrentJavaExceptionHandler reads the installed handler address, if any.
func CurrentJavaExceptionHandler(r mem.ByteReader, pebBase uint32) (uint32, error) {
	return mem.ReadU32(r, pebBase+pebPtrCurrentJavaExceptionHandler)
}
