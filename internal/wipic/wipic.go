// Package wipic implements the WIPI-C host API (spec C9): a fixed table
// of function pointers at well-known indices per interface name, exposed
// to emulated code through get_interface(name) (spec §4.8). Every table
// here is grounded on the vendor binary's own kernel/graphics/database/
// media method tables (wie_impl_wipi_c/src/impl/*.rs), including the
// fixed-index-with-numbered-stubs pattern: an unimplemented slot still
// exists and fails loudly rather than being absent, so a vendor binary
// calling an unknown slot N gets a diagnosable error instead of a crash.
package wipic

import (
	"fmt"

	"github.com/zboralski/wie/internal/bridge"
	"github.com/zboralski/wie/internal/log"
	"github.com/zboralski/wie/internal/wieerr"
)

// genStub builds a numbered stub slot that fails with Unimplemented when
// called, naming the interface and slot index for diagnosis.
func genStub(iface string, index int) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		if log.L != nil {
			log.L.Warn(fmt.Sprintf("stub %s%d", iface, index))
		}
		return nil, wieerr.Unimplemented(fmt.Sprintf("%s interface slot %d", iface, index))
	}
}

// logStub builds a stub slot that logs and returns success, matching the
// base (non-vendor-specific) WIPI-C crate's gen_stub behavior for
// interfaces where most slots are legitimately no-ops (network, misc,
// util, uic — spec §4.8).
func logStub(iface string, index int) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		if log.L != nil {
			log.L.Warn(fmt.Sprintf("stub %s%d", iface, index))
		}
		return bridge.U32Result(0), nil
	}
}

// Table is one named WIPI-C interface's fixed-index method table.
type Table struct {
	Name  string
	Funcs []bridge.HostFunc
}

// Interfaces is the registry consulted by get_interface.
type Interfaces struct {
	tables map[string]Table
}

// NewInterfaces builds the registry of every interface this host
// supports, given the system facade each table's real implementations
// call back into.
func NewInterfaces(kernel KernelContext, graphics GraphicsContext, db DatabaseContext, media MediaContext) *Interfaces {
	reg := &Interfaces{tables: make(map[string]Table)}
	reg.register(kernelTable(kernel))
	reg.register(graphicsTable(graphics))
	reg.register(databaseTable(db))
	reg.register(mediaTable(media))
	reg.register(stubTable("network", 16))
	reg.register(stubTable("misc", 16))
	reg.register(stubTable("util", 16))
	reg.register(stubTable("uic", 16))
	return reg
}

func (r *Interfaces) register(t Table) { r.tables[t.Name] = t }

// GetInterface returns the named interface's method table, or false if
// the vendor binary asked for an interface this host does not know
// about at all (distinct from a known interface's unimplemented slot).
func (r *Interfaces) GetInterface(name string) (Table, bool) {
	t, ok := r.tables[name]
	return t, ok
}

// stubTable builds an interface whose every slot logs and returns
// success (spec §4.8 "Network, misc, util, uic: mostly stubs that log").
func stubTable(name string, n int) Table {
	funcs := make([]bridge.HostFunc, n)
	for i := range funcs {
		funcs[i] = logStub(name, i)
	}
	return Table{Name: name, Funcs: funcs}
}
