package ktf

import (
	"context"
	"fmt"

	"github.com/zboralski/wie/internal/jvm"
	"github.com/zboralski/wie/internal/log"
)

// Method is a jvm.Method backed by a RawMethod record (spec §3.5).
type Method struct {
	bridge *Bridge
	ptr    uint32
}

var _ jvm.Method = (*Method)(nil)

func (m *Method) raw() (RawMethod, error) { return readRawMethod(m.bridge.rw, m.ptr) }

func (m *Method) fullName() (fullName, error) {
	raw, err := m.raw()
	if err != nil {
		return fullName{}, err
	}
	return readFullName(m.bridge.rw, raw.PtrFullName)
}

// Name implements jvm.Method.
func (m *Method) Name() string {
	f, err := m.fullName()
	if err != nil {
		return ""
	}
	return f.Name
}

// Descriptor implements jvm.Method.
func (m *Method) Descriptor() string {
	f, err := m.fullName()
	if err != nil {
		return ""
	}
	return f.Descriptor
}

// AccessFlags implements jvm.Method.
func (m *Method) AccessFlags() uint32 {
	raw, err := m.raw()
	if err != nil {
		return 0
	}
	return raw.AccessFlags
}

// VtableIndex implements jvm.Method. A method with no implementation
// address reports (0, false); any other method reports its stored index,
// which is 0 if it has never been placed in a built vtable.
func (m *Method) VtableIndex() (int, bool) {
	raw, err := m.raw()
	if err != nil {
		return 0, false
	}
	if raw.ImplAddr == 0 {
		return 0, false
	}
	return int(raw.VtableIndex), true
}

// Invoke implements jvm.Method by running the method's native
// implementation through the ARM engine's reentrant call bridge (spec
// §4.3, §4.7): the receiver (if any) is passed as the first word
// argument, followed by args in order.
func (m *Method) Invoke(ctx context.Context, receiver jvm.ClassInstance, args []jvm.Value) (jvm.Value, error) {
	raw, err := m.raw()
	if err != nil {
		return 0, err
	}
	if raw.ImplAddr == 0 {
		return 0, fmt.Errorf("ktf: method %s has no native implementation", m.Name())
	}

	callArgs := make([]uint32, 0, len(args)+1)
	if receiver != nil {
		inst, ok := receiver.(*Instance)
		if !ok {
			return 0, fmt.Errorf("ktf: receiver is not a ktf.Instance")
		}
		callArgs = append(callArgs, inst.ptr)
	}
	for _, a := range args {
		callArgs = append(callArgs, uint32(a))
	}

	if log.L != nil {
		def := receiver
		className := ""
		if def != nil {
			className = def.ClassDefinition().Name()
		}
		idx, _ := m.VtableIndex()
		log.L.MethodDispatch(className, m.Name(), idx)
	}

	r0, _, err := m.bridge.engine.RunFunction(raw.ImplAddr, callArgs)
	if err != nil {
		return 0, fmt.Errorf("ktf: invoke %s%s: %w", m.Name(), m.Descriptor(), err)
	}
	return jvm.Value(r0), nil
}
