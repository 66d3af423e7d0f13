// Package javaapi implements the curated set of Java classes a vendor
// binary expects its class loader to resolve natively rather than find
// in the application jar: java.lang.*, the org.kwis.msp.* UI and
// platform stubs, and the net.wie.* glue classes (spec §4.9 "Java class
// host API (C10)"). Each class is declared as a proto — a name, parent,
// interfaces, and a table of method/field protos — and turned into a
// jvm.ClassDefinition the hosted JVM can resolve and invoke exactly
// like a vendor-supplied class.
package javaapi

import (
	"context"
	"fmt"
	"sync"

	"github.com/zboralski/wie/internal/jvm"
	"github.com/zboralski/wie/internal/system"
)

// Body is a native method's implementation. self is nil for static
// methods. Object-typed arguments and results are handles minted by
// Env.Store, valid only within this registry's Env.
type Body func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error)

// FieldProto declares one field of a native class.
type FieldProto struct {
	Name        string
	Descriptor  string
	AccessFlags uint32
}

// MethodProto declares one method of a native class, paired with its
// Go implementation.
type MethodProto struct {
	Name        string
	Descriptor  string
	AccessFlags uint32
	Body        Body
}

// ClassProto is the full declaration of a native class (spec §4.9
// "Class proto defines: name, parent name, interface names, method
// protos, field protos").
type ClassProto struct {
	Name       string
	ParentName string
	Interfaces []string
	Methods    []MethodProto
	Fields     []FieldProto
}

// Class is the jvm.ClassDefinition materialized from a ClassProto on
// first resolution (spec §4.9 step 2).
type Class struct {
	proto   ClassProto
	env     *Env
	methods []jvm.Method
	fields  []jvm.Field
}

var _ jvm.ClassDefinition = (*Class)(nil)

func newClass(proto ClassProto, env *Env) *Class {
	c := &Class{proto: proto, env: env}
	c.methods = make([]jvm.Method, len(proto.Methods))
	for i := range proto.Methods {
		c.methods[i] = &Method{class: c, proto: &proto.Methods[i]}
	}
	c.fields = make([]jvm.Field, len(proto.Fields))
	for i := range proto.Fields {
		c.fields[i] = &Field{proto: &proto.Fields[i]}
	}
	return c
}

func (c *Class) Name() string { return c.proto.Name }

func (c *Class) ParentName() (string, bool) {
	if c.proto.ParentName == "" {
		return "", false
	}
	return c.proto.ParentName, true
}

func (c *Class) Methods() ([]jvm.Method, error) { return c.methods, nil }
func (c *Class) Fields() ([]jvm.Field, error)   { return c.fields, nil }

// InstanceFieldSize reports the instance field size in bytes, matching
// the vendor's byte-size convention at 4 bytes per non-static field.
func (c *Class) InstanceFieldSize() (uint32, error) {
	n := uint32(0)
	for _, f := range c.proto.Fields {
		if (f.AccessFlags & AccStatic) == 0 {
			n++
		}
	}
	return n * 4, nil
}

func (c *Class) AccessFlags() uint32 { return AccPublic }

// Method is a jvm.Method wrapping a MethodProto's Go body.
type Method struct {
	class *Class
	proto *MethodProto
}

var _ jvm.Method = (*Method)(nil)

func (m *Method) Name() string       { return m.proto.Name }
func (m *Method) Descriptor() string { return m.proto.Descriptor }
func (m *Method) AccessFlags() uint32 {
	return m.proto.AccessFlags
}

// VtableIndex reports the method's fixed slot within its declaring
// class's method table; native classes never resize, so the index is
// stable from registration onward.
func (m *Method) VtableIndex() (int, bool) {
	for i := range m.class.proto.Methods {
		if &m.class.proto.Methods[i] == m.proto {
			return i, true
		}
	}
	return 0, false
}

// Invoke runs the method's Go body, converting the receiver to a
// native *Instance (nil for static methods).
func (m *Method) Invoke(ctx context.Context, receiver jvm.ClassInstance, args []jvm.Value) (jvm.Value, error) {
	if m.proto.Body == nil {
		return 0, fmt.Errorf("javaapi: %s.%s%s has no implementation", m.class.Name(), m.Name(), m.Descriptor())
	}
	var self *Instance
	if receiver != nil {
		inst, ok := receiver.(*Instance)
		if !ok {
			return 0, fmt.Errorf("javaapi: receiver is not a javaapi.Instance")
		}
		self = inst
	}
	return m.proto.Body(ctx, m.class.env, self, args)
}

// Field is a jvm.Field wrapping a FieldProto.
type Field struct {
	proto *FieldProto
}

var _ jvm.Field = (*Field)(nil)

func (f *Field) Name() string        { return f.proto.Name }
func (f *Field) Descriptor() string  { return f.proto.Descriptor }
func (f *Field) AccessFlags() uint32 { return f.proto.AccessFlags }
func (f *Field) IsStatic() bool      { return f.proto.AccessFlags&AccStatic != 0 }

// Access flag bits used by native class protos (a small subset of the
// JVM's, just enough to mark static members).
const (
	AccPublic uint32 = 0x0001
	AccStatic uint32 = 0x0008
)

// Instance is a live object of a native class: field storage plus an
// opaque Extra payload a method body uses for state a jvm.Value can't
// carry directly (a Go string, a StringBuffer's accumulator, an open
// record-store handle).
type Instance struct {
	class  *Class
	id     int32
	fields map[string]jvm.Value
	Extra  any
}

var _ jvm.ClassInstance = (*Instance)(nil)

func (i *Instance) ClassDefinition() jvm.ClassDefinition { return i.class }

func fieldKey(f jvm.Field) string { return f.Name() + ":" + f.Descriptor() }

func (i *Instance) GetField(ctx context.Context, f jvm.Field) (jvm.Value, error) {
	return i.fields[fieldKey(f)], nil
}

func (i *Instance) PutField(ctx context.Context, f jvm.Field, v jvm.Value) error {
	i.fields[fieldKey(f)] = v
	return nil
}

func (i *Instance) Equals(other jvm.ClassInstance) bool {
	o, ok := other.(*Instance)
	return ok && o == i
}

func (i *Instance) HashCode() int32 { return i.id }

// Env is the shared context every native method body runs with: the
// system facade (screen, clock, database, filesystem) and a handle
// table translating jvm.Value results back to the *Instance a caller
// can chain further calls against.
type Env struct {
	Facade   *system.Facade
	Registry *Registry

	// VendorResolver resolves classes through the vendor binary's
	// class loader (net.wie.KtfClassLoader.findClass delegates here),
	// set by whichever package wires a javaapi.Registry to a running
	// KTF bridge.
	VendorResolver jvm.Resolver

	mu      sync.Mutex
	handles map[uint32]*Instance
	next    uint32
}

func newEnv(facade *system.Facade, reg *Registry) *Env {
	return &Env{Facade: facade, Registry: reg, handles: make(map[uint32]*Instance), next: 1}
}

// Store mints a handle for inst (or returns its existing one) so it
// can cross a Body's jvm.Value-typed return or argument.
func (e *Env) Store(inst *Instance) jvm.Value {
	if inst == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for h, v := range e.handles {
		if v == inst {
			return jvm.Value(h)
		}
	}
	h := e.next
	e.next++
	e.handles[h] = inst
	return jvm.Value(h)
}

// Load resolves a handle minted by Store back to its *Instance.
func (e *Env) Load(v jvm.Value) (*Instance, bool) {
	if v == 0 {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	inst, ok := e.handles[uint32(v)]
	return inst, ok
}
