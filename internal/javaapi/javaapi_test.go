package javaapi

import (
	"context"
	"testing"

	"github.com/zboralski/wie/internal/jvm"
	"github.com/zboralski/wie/internal/mem"
	"github.com/zboralski/wie/internal/system"
)

type fakeEngine struct {
	base uint32
	mem  []byte
}

func (f *fakeEngine) ReadBytes(addr uint32, buf []byte) error {
	copy(buf, f.mem[addr-f.base:])
	return nil
}

func (f *fakeEngine) WriteBytes(addr uint32, data []byte) error {
	copy(f.mem[addr-f.base:], data)
	return nil
}

func (f *fakeEngine) RunFunction(addr uint32, args []uint32) (uint32, uint32, error) {
	return addr, uint32(len(args)), nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	eng := &fakeEngine{base: 0x1000, mem: make([]byte, 64)}
	alloc, err := mem.NewAllocator(eng, eng.base, uint32(len(eng.mem)))
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}
	facade := system.New(eng, alloc, system.Identity{AppID: "test"})
	return NewRegistry(facade)
}

func callStatic(t *testing.T, reg *Registry, className, method, descriptor string, args ...jvm.Value) jvm.Value {
	t.Helper()
	class, ok := reg.Lookup(className)
	if !ok {
		t.Fatalf("class %s not registered", className)
	}
	methods, err := class.Methods()
	if err != nil {
		t.Fatalf("Methods: %v", err)
	}
	for _, m := range methods {
		if m.Name() == method && m.Descriptor() == descriptor {
			v, err := m.Invoke(context.Background(), nil, args)
			if err != nil {
				t.Fatalf("Invoke %s.%s: %v", className, method, err)
			}
			return v
		}
	}
	t.Fatalf("method %s.%s%s not found", className, method, descriptor)
	return 0
}

func callInstance(t *testing.T, reg *Registry, self *Instance, method, descriptor string, args ...jvm.Value) jvm.Value {
	t.Helper()
	methods, err := self.class.Methods()
	if err != nil {
		t.Fatalf("Methods: %v", err)
	}
	for _, m := range methods {
		if m.Name() == method && m.Descriptor() == descriptor {
			v, err := m.Invoke(context.Background(), self, args)
			if err != nil {
				t.Fatalf("Invoke %s%s: %v", method, descriptor, err)
			}
			return v
		}
	}
	t.Fatalf("method %s%s not found", method, descriptor)
	return 0
}

func TestStringConcat(t *testing.T) {
	reg := newTestRegistry(t)
	env := reg.Env()

	a := env.NewString("hello, ")
	instA, _ := env.Load(a)

	b := env.NewString("world")
	result := callInstance(t, reg, instA, "concat", "(Ljava/lang/String;)Ljava/lang/String;", b)

	got, ok := env.StringValue(result)
	if !ok || got != "hello, world" {
		t.Fatalf("concat result = %q, %v, want %q", got, ok, "hello, world")
	}
}

func TestStringBufferAppend(t *testing.T) {
	reg := newTestRegistry(t)
	env := reg.Env()

	inst, err := reg.NewInstance("java/lang/StringBuffer")
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	callInstance(t, reg, inst, "<init>", "()V")

	part1 := env.NewString("foo")
	part2 := env.NewString("bar")
	callInstance(t, reg, inst, "append", "(Ljava/lang/String;)Ljava/lang/StringBuffer;", part1)
	callInstance(t, reg, inst, "append", "(Ljava/lang/String;)Ljava/lang/StringBuffer;", part2)

	result := callInstance(t, reg, inst, "toString", "()Ljava/lang/String;")
	got, ok := env.StringValue(result)
	if !ok || got != "foobar" {
		t.Fatalf("StringBuffer result = %q, %v, want foobar", got, ok)
	}
}

func TestDataBaseRoundTrip(t *testing.T) {
	reg := newTestRegistry(t)
	env := reg.Env()

	inst, err := reg.NewInstance("org/kwis/msp/db/DataBase")
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	nameHandle := env.NewString("savegame")
	callInstance(t, reg, inst, "openDataBase", "(Ljava/lang/String;IZ)V", nameHandle, 0, 0)

	payload := env.NewByteArray([]byte("progress=42"))
	id := callInstance(t, reg, inst, "insertRecord", "([B)I", payload)
	if id == 0 {
		t.Fatalf("insertRecord returned id 0")
	}

	count := callInstance(t, reg, inst, "getNumberOfRecords", "()I")
	if count != 1 {
		t.Fatalf("getNumberOfRecords = %d, want 1", count)
	}

	readBack := callInstance(t, reg, inst, "selectRecord", "(I)[B", id)
	data, ok := env.ByteArrayValue(readBack)
	if !ok || string(data) != "progress=42" {
		t.Fatalf("selectRecord = %q, %v, want progress=42", data, ok)
	}
}

func TestKtfClassLoaderFindsNativeClassFirst(t *testing.T) {
	reg := newTestRegistry(t)
	env := reg.Env()

	loader, err := reg.NewInstance("net/wie/KtfClassLoader")
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	name := env.NewString("java/lang/String")
	classHandle := callInstance(t, reg, loader, "findClass", "(Ljava/lang/String;)Ljava/lang/Class;", name)

	classInst, ok := env.Load(classHandle)
	if !ok {
		t.Fatalf("findClass returned an unresolvable handle")
	}
	gotName := callInstance(t, reg, classInst, "getName", "()Ljava/lang/String;")
	got, _ := env.StringValue(gotName)
	if got != "java/lang/String" {
		t.Fatalf("getName = %q, want java/lang/String", got)
	}
}

type stubResolver struct{ called string }

func (s *stubResolver) ResolveClass(ctx context.Context, name string) (jvm.ClassDefinition, error) {
	s.called = name
	return reg2Class{name: name}, nil
}

type reg2Class struct{ name string }

func (c reg2Class) Name() string                       { return c.name }
func (c reg2Class) ParentName() (string, bool)          { return "", false }
func (c reg2Class) Methods() ([]jvm.Method, error)      { return nil, nil }
func (c reg2Class) Fields() ([]jvm.Field, error)        { return nil, nil }
func (c reg2Class) InstanceFieldSize() (uint32, error)  { return 0, nil }
func (c reg2Class) AccessFlags() uint32                 { return 0 }

func TestKtfClassLoaderFallsBackToVendorResolver(t *testing.T) {
	reg := newTestRegistry(t)
	env := reg.Env()
	resolver := &stubResolver{}
	env.VendorResolver = resolver

	loader, err := reg.NewInstance("net/wie/KtfClassLoader")
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	name := env.NewString("com/example/AppMain")
	classHandle := callInstance(t, reg, loader, "findClass", "(Ljava/lang/String;)Ljava/lang/Class;", name)

	if resolver.called != "com/example/AppMain" {
		t.Fatalf("vendor resolver called with %q, want com/example/AppMain", resolver.called)
	}
	classInst, ok := env.Load(classHandle)
	if !ok {
		t.Fatalf("findClass returned an unresolvable handle")
	}
	gotName := callInstance(t, reg, classInst, "getName", "()Ljava/lang/String;")
	got, _ := env.StringValue(gotName)
	if got != "com/example/AppMain" {
		t.Fatalf("getName = %q, want com/example/AppMain", got)
	}
}
