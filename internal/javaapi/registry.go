package javaapi

import (
	"context"
	"fmt"
	"sync"

	"github.com/zboralski/wie/internal/jvm"
	"github.com/zboralski/wie/internal/system"
)

// Registry holds every native class proto registered for a running
// emulator instance and resolves them for the hosted JVM (spec §4.9
// step 2: "the JVM bridge materializes a ClassDefinition from the
// proto and registers it with C7").
type Registry struct {
	env *Env

	mu      sync.RWMutex
	classes map[string]*Class
	nextID  int32
}

var _ jvm.Resolver = (*Registry)(nil)

// NewRegistry creates an empty registry bound to facade, then installs
// every built-in class proto (java.lang.*, org.kwis.msp.*, net.wie.*).
func NewRegistry(facade *system.Facade) *Registry {
	r := &Registry{classes: make(map[string]*Class)}
	r.env = newEnv(facade, r)
	for _, proto := range builtinProtos() {
		r.Register(proto)
	}
	return r
}

// Register materializes proto into a Class and makes it resolvable by
// name, overwriting any earlier registration under the same name.
func (r *Registry) Register(proto ClassProto) *Class {
	c := newClass(proto, r.env)
	r.mu.Lock()
	r.classes[proto.Name] = c
	r.mu.Unlock()
	return c
}

// Lookup returns the registered class by binary name, if any.
func (r *Registry) Lookup(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[name]
	return c, ok
}

// ResolveClass implements jvm.Resolver over the native registry only;
// a JVM bridge composing this with a vendor resolver should try
// Registry first and fall back to the vendor's get_class trampoline.
func (r *Registry) ResolveClass(ctx context.Context, name string) (jvm.ClassDefinition, error) {
	c, ok := r.Lookup(name)
	if !ok {
		return nil, &jvm.ClassNotFoundError{Name: name}
	}
	return c, nil
}

// NewInstance allocates a new instance of a registered class.
func (r *Registry) NewInstance(name string) (*Instance, error) {
	c, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("javaapi: class %s not registered", name)
	}
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.mu.Unlock()
	return &Instance{class: c, id: id, fields: make(map[string]jvm.Value)}, nil
}

// Env returns the shared native-method environment, for packages that
// wire additional classes (e.g. net.wie.KtfClassLoader's vendor
// resolver) after construction.
func (r *Registry) Env() *Env { return r.env }

func builtinProtos() []ClassProto {
	var protos []ClassProto
	protos = append(protos, langProtos()...)
	protos = append(protos, lcdUIProtos()...)
	protos = append(protos, mspProtos()...)
	protos = append(protos, netWieProtos()...)
	return protos
}
