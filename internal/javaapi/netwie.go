package javaapi

import (
	"context"

	"github.com/zboralski/wie/internal/jvm"
)

// netWieProtos declares the glue classes bridging native dispatch into
// the vendor's own class-loading machinery (spec §6 "KtfClassLoader is
// itself a Java class resolved through the same KTF bridge machinery
// as app classes, not a special case").
func netWieProtos() []ClassProto {
	return []ClassProto{
		ktfClassLoaderProto(),
		wieEventQueueProto(),
	}
}

// ktfClassLoaderProto implements net.wie.KtfClassLoader: findClass
// delegates to the vendor's get_class trampoline via Env.VendorResolver
// rather than reimplementing class resolution here, so app classes and
// native classes share one lookup path.
func ktfClassLoaderProto() ClassProto {
	return ClassProto{
		Name:       "net/wie/KtfClassLoader",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "<init>", Descriptor: "()V", Body: noop},
			{Name: "findClass", Descriptor: "(Ljava/lang/String;)Ljava/lang/Class;", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if len(args) == 0 {
					return 0, nil
				}
				name, _ := env.StringValue(args[0])

				if native, ok := env.Registry.Lookup(name); ok {
					return env.newClassObject(native.Name()), nil
				}

				if env.VendorResolver == nil {
					return 0, &jvm.ClassNotFoundError{Name: name}
				}
				def, err := env.VendorResolver.ResolveClass(ctx, name)
				if err != nil {
					return 0, err
				}
				return env.newClassObject(def.Name()), nil
			}},
		},
	}
}

// newClassObject wraps a resolved class name in a java.lang.Class
// instance, the handle findClass hands back to its caller.
func (e *Env) newClassObject(name string) jvm.Value {
	inst, err := e.Registry.NewInstance("java/lang/Class")
	if err != nil {
		return 0
	}
	inst.fields[classNameFieldKey] = e.NewString(name)
	return e.Store(inst)
}

// wieEventQueueProto implements net.wie.EventQueue: the host-side
// view of C6's event.Queue for the hosted JVM. getNumberOfEvents
// reports how many events are queued; it does not pop events or drain
// due timers (system.Facade.Tick does that).
func wieEventQueueProto() ClassProto {
	return ClassProto{
		Name:       "net/wie/EventQueue",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "<init>", Descriptor: "()V", Body: noop},
			{Name: "getNumberOfEvents", Descriptor: "()I", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return jvm.Value(env.Facade.Events().Len()), nil
			}},
		},
	}
}
