package javaapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/zboralski/wie/internal/jvm"
)

// NewString allocates a java.lang.String instance wrapping s.
func (e *Env) NewString(s string) jvm.Value {
	inst, err := e.Registry.NewInstance("java/lang/String")
	if err != nil {
		return 0
	}
	inst.Extra = s
	return e.Store(inst)
}

// StringValue reads the Go string behind a java.lang.String handle.
func (e *Env) StringValue(v jvm.Value) (string, bool) {
	inst, ok := e.Load(v)
	if !ok {
		return "", false
	}
	s, ok := inst.Extra.(string)
	return s, ok
}

func selfString(self *Instance) string {
	if self == nil {
		return ""
	}
	s, _ := self.Extra.(string)
	return s
}

func langProtos() []ClassProto {
	return []ClassProto{
		objectProto(),
		stringProto(),
		stringBufferProto(),
		threadProto(),
		systemProto(),
		classProto(),
		runtimeProto(),
		exceptionProto(),
		byteArrayProto(),
	}
}

// byteArrayProto is the registered class backing Env.NewByteArray
// handles: a raw byte payload with no methods of its own, just enough
// for the registry to mint and identify handles for it.
func byteArrayProto() ClassProto {
	return ClassProto{Name: "[B"}
}

func objectProto() ClassProto {
	return ClassProto{
		Name: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "<init>", Descriptor: "()V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return 0, nil
			}},
			{Name: "toString", Descriptor: "()Ljava/lang/String;", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				name := "java.lang.Object"
				if self != nil {
					name = strings.ReplaceAll(self.class.Name(), "/", ".")
				}
				return env.NewString(fmt.Sprintf("%s@%x", name, int32(self.HashCode()))), nil
			}},
			{Name: "equals", Descriptor: "(Ljava/lang/Object;)Z", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if len(args) == 0 {
					return 0, nil
				}
				other, ok := env.Load(args[0])
				if !ok || self == nil {
					return 0, nil
				}
				if other == self {
					return 1, nil
				}
				return 0, nil
			}},
			{Name: "hashCode", Descriptor: "()I", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if self == nil {
					return 0, nil
				}
				return jvm.Value(self.HashCode()), nil
			}},
		},
	}
}

func stringProto() ClassProto {
	return ClassProto{
		Name:       "java/lang/String",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "<init>", Descriptor: "()V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if self != nil {
					self.Extra = ""
				}
				return 0, nil
			}},
			{Name: "length", Descriptor: "()I", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return jvm.Value(len([]rune(selfString(self)))), nil
			}},
			{Name: "charAt", Descriptor: "(I)C", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				runes := []rune(selfString(self))
				if len(args) == 0 || int(args[0]) < 0 || int(args[0]) >= len(runes) {
					return 0, fmt.Errorf("javaapi: String.charAt index out of range")
				}
				return jvm.Value(runes[args[0]]), nil
			}},
			{Name: "equals", Descriptor: "(Ljava/lang/Object;)Z", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if len(args) == 0 {
					return 0, nil
				}
				other, ok := env.StringValue(args[0])
				if ok && other == selfString(self) {
					return 1, nil
				}
				return 0, nil
			}},
			{Name: "concat", Descriptor: "(Ljava/lang/String;)Ljava/lang/String;", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if len(args) == 0 {
					return env.NewString(selfString(self)), nil
				}
				other, _ := env.StringValue(args[0])
				return env.NewString(selfString(self) + other), nil
			}},
			{Name: "toString", Descriptor: "()Ljava/lang/String;", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return env.Store(self), nil
			}},
		},
	}
}

func stringBufferProto() ClassProto {
	return ClassProto{
		Name:       "java/lang/StringBuffer",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "<init>", Descriptor: "()V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if self != nil {
					self.Extra = &strings.Builder{}
				}
				return 0, nil
			}},
			{Name: "append", Descriptor: "(Ljava/lang/String;)Ljava/lang/StringBuffer;", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if self == nil {
					return 0, fmt.Errorf("javaapi: StringBuffer.append on nil receiver")
				}
				b, ok := self.Extra.(*strings.Builder)
				if !ok {
					b = &strings.Builder{}
					self.Extra = b
				}
				if len(args) > 0 {
					s, _ := env.StringValue(args[0])
					b.WriteString(s)
				}
				return env.Store(self), nil
			}},
			{Name: "toString", Descriptor: "()Ljava/lang/String;", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				var s string
				if self != nil {
					if b, ok := self.Extra.(*strings.Builder); ok {
						s = b.String()
					}
				}
				return env.NewString(s), nil
			}},
		},
	}
}

func threadProto() ClassProto {
	return ClassProto{
		Name:       "java/lang/Thread",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "<init>", Descriptor: "()V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return 0, nil
			}},
			// start is a stub: running a thread's run() method requires
			// reentering the hosted JVM's bytecode interpreter, which
			// this package does not implement (spec §4.7, C7 is an
			// external collaborator). It returns without running it.
			{Name: "start", Descriptor: "()V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return 0, nil
			}},
			{Name: "sleep", Descriptor: "(J)V", AccessFlags: AccStatic, Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return 0, nil
			}},
		},
	}
}

func systemProto() ClassProto {
	return ClassProto{
		Name: "java/lang/System",
		Methods: []MethodProto{
			{Name: "currentTimeMillis", Descriptor: "()J", AccessFlags: AccStatic, Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				// Truncated to 32 bits: jvm.Value has no 64-bit variant
				// (spec §3.1's ARM calling convention packs wide
				// results as r0/r1 pairs, outside this interface).
				return jvm.Value(uint32(env.Facade.Now().UnixMilli())), nil
			}},
			{Name: "getProperty", Descriptor: "(Ljava/lang/String;)Ljava/lang/String;", AccessFlags: AccStatic, Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if len(args) == 0 {
					return 0, nil
				}
				key, _ := env.StringValue(args[0])
				return env.NewString(key), nil
			}},
		},
	}
}

func classProto() ClassProto {
	return ClassProto{
		Name:       "java/lang/Class",
		ParentName: "java/lang/Object",
		Fields: []FieldProto{
			{Name: "name", Descriptor: "Ljava/lang/String;"},
		},
		Methods: []MethodProto{
			{Name: "getName", Descriptor: "()Ljava/lang/String;", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if self == nil {
					return 0, nil
				}
				return self.fields[classNameFieldKey], nil
			}},
		},
	}
}

// classNameFieldKey matches the private "name" field declared above,
// so native code that materializes a Class instance can set it
// directly via the fields map without going through PutField's
// jvm.Field indirection.
const classNameFieldKey = "name:Ljava/lang/String;"

func runtimeProto() ClassProto {
	return ClassProto{
		Name:       "java/lang/Runtime",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "getRuntime", Descriptor: "()Ljava/lang/Runtime;", AccessFlags: AccStatic, Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				inst, err := env.Registry.NewInstance("java/lang/Runtime")
				if err != nil {
					return 0, err
				}
				return env.Store(inst), nil
			}},
			{Name: "totalMemory", Descriptor: "()J", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return jvm.Value(16 * 1024 * 1024), nil
			}},
			{Name: "freeMemory", Descriptor: "()J", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return jvm.Value(8 * 1024 * 1024), nil
			}},
			{Name: "gc", Descriptor: "()V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return 0, nil
			}},
		},
	}
}

func exceptionProto() ClassProto {
	return ClassProto{
		Name:       "java/lang/Exception",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "<init>", Descriptor: "()V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return 0, nil
			}},
			{Name: "<init>", Descriptor: "(Ljava/lang/String;)V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if self != nil && len(args) > 0 {
					msg, _ := env.StringValue(args[0])
					self.Extra = msg
				}
				return 0, nil
			}},
			{Name: "getMessage", Descriptor: "()Ljava/lang/String;", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return env.NewString(selfString(self)), nil
			}},
		},
	}
}
