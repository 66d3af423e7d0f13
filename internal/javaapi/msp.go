package javaapi

import (
	"context"

	"github.com/zboralski/wie/internal/jvm"
	"github.com/zboralski/wie/internal/wipic"
)

func mspProtos() []ClassProto {
	return []ClassProto{
		dataBaseProto(),
		fileProto(),
		clipProto(),
		lwcComponentProto(),
		handsetPropertyProto(),
	}
}

// dataBaseProto implements org.kwis.msp.db.DataBase over the running
// Facade's record store (spec §4.8 "Database: open/close named stores
// ... CRUD by record id, list, stub read/write of single-record
// convenience operations"; grounded on the original's
// org/kwis/msp/db/data_base.rs, whose openDataBase/insertRecord/
// selectRecord map directly onto Facade's store operations).
func dataBaseProto() ClassProto {
	return ClassProto{
		Name:       "org/kwis/msp/db/DataBase",
		ParentName: "java/lang/Object",
		Fields: []FieldProto{
			{Name: "handle", Descriptor: "I"},
		},
		Methods: []MethodProto{
			{Name: "<init>", Descriptor: "()V", Body: noop},
			{Name: "openDataBase", Descriptor: "(Ljava/lang/String;IZ)V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if self == nil || len(args) == 0 {
					return 0, nil
				}
				name, _ := env.StringValue(args[0])
				h, err := env.Facade.OpenStore(name)
				if err != nil {
					return 0, err
				}
				self.fields[dbHandleFieldKey] = jvm.Value(h)
				return 0, nil
			}},
			{Name: "closeDataBase", Descriptor: "()V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return 0, env.Facade.CloseStore(self.storeHandle())
			}},
			{Name: "getNumberOfRecords", Descriptor: "()I", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return jvm.Value(len(env.Facade.ListRecords(self.storeHandle()))), nil
			}},
			{Name: "insertRecord", Descriptor: "([B)I", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				data, _ := env.ByteArrayValue(argOrZero(args, 0))
				id, err := env.Facade.WriteRecord(self.storeHandle(), 0, data)
				if err != nil {
					return 0, err
				}
				return jvm.Value(id), nil
			}},
			{Name: "selectRecord", Descriptor: "(I)[B", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if len(args) == 0 {
					return 0, nil
				}
				data, ok := env.Facade.ReadRecord(self.storeHandle(), int32(args[0]))
				if !ok {
					return 0, nil
				}
				return env.NewByteArray(data), nil
			}},
			{Name: "deleteRecord", Descriptor: "(I)V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if len(args) == 0 {
					return 0, nil
				}
				return 0, env.Facade.DeleteRecord(self.storeHandle(), int32(args[0]))
			}},
		},
	}
}

const dbHandleFieldKey = "handle:I"

func (i *Instance) storeHandle() wipic.StoreHandle {
	if i == nil {
		return 0
	}
	return wipic.StoreHandle(i.fields[dbHandleFieldKey])
}

func argOrZero(args []jvm.Value, i int) jvm.Value {
	if i < len(args) {
		return args[i]
	}
	return 0
}

// NewByteArray allocates a byte-array-backed instance carrying data.
func (e *Env) NewByteArray(data []byte) jvm.Value {
	inst, err := e.Registry.NewInstance("[B")
	if err != nil {
		return 0
	}
	inst.Extra = append([]byte(nil), data...)
	return e.Store(inst)
}

// ByteArrayValue reads the bytes behind a [B handle.
func (e *Env) ByteArrayValue(v jvm.Value) ([]byte, bool) {
	inst, ok := e.Load(v)
	if !ok {
		return nil, false
	}
	b, ok := inst.Extra.([]byte)
	return b, ok
}

func fileProto() ClassProto {
	return ClassProto{
		Name:       "org/kwis/msp/io/File",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "<init>", Descriptor: "(Ljava/lang/String;)V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if self != nil && len(args) > 0 {
					path, _ := env.StringValue(args[0])
					self.Extra = path
				}
				return 0, nil
			}},
			{Name: "exists", Descriptor: "()Z", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				path := selfString(self)
				if _, ok := env.Facade.Filesystem().Get(path); ok {
					return 1, nil
				}
				return 0, nil
			}},
			{Name: "sizeOf", Descriptor: "()I", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				data, ok := env.Facade.Filesystem().Get(selfString(self))
				if !ok {
					return 0, nil
				}
				return jvm.Value(len(data)), nil
			}},
		},
	}
}

// clipProto implements org.kwis.msp.media.Clip, a thin wrapper over
// Facade's SMAF audio sink (spec §4.8 "Media: load compressed audio
// (SMAF) and play through the host sink; most operations are stubs
// that return success").
func clipProto() ClassProto {
	return ClassProto{
		Name:       "org/kwis/msp/media/Clip",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "<init>", Descriptor: "([B)V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if self != nil && len(args) > 0 {
					data, _ := env.ByteArrayValue(args[0])
					self.Extra = data
				}
				return 0, nil
			}},
			{Name: "play", Descriptor: "(I)V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				data, _ := self.Extra.([]byte)
				return 0, env.Facade.PlaySMAF(data)
			}},
			{Name: "stop", Descriptor: "()V", Body: noop},
		},
	}
}

// lwcComponentProto stubs org.kwis.msp.lwc's lightweight-widget base
// class: layout and focus operations the emulator does not model are
// no-op stubs returning success; they do not log.
func lwcComponentProto() ClassProto {
	return ClassProto{
		Name:       "org/kwis/msp/lwc/Component",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "<init>", Descriptor: "()V", Body: noop},
			{Name: "setVisible", Descriptor: "(Z)V", Body: noop},
			{Name: "repaint", Descriptor: "()V", Body: noop},
		},
	}
}

func handsetPropertyProto() ClassProto {
	return ClassProto{
		Name:       "org/kwis/msp/handset/HandsetProperty",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "getSystemProperty", Descriptor: "(Ljava/lang/String;)Ljava/lang/String;", AccessFlags: AccStatic, Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if len(args) == 0 {
					return 0, nil
				}
				key, _ := env.StringValue(args[0])
				return env.NewString(key), nil
			}},
		},
	}
}
