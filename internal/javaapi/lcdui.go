package javaapi

import (
	"context"

	"github.com/zboralski/wie/internal/event"
	"github.com/zboralski/wie/internal/jvm"
	"github.com/zboralski/wie/internal/wipic"
)

// displayState is the Extra payload of an org.kwis.msp.lcdui.Display
// singleton: which Card is current and the framebuffer it renders to.
type displayState struct {
	current     jvm.Value // handle to the current Card instance, 0 if none
	framebuffer wipic.FramebufferHandle
}

func lcdUIProtos() []ClassProto {
	return []ClassProto{
		jletProto(),
		displayProto(),
		cardProto(),
		graphicsProto(),
		imageProto(),
		fontProto(),
		eventQueueProto(),
		mainProto(),
	}
}

func jletProto() ClassProto {
	return ClassProto{
		Name:       "org/kwis/msp/lcdui/Jlet",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "<init>", Descriptor: "()V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return 0, nil
			}},
			// startApp/pauseApp/destroyApp are overridden by application
			// subclasses; the base implementation is a no-op lifecycle
			// hook (spec §4.9 "thin wrappers over the runtime library").
			{Name: "startApp", Descriptor: "()V", Body: noop},
			{Name: "pauseApp", Descriptor: "()V", Body: noop},
			{Name: "destroyApp", Descriptor: "(Z)V", Body: noop},
		},
	}
}

func displayProto() ClassProto {
	return ClassProto{
		Name:       "org/kwis/msp/lcdui/Display",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "getDisplay", Descriptor: "(Lorg/kwis/msp/lcdui/Jlet;)Lorg/kwis/msp/lcdui/Display;", AccessFlags: AccStatic, Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return env.display(), nil
			}},
			{Name: "pushCard", Descriptor: "(Lorg/kwis/msp/lcdui/Card;)V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if self == nil {
					return 0, nil
				}
				st, _ := self.Extra.(*displayState)
				if st == nil {
					st = &displayState{}
					self.Extra = st
				}
				if len(args) > 0 {
					st.current = args[0]
				}
				env.Facade.Events().Push(event.Redraw())
				return 0, nil
			}},
			{Name: "getCurrent", Descriptor: "()Lorg/kwis/msp/lcdui/Card;", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if self == nil {
					return 0, nil
				}
				st, _ := self.Extra.(*displayState)
				if st == nil {
					return 0, nil
				}
				return st.current, nil
			}},
		},
	}
}

// display lazily creates the one Display singleton this native
// registry ever hands out.
func (e *Env) display() jvm.Value {
	e.mu.Lock()
	for _, inst := range e.handles {
		if inst.class.Name() == "org/kwis/msp/lcdui/Display" {
			e.mu.Unlock()
			return e.Store(inst)
		}
	}
	e.mu.Unlock()
	inst, err := e.Registry.NewInstance("org/kwis/msp/lcdui/Display")
	if err != nil {
		return 0
	}
	inst.Extra = &displayState{}
	return e.Store(inst)
}

func cardProto() ClassProto {
	return ClassProto{
		Name:       "org/kwis/msp/lcdui/Card",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "<init>", Descriptor: "()V", Body: noop},
		},
	}
}

func graphicsProto() ClassProto {
	return ClassProto{
		Name:       "org/kwis/msp/lcdui/Graphics",
		ParentName: "java/lang/Object",
		Fields: []FieldProto{
			{Name: "color", Descriptor: "I"},
		},
		Methods: []MethodProto{
			{Name: "<init>", Descriptor: "()V", Body: noop},
			{Name: "setColor", Descriptor: "(I)V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				if self != nil && len(args) > 0 {
					self.fields[colorFieldKey] = args[0]
				}
				return 0, nil
			}},
			{Name: "fillRect", Descriptor: "(IIII)V", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				fb, ok := self.framebuffer()
				if !ok || len(args) < 4 {
					return 0, nil
				}
				color := uint32(self.fields[colorFieldKey])
				err := env.Facade.FillRect(fb, int(int32(args[0])), int(int32(args[1])), int(int32(args[2])), int(int32(args[3])), color)
				return 0, err
			}},
		},
	}
}

const colorFieldKey = "color:I"

// framebuffer reads the wipic.FramebufferHandle a Graphics or Image
// instance was constructed against, set directly via Extra by
// whichever wiring code binds it to the Display's primary back-buffer.
func (i *Instance) framebuffer() (wipic.FramebufferHandle, bool) {
	if i == nil {
		return 0, false
	}
	fb, ok := i.Extra.(wipic.FramebufferHandle)
	return fb, ok
}

func imageProto() ClassProto {
	return ClassProto{
		Name:       "org/kwis/msp/lcdui/Image",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "getWidth", Descriptor: "()I", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				fb, ok := self.framebuffer()
				if !ok {
					return 0, nil
				}
				w, _, _, _ := env.Facade.FramebufferInfo(fb)
				return jvm.Value(w), nil
			}},
			{Name: "getHeight", Descriptor: "()I", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				fb, ok := self.framebuffer()
				if !ok {
					return 0, nil
				}
				_, h, _, _ := env.Facade.FramebufferInfo(fb)
				return jvm.Value(h), nil
			}},
		},
	}
}

func fontProto() ClassProto {
	return ClassProto{
		Name:       "org/kwis/msp/lcdui/Font",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "getDefaultFont", Descriptor: "()Lorg/kwis/msp/lcdui/Font;", AccessFlags: AccStatic, Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				inst, err := env.Registry.NewInstance("org/kwis/msp/lcdui/Font")
				if err != nil {
					return 0, err
				}
				return env.Store(inst), nil
			}},
			{Name: "getHeight", Descriptor: "()I", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return 12, nil
			}},
		},
	}
}

func eventQueueProto() ClassProto {
	return ClassProto{
		Name:       "org/kwis/msp/lcdui/EventQueue",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			// getNextEvent is a stub: it never blocks, returning 0
			// ("no event") immediately rather than suspending the
			// current task, since there is no bytecode interpreter
			// here to suspend (spec §4.7, C7 external).
			{Name: "getNextEvent", Descriptor: "()I", Body: func(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
				return 0, nil
			}},
		},
	}
}

func mainProto() ClassProto {
	return ClassProto{
		Name:       "org/kwis/msp/lcdui/Main",
		ParentName: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "main", Descriptor: "([Ljava/lang/String;)V", AccessFlags: AccStatic, Body: noop},
		},
	}
}

func noop(ctx context.Context, env *Env, self *Instance, args []jvm.Value) (jvm.Value, error) {
	return 0, nil
}
