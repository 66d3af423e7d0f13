// Command wie runs a Korean feature-phone application archive (KTF,
// LGT, SKT, or a plain MIDlet jar) under emulation.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zboralski/wie/internal/archive"
	"github.com/zboralski/wie/internal/arm"
	"github.com/zboralski/wie/internal/bridge"
	"github.com/zboralski/wie/internal/config"
	"github.com/zboralski/wie/internal/debugrpc"
	"github.com/zboralski/wie/internal/hostwindow"
	"github.com/zboralski/wie/internal/javaapi"
	"github.com/zboralski/wie/internal/ktf"
	"github.com/zboralski/wie/internal/log"
	"github.com/zboralski/wie/internal/mem"
	"github.com/zboralski/wie/internal/system"
)

var (
	debug        bool
	configPath   string
	debugRPCAddr string
	traceEnabled bool
	traceMax     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wie <archive>",
		Short: "Run a KTF/LGT/SKT/MIDlet archive under emulation",
		Long: `wie loads a Korean feature-phone application archive, detects which of the
four distribution formats it is (KTF, LGT, SKT, or a plain MIDlet jar),
and runs it: KTF archives carry a vendor-native binary whose entrypoint
wie runs on its ARM engine; an LGT archive's native binary is mapped
into the ARM engine's memory but not executed; SKT and plain-jar archives carry
only JVM bytecode, which wie inspects but does not execute, since
bytecode interpretation is an external collaborator this module does
not implement.`,
		Args:                  cobra.ExactArgs(1),
		DisableFlagsInUseLine: true,
		RunE:                  runApp,
	}
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a wie.yaml config file")
	rootCmd.PersistentFlags().StringVar(&debugRPCAddr, "debug-listen", "", "address to serve the read-only debug RPC service on")
	rootCmd.PersistentFlags().BoolVar(&traceEnabled, "trace", false, "print a colorized ARM/Thumb disassembly trace to stdout")
	rootCmd.PersistentFlags().IntVar(&traceMax, "trace-max", 2000, "max instructions to print when --trace is set (0 = unlimited)")

	infoCmd := &cobra.Command{
		Use:   "info <archive>",
		Short: "Show detected archive format and application identity",
		Args:  cobra.ExactArgs(1),
		RunE:  showInfo,
	}
	rootCmd.AddCommand(infoCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadApp(path string) (*archive.App, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wie: read %s: %w", path, err)
	}
	return archive.Load(data)
}

func showInfo(cmd *cobra.Command, args []string) error {
	app, err := loadApp(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("format:     %s\n", app.Format)
	fmt.Printf("app id:     %s\n", app.ID)
	fmt.Printf("main class: %s\n", app.MainClass)
	if app.VendorBinary != nil {
		fmt.Printf("vendor binary: %d bytes\n", len(app.VendorBinary))
	}
	if app.BSSSize != 0 {
		fmt.Printf("bss size:   %#x\n", app.BSSSize)
	}
	fmt.Printf("jar:        %d bytes\n", len(app.JarData))
	fmt.Printf("files:      %d\n", len(app.Files))
	return nil
}

func runApp(cmd *cobra.Command, args []string) error {
	log.Init(debug)
	session := uuid.New()
	log.L = log.L.WithSession(session)

	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return err
	}
	if debugRPCAddr != "" {
		cfg.DebugRPCAddr = debugRPCAddr
	}

	app, err := loadApp(args[0])
	if err != nil {
		return err
	}

	identity := system.Identity{
		AppID:     app.ID,
		MainClass: app.MainClass,
		JarPath:   args[0],
	}

	engine, err := arm.New()
	if err != nil {
		return fmt.Errorf("wie: init ARM engine: %w", err)
	}
	defer engine.Close()

	if traceEnabled {
		installTrace(engine, traceMax)
	}

	alloc, err := mem.NewAllocator(engine, arm.HeapBase, arm.HeapSize)
	if err != nil {
		return fmt.Errorf("wie: init heap: %w", err)
	}

	facade := system.New(engine, alloc, identity)
	archive.Mount(facade.Filesystem(), app)

	registry := javaapi.NewRegistry(facade)

	switch app.Format {
	case archive.FormatKTF:
		if err := runKTF(engine, alloc, facade, registry, app); err != nil {
			return err
		}
	case archive.FormatLGT:
		if err := runLGT(engine, app); err != nil {
			return err
		}
	default:
		log.L.Warn("wie: " + app.Format.String() + " archives carry only JVM bytecode; " +
			"no bytecode interpreter is wired into this build, so the application will not run. " +
			"Use `wie info` to inspect it instead.")
		return nil
	}

	if cfg.DebugRPCAddr != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		rpc := debugrpc.New(facade, engine)
		go func() {
			if err := rpc.Serve(ctx, cfg.DebugRPCAddr); err != nil {
				log.L.Warn("wie: debug RPC server stopped: " + err.Error())
			}
		}()
		log.L.Info("wie: debug RPC listening on " + cfg.DebugRPCAddr)
	}

	return hostwindow.New(facade, cfg).Run()
}

// runKTF maps the vendor binary into the engine's image region and runs
// the two-stage entrypoint protocol (spec §6), wiring the seven host
// callbacks the vendor binary calls back into for object/class
// operations, then installs the resulting vendor class loader as the
// javaapi registry's fallback resolver (spec's supplemented
// net.wie.KtfClassLoader feature: native classes first, vendor classes
// through get_class otherwise).
func runKTF(engine *arm.Engine, alloc *mem.Allocator, facade *system.Facade, registry *javaapi.Registry, app *archive.App) error {
	if err := engine.WriteBytes(arm.ImageBase, app.VendorBinary); err != nil {
		return fmt.Errorf("wie: map vendor binary: %w", err)
	}

	br := bridge.New(engine)
	vtables := ktf.NewVtableRegistry()

	// jvmCtx is scratch memory for the JVM bridge context struct the
	// vendor binary populates during init; its address is recorded at
	// the PEB slot spec §3 names ptr_java_context_data.
	jvmCtx, err := alloc.Alloc(64)
	if err != nil {
		return fmt.Errorf("wie: alloc JVM context: %w", err)
	}

	var vendorBridge *ktf.Bridge
	cb := ktf.Callbacks{
		GetInterface: func(c *bridge.Call) (bridge.Result, error) {
			// No further host interfaces beyond the seven callbacks
			// already supplied are exposed (spec §6 is silent on
			// GetInterface's other uses; 0 is its "not supplied"
			// sentinel, matching the vendor binary's own init-time check).
			return bridge.U32Result(0), nil
		},
		JavaThrow: func(c *bridge.Call) (bridge.Result, error) {
			excPtr, err := c.U32()
			if err != nil {
				return nil, err
			}
			log.L.Warn(fmt.Sprintf("wie: uncaught Java exception at instance %#x (no bytecode interpreter to unwind into)", excPtr))
			return bridge.Unit{}, nil
		},
		JavaCheckType: func(c *bridge.Call) (bridge.Result, error) {
			instPtr, err := c.U32()
			if err != nil {
				return nil, err
			}
			classPtr, err := c.U32()
			if err != nil {
				return nil, err
			}
			inst := vendorBridge.InstanceFromRaw(instPtr)
			def, ok := inst.ClassDefinition().(*ktf.Class)
			if !ok {
				return bridge.U32Result(0), nil
			}
			// Exact-class comparison only: a full instanceof walk would
			// follow ParentName() up the hierarchy, which the vendor
			// binary's own RawClass.PtrParent already encodes, but
			// nothing here needs interface-table matching yet.
			if def.Ptr() == classPtr {
				return bridge.U32Result(1), nil
			}
			return bridge.U32Result(0), nil
		},
		JavaNew: func(c *bridge.Call) (bridge.Result, error) {
			classPtr, err := c.U32()
			if err != nil {
				return nil, err
			}
			inst, err := ktf.NewInstance(alloc, vendorBridge, vendorBridge.FromRaw(classPtr))
			if err != nil {
				return nil, err
			}
			return bridge.U32Result(uint32(inst.HashCode())), nil
		},
		JavaArrayNew: func(c *bridge.Call) (bridge.Result, error) {
			classPtr, err := c.U32()
			if err != nil {
				return nil, err
			}
			inst, err := ktf.NewInstance(alloc, vendorBridge, vendorBridge.FromRaw(classPtr))
			if err != nil {
				return nil, err
			}
			return bridge.U32Result(uint32(inst.HashCode())), nil
		},
		JavaClassLoad: func(c *bridge.Call) (bridge.Result, error) {
			name, err := c.String()
			if err != nil {
				return nil, err
			}
			if _, ok := registry.Lookup(name); ok {
				// Native classes live in Go, not emulated memory; the
				// vendor binary only dereferences this result when it
				// isn't one of its own classes, so 0 is safe here too.
				return bridge.U32Result(0), nil
			}
			if vendorBridge == nil {
				return nil, fmt.Errorf("wie: java_class_load(%q) called before the vendor get_class trampoline was established", name)
			}
			def, err := vendorBridge.ResolveClass(context.Background(), name)
			if err != nil {
				return nil, err
			}
			return bridge.U32Result(def.(*ktf.Class).Ptr()), nil
		},
		Alloc: func(c *bridge.Call) (bridge.Result, error) {
			size, err := c.U32()
			if err != nil {
				return nil, err
			}
			ptr, err := alloc.Alloc(size)
			if err != nil {
				return nil, err
			}
			return bridge.U32Result(ptr), nil
		},
	}

	entryAddr := arm.ImageBase | 1 // Thumb bit set, per the vendor ABI's calling convention
	program, err := ktf.Init(engine, alloc, br, entryAddr, app.BSSSize, jvmCtx, cb)
	if err != nil {
		return fmt.Errorf("wie: ktf init: %w", err)
	}

	if err := ktf.WriteJavaContextData(engine, arm.PEBBase, jvmCtx); err != nil {
		return fmt.Errorf("wie: write PEB: %w", err)
	}

	getClass := ktf.VendorGetClass(engine, alloc, program.FnGetClass)
	vendorBridge = ktf.NewBridge(engine, vtables, getClass)
	registry.Env().VendorResolver = vendorBridge

	log.L.Info(fmt.Sprintf("wie: ktf app %q initialized (fn_init=%#x, fn_get_class=%#x)", app.ID, program.FnInit, program.FnGetClass))
	return nil
}

// runLGT maps an LGT archive's ARMv4T ET_EXEC binary.mod at its load
// address and writes the flattened image into it. It does not start
// execution at the entry point; the entry address is only logged.
func runLGT(engine *arm.Engine, app *archive.App) error {
	img, err := archive.LoadELF(app.VendorBinary)
	if err != nil {
		return fmt.Errorf("wie: load LGT binary: %w", err)
	}
	if err := engine.MapRegion(img.LoadBase, img.ImageSize); err != nil {
		return fmt.Errorf("wie: map LGT image: %w", err)
	}
	if err := engine.WriteBytes(img.LoadBase, img.Data); err != nil {
		return fmt.Errorf("wie: write LGT image: %w", err)
	}
	log.L.Info(fmt.Sprintf("wie: lgt app %q mapped at %#x, entry %#x", app.ID, img.LoadBase, img.EntryPoint))
	return nil
}
