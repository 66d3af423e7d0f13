package ktf

import (
	"fmt"

	"github.com/zboralski/wie/internal/arm"
	"github.com/zboralski/wie/internal/bridge"
	"github.com/zboralski/wie/internal/log"
	"github.com/zboralski/wie/internal/mem"
)

// Vendor ABI word counts for the two-stage entrypoint protocol (spec §6
// "Param4 supplies callbacks"; supplemented from the original's
// runtime/init.rs calling sequence and kernel/init.rs struct layout —
// neither is visible from spec.md's distillation alone).
const (
	wipiExeWords                 = 10
	wipiExePtrExeInterfaceIndex  = 0
	wipiExeFnInitIndex           = 5

	exeInterfaceWords             = 8
	exeInterfacePtrFunctionsIndex = 0

	exeInterfaceFunctionsWords  = 7
	exeInterfaceFnInitIndex     = 2
	exeInterfaceFnGetClassIndex = 4

	initParam0Words = 1
	initParam1Words = 1
	initParam3Words = 12
	initParam4Words = 12
)

// Callbacks supplies the seven host functions the vendor binary calls
// back into, both during init (GetInterface) and for the lifetime of
// the running app (the rest), letting emulated code allocate Java
// objects/arrays and load classes without a round-trip through a
// WIPI-C method call.
type Callbacks struct {
	GetInterface  bridge.HostFunc
	JavaThrow     bridge.HostFunc
	JavaCheckType bridge.HostFunc
	JavaNew       bridge.HostFunc
	JavaArrayNew  bridge.HostFunc
	JavaClassLoad bridge.HostFunc
	Alloc         bridge.HostFunc
}

// register installs every non-nil callback as a trampoline and returns
// the resulting addresses in InitParam4 field order. A nil callback
// yields address 0, the vendor binary's "not supplied" sentinel.
func (cb Callbacks) register(br *bridge.Bridge) ([initParam4Words]uint32, error) {
	var words [initParam4Words]uint32

	install := func(idx int, name string, fn bridge.HostFunc) error {
		if fn == nil {
			return nil
		}
		addr, err := br.RegisterFunction(name, fn)
		if err != nil {
			return fmt.Errorf("ktf: register %s callback: %w", name, err)
		}
		words[idx] = addr
		return nil
	}

	if err := install(0, "get_interface", cb.GetInterface); err != nil {
		return words, err
	}
	if err := install(1, "java_throw", cb.JavaThrow); err != nil {
		return words, err
	}
	if err := install(4, "java_check_type", cb.JavaCheckType); err != nil {
		return words, err
	}
	if err := install(5, "java_new", cb.JavaNew); err != nil {
		return words, err
	}
	if err := install(6, "java_array_new", cb.JavaArrayNew); err != nil {
		return words, err
	}
	if err := install(8, "java_class_load", cb.JavaClassLoad); err != nil {
		return words, err
	}
	if err := install(11, "alloc", cb.Alloc); err != nil {
		return words, err
	}
	return words, nil
}

// Program is the result of running the entrypoint protocol: the two
// addresses the rest of the runtime needs going forward.
type Program struct {
	FnInit     uint32 // WipiExe.fn_init as read from WipiExe; Init does not call it
	FnGetClass uint32 // ExeInterfaceFunctions.fn_get_class, the class-loader trampoline
}

// Init runs the KTF two-stage entrypoint protocol (spec §6): the
// vendor binary's loaded entrypoint (base address + 1, Thumb bit set)
// returns a pointer to a WipiExe struct; its ExeInterface pointer leads
// to the ExeInterfaceFunctions table, whose fn_init is then invoked
// through the reentrant bridge with five parameters (param0, param1, a
// JVM context pointer, a primitive type-tag table, and the
// seven-callback param4) to complete initialization. WipiExe.fn_init is
// not called here; its address is returned in Program.FnInit.
func Init(engine *arm.Engine, alloc *mem.Allocator, br *bridge.Bridge, entryAddr, bssSize, jvmContextPtr uint32, cb Callbacks) (Program, error) {
	wipiExePtr, _, err := engine.RunFunction(entryAddr, []uint32{bssSize})
	if err != nil {
		return Program{}, fmt.Errorf("ktf: entrypoint: %w", err)
	}
	if log.L != nil {
		log.L.Debug(fmt.Sprintf("ktf: got wipi_exe at %#x", wipiExePtr))
	}

	ptrParam0, err := allocWords(alloc, engine, initParam0Words, []uint32{0})
	if err != nil {
		return Program{}, err
	}
	ptrParam1, err := allocWords(alloc, engine, initParam1Words, []uint32{0})
	if err != nil {
		return Program{}, err
	}
	ptrParam3, err := allocWords(alloc, engine, initParam3Words, primitiveTypeTags())
	if err != nil {
		return Program{}, err
	}

	callbackWords, err := cb.register(br)
	if err != nil {
		return Program{}, err
	}
	ptrParam4, err := allocWords(alloc, engine, initParam4Words, callbackWords[:])
	if err != nil {
		return Program{}, err
	}

	wipiExe, err := readWords(engine, wipiExePtr, wipiExeWords)
	if err != nil {
		return Program{}, fmt.Errorf("ktf: read WipiExe: %w", err)
	}

	exeInterface, err := readWords(engine, wipiExe[wipiExePtrExeInterfaceIndex], exeInterfaceWords)
	if err != nil {
		return Program{}, fmt.Errorf("ktf: read ExeInterface: %w", err)
	}

	functions, err := readWords(engine, exeInterface[exeInterfacePtrFunctionsIndex], exeInterfaceFunctionsWords)
	if err != nil {
		return Program{}, fmt.Errorf("ktf: read ExeInterfaceFunctions: %w", err)
	}

	fnInit := functions[exeInterfaceFnInitIndex]
	fnGetClass := functions[exeInterfaceFnGetClassIndex]

	if log.L != nil {
		log.L.Debug(fmt.Sprintf("ktf: call init at %#x", fnInit))
	}
	result, _, err := engine.RunFunction(fnInit, []uint32{ptrParam0, ptrParam1, jvmContextPtr, ptrParam3, ptrParam4})
	if err != nil {
		return Program{}, fmt.Errorf("ktf: init call: %w", err)
	}
	if result != 0 {
		return Program{}, fmt.Errorf("ktf: init failed with code %#x", result)
	}

	return Program{FnInit: wipiExe[wipiExeFnInitIndex], FnGetClass: fnGetClass}, nil
}

// primitiveTypeTags returns the 12-word InitParam3 payload: four unused
// slots followed by the ASCII tag the vendor binary uses for each JVM
// primitive descriptor character (boolean, char, float, double, byte,
// short, int, long), in that fixed order.
func primitiveTypeTags() []uint32 {
	return []uint32{
		0, 0, 0, 0,
		uint32('Z'), uint32('C'), uint32('F'), uint32('D'),
		uint32('B'), uint32('S'), uint32('I'), uint32('J'),
	}
}

func allocWords(alloc *mem.Allocator, w mem.ByteWriter, words int, values []uint32) (uint32, error) {
	ptr, err := alloc.Alloc(uint32(words) * 4)
	if err != nil {
		return 0, fmt.Errorf("ktf: alloc %d words: %w", words, err)
	}
	if err := writeWords(w, ptr, values); err != nil {
		return 0, err
	}
	return ptr, nil
}
