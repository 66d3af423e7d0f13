// Package debugrpc exposes a narrow, read-only Connect RPC surface for
// inspecting a running emulator from outside the process: register
// state, a bounded memory window, and the live task list. It answers
// cmd/wie's --debug-listen flag; nothing in the emulator itself depends
// on it.
//
// There is no .proto source to generate handlers from here, so requests
// and responses are plain google.golang.org/protobuf/types/known/structpb
// structs rather than a hand-maintained message type — the RPC surface
// is small and change-tolerant enough that a fixed schema would only add
// ceremony.
package debugrpc

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/zboralski/wie/internal/system"
)

const (
	// DumpRegistersProcedure answers with every general-purpose register
	// plus pc/sp/lr.
	DumpRegistersProcedure = "/wie.debugrpc.v1.Debug/DumpRegisters"
	// ReadMemoryProcedure answers with a hex-encoded byte range, capped
	// at maxReadLen bytes per call.
	ReadMemoryProcedure = "/wie.debugrpc.v1.Debug/ReadMemory"
	// ListTasksProcedure answers with the executor's live task ids and
	// their sleep state.
	ListTasksProcedure = "/wie.debugrpc.v1.Debug/ListTasks"
)

// maxReadLen bounds ReadMemory so a single misbehaving client can't pull
// the whole address space through one call.
const maxReadLen = 4096

// Registers is the register-file slice of *arm.Engine DumpRegisters
// needs, expressed as an interface so this package does not import
// internal/arm directly.
type Registers interface {
	Reg(n int) uint32
	PC() uint32
	SP() uint32
	LR() uint32
}

var generalRegisters = []string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"r8", "r9", "r10", "r11", "r12",
}

// Server answers introspection requests against one running emulator
// instance. It never mutates facade or regs.
type Server struct {
	facade *system.Facade
	regs   Registers
}

// New builds a Server reading memory and task state through facade and
// registers through regs.
func New(facade *system.Facade, regs Registers) *Server {
	return &Server{facade: facade, regs: regs}
}

// Handler mounts all three RPCs on a fresh *http.ServeMux. Connect's
// unary protocol runs over plain HTTP/1.1, so no h2c upgrade is needed
// for this read-only surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(DumpRegistersProcedure, connect.NewUnaryHandler(DumpRegistersProcedure, s.dumpRegisters))
	mux.Handle(ReadMemoryProcedure, connect.NewUnaryHandler(ReadMemoryProcedure, s.readMemory))
	mux.Handle(ListTasksProcedure, connect.NewUnaryHandler(ListTasksProcedure, s.listTasks))
	return mux
}

// Serve runs an HTTP server on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) dumpRegisters(_ context.Context, _ *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	fields := make(map[string]any, len(generalRegisters)+3)
	for i, name := range generalRegisters {
		fields[name] = float64(s.regs.Reg(i))
	}
	fields["pc"] = float64(s.regs.PC())
	fields["sp"] = float64(s.regs.SP())
	fields["lr"] = float64(s.regs.LR())

	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

func (s *Server) readMemory(_ context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	addrField, ok := req.Msg.Fields["addr"]
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("debugrpc: missing %q field", "addr"))
	}
	lenField, ok := req.Msg.Fields["len"]
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("debugrpc: missing %q field", "len"))
	}

	addr := uint32(addrField.GetNumberValue())
	length := uint32(lenField.GetNumberValue())
	if length > maxReadLen {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("debugrpc: len %d exceeds the %d-byte read cap", length, maxReadLen))
	}

	buf := make([]byte, length)
	if err := s.facade.ReadBytes(addr, buf); err != nil {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}

	out, err := structpb.NewStruct(map[string]any{
		"addr": float64(addr),
		"data": hex.EncodeToString(buf),
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

func (s *Server) listTasks(_ context.Context, _ *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	snap := s.facade.Executor().Snapshot()
	tasks := make([]any, 0, len(snap))
	for _, t := range snap {
		tasks = append(tasks, map[string]any{
			"id":       float64(t.ID),
			"sleeping": t.Sleeping,
		})
	}

	out, err := structpb.NewStruct(map[string]any{"tasks": tasks})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}
