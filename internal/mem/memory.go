// Package mem implements the byte memory API (spec C5) shared by every
// subsystem that touches the emulated address space, and the first-fit
// heap allocator (spec C2) carved out of it.
//
// Addresses into emulated memory are always plain uint32 values, never
// host pointers — callers read and write through ByteReader/ByteWriter,
// there is no "dereference" primitive. This keeps host memory safety
// independent of whatever the emulated code does.
package mem

import (
	"encoding/binary"
	"fmt"

	"github.com/zboralski/wie/internal/wieerr"
)

// ByteReader reads raw bytes from an emulated address space.
type ByteReader interface {
	ReadBytes(addr uint32, buf []byte) error
}

// ByteWriter writes raw bytes to an emulated address space.
type ByteWriter interface {
	WriteBytes(addr uint32, data []byte) error
}

// ByteReadWriter is the combined capability most subsystems depend on.
type ByteReadWriter interface {
	ByteReader
	ByteWriter
}

// ReadU32 reads a little-endian 32-bit word.
func ReadU32(r ByteReader, addr uint32) (uint32, error) {
	var buf [4]byte
	if err := r.ReadBytes(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// WriteU32 writes a little-endian 32-bit word.
func WriteU32(w ByteWriter, addr uint32, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return w.WriteBytes(addr, buf[:])
}

// ReadU16 reads a little-endian 16-bit half-word.
func ReadU16(r ByteReader, addr uint32) (uint16, error) {
	var buf [2]byte
	if err := r.ReadBytes(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// WriteU16 writes a little-endian 16-bit half-word.
func WriteU16(w ByteWriter, addr uint32, v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return w.WriteBytes(addr, buf[:])
}

// ReadU64 reads a little-endian 64-bit double-word.
func ReadU64(r ByteReader, addr uint32) (uint64, error) {
	var buf [8]byte
	if err := r.ReadBytes(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// WriteU64 writes a little-endian 64-bit double-word.
func WriteU64(w ByteWriter, addr uint32, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return w.WriteBytes(addr, buf[:])
}

// ReadCString reads a NUL-terminated ASCII/UTF-8 string starting at addr.
// Used for internal names (symbol names, full method/field names); see
// system.Codec.Decode for application text, which uses the EUC-KR charset.
func ReadCString(r ByteReader, addr uint32) (string, error) {
	var out []byte
	var chunk [32]byte
	for cursor := addr; ; cursor += uint32(len(chunk)) {
		if err := r.ReadBytes(cursor, chunk[:]); err != nil {
			return "", err
		}
		if idx := indexZero(chunk[:]); idx >= 0 {
			out = append(out, chunk[:idx]...)
			return string(out), nil
		}
		out = append(out, chunk[:]...)
		if len(out) > 1<<20 {
			return "", wieerr.Fatal("read_cstr: string exceeds 1MiB without NUL terminator")
		}
	}
}

// WriteCString writes s followed by a NUL terminator.
func WriteCString(w ByteWriter, addr uint32, s string) error {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return w.WriteBytes(addr, buf)
}

func indexZero(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}

// ReadNullTerminatedTable reads a sequence of uint32 values terminated by
// a zero element — used for KTF method/field tables and class lists.
func ReadNullTerminatedTable(r ByteReader, addr uint32) ([]uint32, error) {
	var out []uint32
	for cursor := addr; ; cursor += 4 {
		v, err := ReadU32(r, cursor)
		if err != nil {
			return nil, err
		}
		if v == 0 {
			return out, nil
		}
		out = append(out, v)
		if len(out) > 1<<16 {
			return nil, wieerr.Fatal("read_null_terminated_table: exceeds 64k entries without terminator")
		}
	}
}

// WriteNullTerminatedTable writes xs followed by a zero terminator word.
// xs must not contain a zero element.
func WriteNullTerminatedTable(w ByteWriter, addr uint32, xs []uint32) error {
	cursor := addr
	for _, v := range xs {
		if v == 0 {
			return wieerr.Fatal(fmt.Sprintf("write_null_terminated_table: zero element at offset %d", cursor-addr))
		}
		if err := WriteU32(w, cursor, v); err != nil {
			return err
		}
		cursor += 4
	}
	return WriteU32(w, cursor, 0)
}
