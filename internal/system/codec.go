package system

import (
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
)

// Codec converts between the EUC-KR encoding used for application text
// and Go's native UTF-8 strings (spec §4.5 "Strings are decoded
// EUC-KR→UTF-8 for application text (Korean locale) and ASCII for
// internal names").
type Codec struct{}

// NewCodec creates an EUC-KR/UTF-8 codec.
func NewCodec() *Codec { return &Codec{} }

// Decode converts EUC-KR bytes (as stored in a class file's UTF-8-ish
// string constants or a record store payload) to a UTF-8 Go string.
// Bytes that are already plain ASCII round-trip unchanged, since EUC-KR
// is ASCII-compatible in its single-byte range.
func (Codec) Decode(b []byte) (string, error) {
	out, err := korean.EUCKR.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Encode converts a UTF-8 Go string back to EUC-KR bytes, for writing
// application-visible text (e.g. record store payloads a MIDlet expects
// to read back in its own encoding).
func (Codec) Encode(s string) ([]byte, error) {
	return korean.EUCKR.NewEncoder().Bytes([]byte(s))
}

// DecodeUTF16BE decodes a UTF-16BE char[] payload, the in-memory form
// JVM char arrays and java.lang.String backing arrays use.
func (Codec) DecodeUTF16BE(b []byte) (string, error) {
	out, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
