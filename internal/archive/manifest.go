package archive

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/zboralski/wie/internal/system"
)

// manifestFields splits a line-oriented "Key: value" manifest (the
// __adf__, app_info, and .msd formats all use this shape) into a
// lookup table, decoding each line from EUC-KR first since vendor
// manifests carry Korean app names (spec §4.5).
func manifestFields(data []byte) (map[string]string, error) {
	codec := system.NewCodec()
	fields := make(map[string]string)

	for _, raw := range bytes.Split(data, []byte("\n")) {
		raw = bytes.TrimRight(raw, "\r")
		if len(raw) == 0 {
			continue
		}
		idx := bytes.IndexByte(raw, ':')
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(string(raw[:idx]))
		value, err := codec.Decode(bytes.TrimSpace(raw[idx+1:]))
		if err != nil {
			return nil, fmt.Errorf("manifest: decode %s: %w", key, err)
		}
		fields[key] = value
	}
	return fields, nil
}
