package wipic

import "github.com/zboralski/wie/internal/bridge"

// mediaTable implements SMAF playback and leaves the rest of the media
// surface as stubs returning success (spec §4.8 "Media: load compressed
// audio (SMAF) and play through the host sink; most operations are
// stubs that return success").
func mediaTable(ctx MediaContext) Table {
	const size = 8
	funcs := make([]bridge.HostFunc, size)
	for i := range funcs {
		funcs[i] = logStub("media", i)
	}
	funcs[0] = mediaPlaySMAF(ctx)
	return Table{Name: "media", Funcs: funcs}
}

func mediaPlaySMAF(ctx MediaContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		ptr, err := c.U32()
		if err != nil {
			return nil, err
		}
		size, err := c.U32()
		if err != nil {
			return nil, err
		}
		data := make([]byte, size)
		if err := c.Engine().ReadBytes(ptr, data); err != nil {
			return nil, err
		}
		if err := ctx.PlaySMAF(data); err != nil {
			return nil, err
		}
		return bridge.U32Result(0), nil
	}
}
