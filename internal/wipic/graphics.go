package wipic

import (
	"github.com/zboralski/wie/internal/bridge"
	"github.com/zboralski/wie/internal/mem"
)

// Pixel formats recognized by framebuffer creation (spec §4.8
// "Graphics": "bpp 16=RGB565 or 32=ARGB").
const (
	bppRGB565 = 16
	bppARGB   = 32
)

func graphicsTable(ctx GraphicsContext) Table {
	const size = 16
	funcs := make([]bridge.HostFunc, size)
	for i := range funcs {
		funcs[i] = genStub("graphics", i)
	}

	funcs[0] = graphicsCreateFramebuffer(ctx)
	funcs[1] = graphicsGetFramebufferInfo(ctx)
	funcs[2] = graphicsPutPixel(ctx)
	funcs[3] = graphicsFillRect(ctx)
	funcs[4] = graphicsBlit(ctx)
	funcs[5] = graphicsDrawText(ctx)

	return Table{Name: "graphics", Funcs: funcs}
}

func graphicsCreateFramebuffer(ctx GraphicsContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		width, err := c.U32()
		if err != nil {
			return nil, err
		}
		height, err := c.U32()
		if err != nil {
			return nil, err
		}
		bpp, err := c.U32()
		if err != nil {
			return nil, err
		}
		h, err := ctx.CreateFramebuffer(int(width), int(height), int(bpp))
		if err != nil {
			return nil, err
		}
		return bridge.U32Result(uint32(h)), nil
	}
}

// graphicsGetFramebufferInfo writes the vendor's canvas descriptor —
// width, height, bpp as consecutive u32s — at the caller-supplied
// pointer.
func graphicsGetFramebufferInfo(ctx GraphicsContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		handle, err := c.U32()
		if err != nil {
			return nil, err
		}
		ptrOut, err := c.U32()
		if err != nil {
			return nil, err
		}
		w, h, bpp, ok := ctx.FramebufferInfo(FramebufferHandle(handle))
		if !ok {
			return bridge.U32Result(uint32(int32(-1))), nil
		}
		words := []uint32{uint32(w), uint32(h), uint32(bpp)}
		for i, v := range words {
			if err := mem.WriteU32(ctx, ptrOut+uint32(i)*4, v); err != nil {
				return nil, err
			}
		}
		return bridge.U32Result(0), nil
	}
}

func graphicsPutPixel(ctx GraphicsContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		handle, err := c.U32()
		if err != nil {
			return nil, err
		}
		x, err := c.U32()
		if err != nil {
			return nil, err
		}
		y, err := c.U32()
		if err != nil {
			return nil, err
		}
		color, err := c.U32()
		if err != nil {
			return nil, err
		}
		if err := ctx.PutPixel(FramebufferHandle(handle), int(int32(x)), int(int32(y)), color); err != nil {
			return nil, err
		}
		return bridge.Unit{}, nil
	}
}

func graphicsFillRect(ctx GraphicsContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		handle, err := c.U32()
		if err != nil {
			return nil, err
		}
		x, err := c.U32()
		if err != nil {
			return nil, err
		}
		y, err := c.U32()
		if err != nil {
			return nil, err
		}
		w, err := c.U32()
		if err != nil {
			return nil, err
		}
		h, err := c.U32()
		if err != nil {
			return nil, err
		}
		color, err := c.U32()
		if err != nil {
			return nil, err
		}
		if err := ctx.FillRect(FramebufferHandle(handle), int(int32(x)), int(int32(y)), int(w), int(h), color); err != nil {
			return nil, err
		}
		return bridge.Unit{}, nil
	}
}

func graphicsBlit(ctx GraphicsContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		dst, err := c.U32()
		if err != nil {
			return nil, err
		}
		src, err := c.U32()
		if err != nil {
			return nil, err
		}
		dx, err := c.U32()
		if err != nil {
			return nil, err
		}
		dy, err := c.U32()
		if err != nil {
			return nil, err
		}
		w, err := c.U32()
		if err != nil {
			return nil, err
		}
		h, err := c.U32()
		if err != nil {
			return nil, err
		}
		if err := ctx.Blit(FramebufferHandle(dst), FramebufferHandle(src), int(int32(dx)), int(int32(dy)), int(w), int(h)); err != nil {
			return nil, err
		}
		return bridge.Unit{}, nil
	}
}

func graphicsDrawText(ctx GraphicsContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		handle, err := c.U32()
		if err != nil {
			return nil, err
		}
		x, err := c.U32()
		if err != nil {
			return nil, err
		}
		y, err := c.U32()
		if err != nil {
			return nil, err
		}
		text, err := c.String()
		if err != nil {
			return nil, err
		}
		color, err := c.U32()
		if err != nil {
			return nil, err
		}
		if err := ctx.DrawText(FramebufferHandle(handle), int(int32(x)), int(int32(y)), text, color); err != nil {
			return nil, err
		}
		return bridge.Unit{}, nil
	}
}
