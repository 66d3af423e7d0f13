package wipic

import (
	"github.com/zboralski/wie/internal/bridge"
)

func databaseTable(ctx DatabaseContext) Table {
	const size = 12
	funcs := make([]bridge.HostFunc, size)
	for i := range funcs {
		funcs[i] = genStub("database", i)
	}

	funcs[0] = databaseOpen(ctx)
	funcs[1] = databaseClose(ctx)
	funcs[2] = databaseReadRecord(ctx)
	funcs[3] = databaseWriteRecord(ctx)
	funcs[4] = databaseDeleteRecord(ctx)
	funcs[5] = databaseListRecords(ctx)
	funcs[6] = databaseReadSingleRecord(ctx)
	funcs[7] = databaseWriteSingleRecord(ctx)

	return Table{Name: "database", Funcs: funcs}
}

func databaseOpen(ctx DatabaseContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		name, err := c.String()
		if err != nil {
			return nil, err
		}
		h, err := ctx.OpenStore(name)
		if err != nil {
			return nil, err
		}
		return bridge.U32Result(uint32(h)), nil
	}
}

func databaseClose(ctx DatabaseContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		handle, err := c.U32()
		if err != nil {
			return nil, err
		}
		if err := ctx.CloseStore(StoreHandle(handle)); err != nil {
			return nil, err
		}
		return bridge.Unit{}, nil
	}
}

func databaseReadRecord(ctx DatabaseContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		handle, err := c.U32()
		if err != nil {
			return nil, err
		}
		id, err := c.U32()
		if err != nil {
			return nil, err
		}
		bufPtr, err := c.U32()
		if err != nil {
			return nil, err
		}
		bufSize, err := c.U32()
		if err != nil {
			return nil, err
		}
		data, ok := ctx.ReadRecord(StoreHandle(handle), int32(id))
		if !ok || uint32(len(data)) > bufSize {
			return bridge.U32Result(uint32(int32(-1))), nil
		}
		if err := ctx.WriteBytes(bufPtr, data); err != nil {
			return nil, err
		}
		return bridge.U32Result(uint32(len(data))), nil
	}
}

func databaseWriteRecord(ctx DatabaseContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		handle, err := c.U32()
		if err != nil {
			return nil, err
		}
		id, err := c.U32()
		if err != nil {
			return nil, err
		}
		ptr, err := c.U32()
		if err != nil {
			return nil, err
		}
		size, err := c.U32()
		if err != nil {
			return nil, err
		}
		data := make([]byte, size)
		if err := ctx.ReadBytes(ptr, data); err != nil {
			return nil, err
		}
		newID, err := ctx.WriteRecord(StoreHandle(handle), int32(id), data)
		if err != nil {
			return nil, err
		}
		return bridge.U32Result(uint32(newID)), nil
	}
}

func databaseDeleteRecord(ctx DatabaseContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		handle, err := c.U32()
		if err != nil {
			return nil, err
		}
		id, err := c.U32()
		if err != nil {
			return nil, err
		}
		if err := ctx.DeleteRecord(StoreHandle(handle), int32(id)); err != nil {
			return nil, err
		}
		return bridge.Unit{}, nil
	}
}

func databaseListRecords(ctx DatabaseContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		handle, err := c.U32()
		if err != nil {
			return nil, err
		}
		ids := ctx.ListRecords(StoreHandle(handle))
		return bridge.U32Result(uint32(len(ids))), nil
	}
}

func databaseReadSingleRecord(ctx DatabaseContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		handle, err := c.U32()
		if err != nil {
			return nil, err
		}
		bufPtr, err := c.U32()
		if err != nil {
			return nil, err
		}
		bufSize, err := c.U32()
		if err != nil {
			return nil, err
		}
		data, ok := ctx.ReadSingleRecord(StoreHandle(handle))
		if !ok || uint32(len(data)) > bufSize {
			return bridge.U32Result(uint32(int32(-1))), nil
		}
		if err := ctx.WriteBytes(bufPtr, data); err != nil {
			return nil, err
		}
		return bridge.U32Result(uint32(len(data))), nil
	}
}

func databaseWriteSingleRecord(ctx DatabaseContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		handle, err := c.U32()
		if err != nil {
			return nil, err
		}
		ptr, err := c.U32()
		if err != nil {
			return nil, err
		}
		size, err := c.U32()
		if err != nil {
			return nil, err
		}
		data := make([]byte, size)
		if err := ctx.ReadBytes(ptr, data); err != nil {
			return nil, err
		}
		if err := ctx.WriteSingleRecord(StoreHandle(handle), data); err != nil {
			return nil, err
		}
		return bridge.Unit{}, nil
	}
}

