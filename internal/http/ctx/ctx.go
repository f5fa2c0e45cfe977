package ctx

import (
	"github.com/valyala/fasthttp"

	"salesinsight/internal/dataset"
)

const SnapshotKey = "snapshot"

func SetSnapshot(ctx *fasthttp.RequestCtx, snap *dataset.Snapshot) {
	ctx.SetUserValue(SnapshotKey, snap)
}

func SnapshotFromCtx(ctx *fasthttp.RequestCtx) (*dataset.Snapshot, bool) {
	v := ctx.UserValue(SnapshotKey)
	if v == nil {
		return nil, false
	}
	snap, ok := v.(*dataset.Snapshot)
	return snap, ok && snap != nil
}
