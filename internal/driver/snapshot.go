package driver

import (
	"context"
	"errors"
	"fmt"

	"kiln/internal/pipeline"
	"kiln/internal/snapshot"
	"kiln/internal/stages"
	"kiln/internal/trace"
)

// LoadStartupSnapshot makes path the external declaration source of the
// session. When path cannot be loaded the session switches to building it:
// a snapshot writer stage is registered and WriteStartupSnapshot later
// serializes the context into path. loaded reports which of the two happened.
func (d *Driver) LoadStartupSnapshot(ctx context.Context, path string) (loaded bool, err error) {
	if err := d.enter(); err != nil {
		return false, err
	}
	defer d.leave()
	if d.state.UsingSnapshot || d.state.BuildingSnapshot {
		return false, ErrSnapshotActive
	}

	_, span := trace.Start(ctx, trace.ScopeDriver, "snapshot_load")
	src, lerr := snapshot.Load(path)
	if lerr == nil {
		d.fe.SetExternalSource(src)
		d.snapSource = src
		d.state.UsingSnapshot = true
		span.WithExtra("decls", fmt.Sprint(src.Len())).End("loaded")
		return true, nil
	}
	span.WithExtra("reason", lerr.Error()).End("build")

	w, err := snapshot.Create(path)
	if err != nil {
		return false, fmt.Errorf("driver: startup snapshot %s: %w", path, err)
	}
	d.pipe.Register(pipeline.StageSnapshotWriter, stages.NewSnapshotWriter(w, d.fe.ExportDecls))
	d.state.BuildingSnapshot = true
	return false, nil
}

// WriteStartupSnapshot serializes the semantic context once, then closes
// the sink and frees the writer stage.
func (d *Driver) WriteStartupSnapshot(ctx context.Context) error {
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()

	st, ok := d.pipe.Stage(pipeline.StageSnapshotWriter)
	if !ok || !d.state.BuildingSnapshot {
		return ErrNoSnapshotSink
	}
	sw := st.(*stages.SnapshotWriter)
	_, span := trace.Start(ctx, trace.ScopeDriver, "snapshot_write")
	groups, txns := sw.Seen()
	werr := sw.Write()
	_, cerr := d.pipe.Remove(pipeline.StageSnapshotWriter)
	d.state.BuildingSnapshot = false
	span.WithExtra("path", sw.Path()).
		WithExtra("groups", fmt.Sprint(groups)).
		WithExtra("txns", fmt.Sprint(txns)).
		End("")
	return errors.Join(werr, cerr)
}
