package hospital

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/persist"
	"github.com/hms/hms/internal/store"
)

// AutoSave writes a snapshot of st to b after every data change. Sync state
// marks are not persisted and do not trigger a write. The returned function
// stops saving.
func AutoSave(st *store.Store, b persist.Backend, logger zerolog.Logger) (stop func()) {
	saver := persist.NewSaver(b, persist.KeyHospital, logger)
	return st.Subscribe(func(e store.Event) {
		if e.Op == store.OpMark || e.Op == store.OpRestore {
			return
		}
		saver.Save(context.Background(), st.Snapshot())
	})
}

// RestoreCache loads the persisted snapshot into st. A missing snapshot
// leaves st unchanged.
func RestoreCache(ctx context.Context, st *store.Store, b persist.Backend) error {
	var snap store.Snapshot
	if err := persist.LoadState(ctx, b, persist.KeyHospital, &snap); err != nil {
		if errors.Is(err, persist.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("restore hospital cache: %w", err)
	}
	st.Restore(snap)
	return nil
}

// SaveCache writes the current snapshot of st to b.
func SaveCache(ctx context.Context, st *store.Store, b persist.Backend) error {
	return persist.SaveState(ctx, b, persist.KeyHospital, st.Snapshot())
}
