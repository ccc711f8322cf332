package hospital

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/apiclient"
	"github.com/hms/hms/internal/store"
	"github.com/hms/hms/pkg/shape"
)

func refresh[T store.Entity[T]](ctx context.Context, col *store.Collection[T], list func(context.Context) ([]T, error)) error {
	items, err := list(ctx)
	if err != nil {
		return err
	}
	col.Set(items)
	return nil
}

// create adds e to the cache under a temporary id, sends it, and swaps in
// the confirmed copy. On failure the optimistic copy stays, marked failed.
// merge, when set, carries client-only fields onto the server copy.
func create[T store.Entity[T]](
	ctx context.Context,
	logger zerolog.Logger,
	col *store.Collection[T],
	e T,
	send func(context.Context, T) (T, error),
	merge func(server, local T) T,
) (T, error) {
	local := col.Add(e)
	col.MarkPending(local.Key())
	created, err := send(ctx, local)
	if err != nil {
		col.MarkFailed(local.Key(), err)
		logFailure(logger, col.Name(), "create", local.Key(), err)
		return local, err
	}
	if merge != nil {
		created = merge(created, local)
	}
	created = created.Normalized()
	// A sync or reset that landed mid-flight dropped the optimistic copy.
	if !col.Replace(local.Key(), created) {
		created = col.Upsert(created)
	}
	col.MarkConfirmed(created.Key())
	return created, nil
}

// update patches the cached member, sends the patch, and swaps in the
// server copy. On failure the patched value stays, marked failed. A member
// missing from the cache is added once the backend confirms it.
func update[T store.Entity[T], P store.Patch[T]](
	ctx context.Context,
	logger zerolog.Logger,
	col *store.Collection[T],
	id string,
	patch P,
	send func(context.Context, string, P) (T, error),
	merge func(server, local T) T,
) (T, error) {
	id = shape.ID(id)
	local, cached := col.Update(id, patch)
	if cached {
		col.MarkPending(id)
	}
	updated, err := send(ctx, id, patch)
	if err != nil {
		if cached {
			col.MarkFailed(id, err)
		}
		logFailure(logger, col.Name(), "update", id, err)
		return local, err
	}
	if merge != nil && cached {
		updated = merge(updated, local)
	}
	updated = updated.Normalized()
	if !cached {
		return col.Upsert(updated), nil
	}
	// A member deleted while the request was in flight stays deleted.
	if col.Replace(id, updated) {
		col.MarkConfirmed(updated.Key())
	}
	return updated, nil
}

// ErrCreatePending is returned when deleting a record whose create request
// has not resolved yet.
var ErrCreatePending = errors.New("record is still being created")

// remove deletes on the backend first and then from the cache. Records the
// backend never confirmed, and records it no longer has, are dropped
// locally. A record with a create in flight cannot be removed until the
// backend assigns its id.
func remove[T store.Entity[T]](
	ctx context.Context,
	logger zerolog.Logger,
	col *store.Collection[T],
	id string,
	send func(context.Context, string) error,
) error {
	id = shape.ID(id)
	if store.IsTemp(id) {
		if st, ok := col.State(id); ok && st.State == store.StatePending {
			return fmt.Errorf("delete %s %s: %w", col.Name(), id, ErrCreatePending)
		}
		col.Delete(id)
		return nil
	}
	if err := send(ctx, id); err != nil && !errors.Is(err, apiclient.ErrNotFound) {
		logFailure(logger, col.Name(), "delete", id, err)
		return err
	}
	col.Delete(id)
	return nil
}

func logFailure(logger zerolog.Logger, collection, op, id string, err error) {
	ev := logger.Error()
	if errors.Is(err, apiclient.ErrValidation) || errors.Is(err, apiclient.ErrInvalidID) {
		ev = logger.Warn()
	}
	ev.Err(err).Str("collection", collection).Str("op", op).Str("id", id).Msg("backend write failed")
}
