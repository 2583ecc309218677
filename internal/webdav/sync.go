package webdav

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/storage"
)

// Push uploads the local snapshot and records the outcome in its
// metadata.syncStatus, saving the local copy either way.
func Push(ctx context.Context, c *Client, store storage.Store) error {
	snap, err := store.Load(ctx)
	if err != nil {
		return err
	}
	local := snap.Clone()
	local.Metadata.SyncStatus = model.SyncSynced
	if err := c.Upload(ctx, local); err != nil {
		snap.Metadata.SyncStatus = model.SyncError
		return multierr.Append(err, store.Save(ctx, snap))
	}
	return store.Save(ctx, local)
}

// Pull replaces the local snapshot with the remote one. When the remote has
// nothing yet, ErrRemoteNotFound is returned and the local copy is kept.
func Pull(ctx context.Context, c *Client, store storage.Store) (*model.Snapshot, error) {
	remote, err := c.Download(ctx)
	if err != nil {
		if errors.Is(err, ErrRemoteNotFound) {
			return nil, err
		}
		if snap, loadErr := store.Load(ctx); loadErr == nil {
			snap.Metadata.SyncStatus = model.SyncError
			err = multierr.Append(err, store.Save(ctx, snap))
		}
		return nil, err
	}
	remote.Metadata.SyncStatus = model.SyncSynced
	if err := store.Save(ctx, remote); err != nil {
		return nil, fmt.Errorf("save pulled snapshot: %w", err)
	}
	return remote, nil
}
