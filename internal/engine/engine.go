package engine

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/studio1767/s3sync/internal/diff"
	"github.com/studio1767/s3sync/internal/filter"
	"github.com/studio1767/s3sync/internal/inventory"
	"github.com/studio1767/s3sync/internal/s3store"
)

type ErrSyncInProgress struct {
	Path string
}

func (e *ErrSyncInProgress) Error() string {
	return fmt.Sprintf("folder is already being synced: %s", e.Path)
}

// Engine reconciles local folders against a bucket and executes the
// resulting actions one at a time. Per-file failures are collected
// into the Result and never abort the remaining actions; structural
// failures (bucket missing, scan or listing errors) abort the sync
// before any transfer starts.
type Engine struct {
	store    s3store.Store
	fs       afero.Fs
	filter   *filter.Filter
	registry *Registry

	retries   uint64
	retryWait time.Duration
}

func New(store s3store.Store, fs afero.Fs, f *filter.Filter) *Engine {
	return &Engine{
		store:     store,
		fs:        fs,
		filter:    f,
		registry:  NewRegistry(),
		retries:   2,
		retryWait: 2 * time.Second,
	}
}

// SetRetries configures how often a failed transfer is re-attempted
// before it is recorded as a per-file error, and the wait between
// attempts.
func (e *Engine) SetRetries(retries uint64, wait time.Duration) {
	e.retries = retries
	e.retryWait = wait
}

// Sync reconciles folder.Path against folder.Bucket under
// folder.Prefix. Only one sync per folder path runs at a time; a
// second concurrent call fails immediately. The folder is released
// on every exit path.
//
// Cancelling ctx stops the action loop before the next action; the
// partial result is returned together with the context error.
func (e *Engine) Sync(ctx context.Context, folder *Folder, deleteRemoved bool, fn ProgressFunc) (*Result, error) {

	if !e.registry.TryAcquire(folder.Path) {
		return nil, &ErrSyncInProgress{Path: folder.Path}
	}
	defer e.registry.Release(folder.Path)

	folder.Status = Syncing
	folder.StatusMessage = ""

	logger := log.WithFields(log.Fields{
		"folder": folder.Path,
		"bucket": folder.Bucket,
	})

	// make sure the target bucket is actually there before any work
	exists, err := e.store.BucketExists(ctx, folder.Bucket)
	if err != nil {
		return nil, e.fail(folder, err)
	}
	if !exists {
		return nil, e.fail(folder, &s3store.ErrNoSuchBucket{Bucket: folder.Bucket})
	}

	// build both inventories; an incomplete inventory can't be
	// trusted, so either failure aborts the sync before diffing
	local, err := inventory.ScanLocal(e.fs, folder.Path, e.filter)
	if err != nil {
		return nil, e.fail(folder, err)
	}

	remote, err := inventory.ScanRemote(ctx, e.store, folder.Bucket, folder.Prefix)
	if err != nil {
		return nil, e.fail(folder, err)
	}

	actions := diff.Compute(local, remote, deleteRemoved)

	logger.WithFields(log.Fields{
		"local":   local.Len(),
		"remote":  remote.Len(),
		"actions": len(actions),
	}).Debug("inventories reconciled")

	result := &Result{}

	for _, action := range actions {
		if err := ctx.Err(); err != nil {
			folder.Status = Error
			folder.StatusMessage = "cancelled"
			return result, err
		}

		switch action.Kind {
		case diff.Upload:
			e.upload(ctx, folder, action, result, fn)
		case diff.Download:
			e.download(ctx, folder, action, result, fn)
		case diff.Delete:
			// the diff only emits deletes when deleteRemoved is
			// set; keep the gate here as well
			if deleteRemoved {
				e.delete(ctx, folder, action, result)
			}
		case diff.Skip:
		}
	}

	if len(result.Errors) == 0 {
		folder.Status = Synced
		folder.LastSynced = time.Now()
	} else {
		folder.Status = Error
		folder.StatusMessage = fmt.Sprintf("%d errors", len(result.Errors))
	}

	logger.WithFields(log.Fields{
		"uploaded":   result.Uploaded,
		"downloaded": result.Downloaded,
		"deleted":    result.Deleted,
		"bytes":      humanize.Bytes(uint64(result.BytesTransferred)),
		"errors":     len(result.Errors),
	}).Info("sync complete")

	return result, nil
}

func (e *Engine) fail(folder *Folder, err error) error {
	folder.Status = Error
	folder.StatusMessage = err.Error()
	log.WithField("folder", folder.Path).WithError(err).Error("sync aborted")
	return err
}

func (e *Engine) upload(ctx context.Context, folder *Folder, action diff.Action, result *Result, fn ProgressFunc) {

	fpath := filepath.Join(folder.Path, filepath.FromSlash(action.LocalPath))
	key := joinKey(folder.Prefix, action.RemoteKey)
	name := path.Base(action.RemoteKey)

	op := func() error {
		file, err := e.fs.Open(fpath)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer file.Close()

		pr := newProgressReader(file, name, action.Size, fn)
		return e.store.Put(ctx, folder.Bucket, key, pr)
	}

	err := backoff.Retry(op, e.newBackOff(ctx))
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to upload %s: %s", action.LocalPath, err))
		return
	}

	result.Uploaded++
	result.BytesTransferred += action.Size

	if fn != nil {
		fn(Progress{
			FileName:         name,
			BytesTransferred: action.Size,
			TotalBytes:       action.Size,
			Percentage:       100.0,
		})
	}
}

func (e *Engine) download(ctx context.Context, folder *Folder, action diff.Action, result *Result, fn ProgressFunc) {

	fpath := filepath.Join(folder.Path, filepath.FromSlash(action.LocalPath))
	key := joinKey(folder.Prefix, action.RemoteKey)
	name := path.Base(action.RemoteKey)

	var nbytes int64

	op := func() error {
		body, length, err := e.store.Get(ctx, folder.Bucket, key)
		if err != nil {
			return err
		}
		defer body.Close()

		// encrypted objects report no plaintext length up front
		total := length
		if total == 0 {
			total = action.Size
		}

		if err := e.fs.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return backoff.Permanent(err)
		}
		file, err := e.fs.Create(fpath)
		if err != nil {
			return backoff.Permanent(err)
		}

		pw := newProgressWriter(file, name, total, fn)
		buffer := make([]byte, chunkSize)
		nbytes, err = io.CopyBuffer(pw, body, buffer)

		cerr := file.Close()
		if err != nil {
			return err
		}
		return cerr
	}

	err := backoff.Retry(op, e.newBackOff(ctx))
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to download %s: %s", action.RemoteKey, err))
		return
	}

	result.Downloaded++
	result.BytesTransferred += nbytes

	if fn != nil {
		fn(Progress{
			FileName:         name,
			BytesTransferred: nbytes,
			TotalBytes:       nbytes,
			Percentage:       100.0,
		})
	}
}

func (e *Engine) delete(ctx context.Context, folder *Folder, action diff.Action, result *Result) {

	key := joinKey(folder.Prefix, action.RemoteKey)

	op := func() error {
		return e.store.Delete(ctx, folder.Bucket, key)
	}

	err := backoff.Retry(op, e.newBackOff(ctx))
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to delete %s: %s", action.RemoteKey, err))
		return
	}

	result.Deleted++
}

func (e *Engine) newBackOff(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(e.retryWait), e.retries), ctx)
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return strings.TrimSuffix(prefix, "/") + "/" + key
}
