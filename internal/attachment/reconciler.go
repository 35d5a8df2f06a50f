package attachment

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	errors "github.com/frahmantamala/staff-management/internal"
	"github.com/frahmantamala/staff-management/internal/blob"
	"github.com/frahmantamala/staff-management/internal/core/common/validation"
)

// DefaultMaxFileSize is 3 MiB.
const DefaultMaxFileSize int64 = 3 << 20

type Reconciler struct {
	Store       blob.Store
	Container   string
	MaxFileSize int64
	NewKey      func() string
	Logger      *slog.Logger
}

func NewReconciler(store blob.Store, container string, maxFileSize int64, logger *slog.Logger) *Reconciler {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Reconciler{
		Store:       store,
		Container:   container,
		MaxFileSize: maxFileSize,
		NewKey:      uuid.NewString,
		Logger:      logger,
	}
}

func (r *Reconciler) BlobKey(dir, fileKey, ext string) string {
	return blob.Key(r.Container, dir, fileKey, ext)
}

// Validate checks every submitted file against the size limit.
func (r *Reconciler) Validate(submitted []FieldSet) error {
	v := validation.NewValidator()
	for i, fs := range submitted {
		if fs.File != nil && fs.File.Size > r.MaxFileSize {
			v.AddError(fmt.Sprintf("attachments[%d].file", i),
				fmt.Sprintf("file must not exceed %d MiB", r.MaxFileSize>>20),
				errors.ErrCodeFileTooLarge)
		}
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Save validates, plans and hands the plan to upsert, which must persist the
// owning entity and the attachment rows in one transaction. Blob writes and
// deletes run afterwards as a single batch; a blob failure does not undo the
// committed rows.
func (r *Reconciler) Save(ctx context.Context, dir string, existing []Existing, submitted []FieldSet, upsert func(ctx context.Context, plan Plan) error) (Plan, error) {
	if err := r.Validate(submitted); err != nil {
		return Plan{}, err
	}

	plan := Reconcile(existing, submitted, r.NewKey)
	if err := upsert(ctx, plan); err != nil {
		return Plan{}, err
	}

	if err := r.ApplyBlobs(ctx, dir, plan); err != nil {
		r.Logger.Error("Save: blob batch failed after rows were committed", "dir", dir, "error", err)
		return plan, err
	}
	return plan, nil
}

// ApplyBlobs writes new and replacement files and removes superseded ones.
func (r *Reconciler) ApplyBlobs(ctx context.Context, dir string, plan Plan) error {
	g, gctx := errgroup.WithContext(ctx)

	put := func(fileKey string, f *File) {
		key := r.BlobKey(dir, fileKey, f.Extension())
		content := f.Content
		g.Go(func() error {
			if err := r.Store.Put(gctx, key, bytes.NewReader(content)); err != nil {
				return fmt.Errorf("put %s: %w", key, err)
			}
			return nil
		})
	}
	remove := func(e Existing) {
		key := r.BlobKey(dir, e.FileKey, e.Extension)
		g.Go(func() error {
			if err := r.Store.Delete(gctx, key); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
			return nil
		})
	}

	for _, c := range plan.ToCreate {
		put(c.FileKey, c.File)
	}
	for _, u := range plan.ToUpdate {
		if u.Replaces() {
			put(u.FileKey, u.File)
			remove(u.Previous)
		}
	}
	for _, e := range plan.ToDelete {
		remove(e)
	}

	return g.Wait()
}

// DeleteDirectory removes every blob stored for one owner.
func (r *Reconciler) DeleteDirectory(ctx context.Context, dir string) error {
	return r.Store.DeleteDir(ctx, path.Join(r.Container, dir))
}

// Binding ties the reconciler to one entity type: where its blobs live and
// how it is written together with its attachment rows.
type Binding[E any] struct {
	*Reconciler
	DirOf  func(E) string
	Upsert func(ctx context.Context, entity E, plan Plan) error
}

func (b Binding[E]) Save(ctx context.Context, entity E, existing []Existing, submitted []FieldSet) (Plan, error) {
	return b.Reconciler.Save(ctx, b.DirOf(entity), existing, submitted, func(ctx context.Context, plan Plan) error {
		return b.Upsert(ctx, entity, plan)
	})
}

func (b Binding[E]) Delete(ctx context.Context, entity E) error {
	return b.DeleteDirectory(ctx, b.DirOf(entity))
}
