package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/studio1767/s3sync/internal/filter"
)

type ErrScanFailed struct {
	Path string
	Err  error
}

func (e *ErrScanFailed) Error() string {
	return fmt.Sprintf("failed to scan %s: %s", e.Path, e.Err)
}

func (e *ErrScanFailed) Unwrap() error {
	return e.Err
}

// ScanLocal walks the tree under root and builds an inventory of the
// regular files the filter accepts. Keys are forward-slash relative
// paths. Directories produce no rows. Whether symbolic links are
// followed is decided by the Walk primitive of the supplied
// filesystem; for the OS filesystem links are reported with Lstat and
// not descended into, which also rules out walk loops.
func ScanLocal(fs afero.Fs, root string, f *filter.Filter) (*Inventory, error) {

	// make sure we have a trailing separator... assumed when
	// trimming down to relative keys
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}

	inv := New()

	err := afero.Walk(fs, root, func(fpath string, info os.FileInfo, err error) error {
		if err != nil {
			return &ErrScanFailed{Path: fpath, Err: err}
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		rpath := filepath.ToSlash(strings.TrimPrefix(fpath, root))

		if f != nil && !f.ShouldInclude(rpath, info.Size()) {
			return nil
		}

		inv.Add(Entry{
			Key:     rpath,
			Size:    info.Size(),
			ModTime: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return inv, nil
}
