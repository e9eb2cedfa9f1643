package retrain

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/go-pkgz/fileutils"
	"github.com/hashicorp/go-multierror"

	"github.com/umputun/sms-spam/app/storage"
)

// artifact is a file to write with a function producing its content
type artifact struct {
	path  string
	write func(w io.Writer) error
}

// staged is an artifact written to a temp file and waiting to be moved in place
type staged struct {
	artifact
	tmp    string
	backup string // empty if the target didn't exist
	moved  bool
}

// rename is os.Rename, replaced in tests to simulate failures
var rename = os.Rename

// writeAll replaces all artifacts together. Content goes to temp files in the target directories first,
// each synced to disk. Existing targets are copied to backups, then temp files renamed over targets.
// If any rename fails, targets already replaced are restored from backups, so either all files are
// replaced or none is. Errors wrap storage.ErrPersistence.
func writeAll(files ...artifact) error {
	stg := make([]*staged, 0, len(files))
	defer func() {
		for _, s := range stg {
			if !s.moved {
				_ = os.Remove(s.tmp)
			}
			if s.backup != "" {
				_ = os.Remove(s.backup)
			}
		}
	}()

	for _, f := range files {
		tmp, err := writeTemp(f)
		if err != nil {
			return fmt.Errorf("%w: %w", storage.ErrPersistence, err)
		}
		stg = append(stg, &staged{artifact: f, tmp: tmp})
	}

	for _, s := range stg {
		if !fileutils.IsFile(s.path) {
			continue
		}
		backup := s.path + ".bak"
		if err := fileutils.CopyFile(s.path, backup); err != nil {
			return fmt.Errorf("%w: can't backup %s: %w", storage.ErrPersistence, s.path, err)
		}
		s.backup = backup
	}

	for _, s := range stg {
		if err := rename(s.tmp, s.path); err != nil {
			errs := multierror.Append(nil, fmt.Errorf("can't move %s to %s: %w", s.tmp, s.path, err))
			if rerr := restore(stg); rerr != nil {
				errs = multierror.Append(errs, rerr)
			}
			return fmt.Errorf("%w: %w", storage.ErrPersistence, errs.ErrorOrNil())
		}
		s.moved = true
	}

	for _, dir := range uniqueDirs(stg) {
		if err := syncDir(dir); err != nil {
			log.Printf("[WARN] can't sync directory %s: %v", dir, err)
		}
	}
	return nil
}

// restore puts back the previous content of already moved artifacts
func restore(stg []*staged) error {
	var errs *multierror.Error
	for _, s := range stg {
		if !s.moved {
			continue
		}
		if s.backup == "" {
			if err := os.Remove(s.path); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("can't remove %s: %w", s.path, err))
			}
			continue
		}
		if err := rename(s.backup, s.path); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("can't restore %s: %w", s.path, err))
			continue
		}
		s.backup = ""
		log.Printf("[WARN] restored previous %s", s.path)
	}
	return errs.ErrorOrNil()
}

// writeTemp writes artifact content to a synced temp file next to the target and returns its name
func writeTemp(f artifact) (string, error) {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("can't make directory %s: %w", dir, err)
	}
	tmp, err := fileutils.TempFileName(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("can't make temp name for %s: %w", f.path, err)
	}
	fh, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600) //nolint:gosec // path is from app config
	if err != nil {
		return "", fmt.Errorf("can't create %s: %w", tmp, err)
	}

	werr := f.write(fh)
	if werr == nil {
		werr = fh.Sync()
	}
	if cerr := fh.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("can't write %s: %w", f.path, werr)
	}
	return tmp, nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir) //nolint:gosec // path is from app config
	if err != nil {
		return err
	}
	defer d.Close()
	if err := d.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return err
	}
	return nil
}

func uniqueDirs(stg []*staged) []string {
	seen := map[string]bool{}
	var res []string
	for _, s := range stg {
		dir := filepath.Dir(s.path)
		if !seen[dir] {
			seen[dir] = true
			res = append(res, dir)
		}
	}
	return res
}
