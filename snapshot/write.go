package snapshot

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// rename moves files during the swap. Tests replace it to fail part way through.
var rename = os.Rename

// WriteSet writes exactly the images of Views into dir under their fixed names, replacing any
// previous set. Either every image is replaced or none is: images are encoded and staged in a
// fresh directory inside dir first, and a failed swap restores the previous files.
func WriteSet(dir string, images []Image) (err error) {
	encoded, err := encodeSet(images)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrapf(err, "creating output directory %q", dir)
	}

	staging := filepath.Join(dir, ".staging-"+uuid.NewString())
	fresh := filepath.Join(staging, "new")
	backup := filepath.Join(staging, "old")
	if err := os.MkdirAll(fresh, 0o750); err != nil {
		return multierr.Combine(errors.Wrap(err, "creating staging directory"), os.RemoveAll(staging))
	}
	if err := os.Mkdir(backup, 0o750); err != nil {
		return multierr.Combine(errors.Wrap(err, "creating staging directory"), os.RemoveAll(staging))
	}
	defer func() {
		err = multierr.Combine(err, os.RemoveAll(staging))
	}()

	names := FileNames()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(fresh, name), encoded[name], 0o640); err != nil {
			return errors.Wrapf(err, "staging %s", name)
		}
	}

	var moved, placed []string
	rollback := func(cause error) error {
		for _, name := range placed {
			cause = multierr.Append(cause, os.Remove(filepath.Join(dir, name)))
		}
		for _, name := range moved {
			cause = multierr.Append(cause, rename(filepath.Join(backup, name), filepath.Join(dir, name)))
		}
		return cause
	}

	for _, name := range names {
		target := filepath.Join(dir, name)
		if _, statErr := os.Lstat(target); statErr == nil {
			if err := rename(target, filepath.Join(backup, name)); err != nil {
				return rollback(errors.Wrapf(err, "setting aside previous %s", name))
			}
			moved = append(moved, name)
		}
	}
	for _, name := range names {
		if err := rename(filepath.Join(fresh, name), filepath.Join(dir, name)); err != nil {
			return rollback(errors.Wrapf(err, "placing %s", name))
		}
		placed = append(placed, name)
	}
	return nil
}

func encodeSet(images []Image) (map[string][]byte, error) {
	names := FileNames()
	if len(images) != len(names) {
		return nil, errors.Errorf("expected %d images, got %d", len(names), len(images))
	}
	encoded := make(map[string][]byte, len(images))
	for _, img := range images {
		encoded[img.Name] = nil
	}
	for _, name := range names {
		if _, ok := encoded[name]; !ok {
			return nil, errors.Errorf("image set is missing %s", name)
		}
	}
	for _, img := range images {
		if img.Image == nil {
			return nil, errors.Errorf("image %s is empty", img.Name)
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img.Image, imaging.PNG); err != nil {
			return nil, errors.Wrapf(err, "encoding %s", img.Name)
		}
		encoded[img.Name] = buf.Bytes()
	}
	return encoded, nil
}
