//go:build !linux && !darwin

package diskmanager

import (
	"os"

	"github.com/cockroachdb/errors"
)

// fileBackend keeps a heap copy of the arena file and writes it back on Sync
// and Close, for platforms without mmap support in x/sys/unix.
type fileBackend struct {
	path string
	file *os.File
}

func openFileBackend(path string, create bool) (Backend, error) {
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	}
	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "arena file %s", path)
		}
		return nil, errors.Wrapf(err, "failed to open arena file %s", path)
	}
	return &fileBackend{path: path, file: file}, nil
}

func (b *fileBackend) Size() (int64, error) {
	st, err := b.file.Stat()
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}

func (b *fileBackend) Map(size int64) ([]byte, error) {
	if err := b.file.Truncate(size); err != nil {
		return nil, errors.Wrapf(err, "failed to size %s", b.path)
	}
	data := make([]byte, size)
	if _, err := b.file.ReadAt(data, 0); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", b.path)
	}
	return data, nil
}

func (b *fileBackend) Remap(old []byte, size int64) ([]byte, error) {
	if err := b.file.Truncate(size); err != nil {
		return nil, errors.Wrapf(err, "failed to extend %s", b.path)
	}
	data := make([]byte, size)
	copy(data, old)
	return data, nil
}

func (b *fileBackend) Sync(data []byte, async bool) error {
	if data == nil {
		return nil
	}
	if _, err := b.file.WriteAt(data, 0); err != nil {
		return err
	}
	if async {
		return nil
	}
	return b.file.Sync()
}

func (b *fileBackend) Close(data []byte) error {
	err := b.Sync(data, false)
	if b.file != nil {
		err = errors.CombineErrors(err, b.file.Close())
		b.file = nil
	}
	return err
}

func (b *fileBackend) Drop() error {
	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
