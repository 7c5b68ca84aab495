//go:build linux || darwin

package diskmanager

import (
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// fileBackend maps the arena file shared and read-write, so stores through a
// resolved slot land in the page cache directly and Sync is an msync.
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
	data, err := unix.Mmap(int(b.file.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap %s", b.path)
	}
	return data, nil
}

// Remap extends the file and maps the new size before releasing the old
// mapping, so a failure leaves old valid.
func (b *fileBackend) Remap(old []byte, size int64) ([]byte, error) {
	if err := b.file.Truncate(size); err != nil {
		return nil, errors.Wrapf(err, "failed to extend %s", b.path)
	}
	data, err := unix.Mmap(int(b.file.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = b.file.Truncate(int64(len(old)))
		return nil, errors.Wrapf(err, "mmap %s", b.path)
	}
	if old != nil {
		if err := unix.Munmap(old); err != nil {
			_ = unix.Munmap(data)
			return nil, errors.Wrapf(err, "munmap %s", b.path)
		}
	}
	return data, nil
}

func (b *fileBackend) Sync(data []byte, async bool) error {
	if data == nil {
		return nil
	}
	flag := unix.MS_SYNC
	if async {
		flag = unix.MS_ASYNC
	}
	return unix.Msync(data, flag)
}

func (b *fileBackend) Close(data []byte) error {
	var err error
	if data != nil {
		err = unix.Munmap(data)
	}
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
