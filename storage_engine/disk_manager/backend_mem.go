package diskmanager

// memBackend keeps the arena on the Go heap. Closing keeps the bytes so the
// same backend can be reopened; Drop releases them.
type memBackend struct {
	buf []byte
}

func NewMemBackend() Backend { return &memBackend{} }

func (b *memBackend) Size() (int64, error) { return int64(len(b.buf)), nil }

func (b *memBackend) Map(size int64) ([]byte, error) {
	if int64(len(b.buf)) != size {
		buf := make([]byte, size)
		copy(buf, b.buf)
		b.buf = buf
	}
	return b.buf, nil
}

func (b *memBackend) Remap(old []byte, size int64) ([]byte, error) {
	buf := make([]byte, size)
	copy(buf, old)
	b.buf = buf
	return buf, nil
}

func (b *memBackend) Sync([]byte, bool) error { return nil }

func (b *memBackend) Close([]byte) error { return nil }

func (b *memBackend) Drop() error {
	b.buf = nil
	return nil
}
