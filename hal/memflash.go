package hal

import (
	"fmt"
	"os"
	"sync"
)

// MemFlash is a RAM-backed Flash with NOR semantics: writes may only clear
// bits, erases restore whole blocks to 0xFF.
//
// FailWrites makes every WriteAt and Erase fail, to exercise error paths.
type MemFlash struct {
	mu         sync.Mutex
	buf        []byte
	blockBytes uint32

	FailWrites bool
	Writes     int
}

// NewMemFlash returns an erased in-memory flash.
func NewMemFlash(sizeBytes, eraseBlockBytes uint32) *MemFlash {
	if eraseBlockBytes == 0 {
		eraseBlockBytes = 4096
	}
	sizeBytes -= sizeBytes % eraseBlockBytes
	f := &MemFlash{buf: make([]byte, sizeBytes), blockBytes: eraseBlockBytes}
	for i := range f.buf {
		f.buf[i] = 0xFF
	}
	return f
}

func (f *MemFlash) SizeBytes() uint32       { return uint32(len(f.buf)) }
func (f *MemFlash) EraseBlockBytes() uint32 { return f.blockBytes }

func (f *MemFlash) ReadAt(p []byte, off uint32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if off >= uint32(len(f.buf)) {
		return 0, fmt.Errorf("flash read at %d: %w", off, os.ErrInvalid)
	}
	return copy(p, f.buf[off:]), nil
}

func (f *MemFlash) WriteAt(p []byte, off uint32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites {
		return 0, fmt.Errorf("flash write at %d: %w", off, os.ErrPermission)
	}
	if off >= uint32(len(f.buf)) {
		return 0, fmt.Errorf("flash write at %d: %w", off, os.ErrInvalid)
	}
	dst := f.buf[off:]
	if len(p) > len(dst) {
		p = p[:len(dst)]
	}
	for i := range p {
		if dst[i]&p[i] != p[i] {
			return 0, ErrFlashWriteRequiresErase
		}
	}
	f.Writes++
	return copy(dst, p), nil
}

func (f *MemFlash) Erase(off, size uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites {
		return fmt.Errorf("flash erase at %d: %w", off, os.ErrPermission)
	}
	if off%f.blockBytes != 0 || size%f.blockBytes != 0 || off+size > uint32(len(f.buf)) {
		return fmt.Errorf("flash erase off=%d size=%d: %w", off, size, os.ErrInvalid)
	}
	for i := off; i < off+size; i++ {
		f.buf[i] = 0xFF
	}
	return nil
}
