//go:build !tinygo

package hal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

const (
	hostFlashDefaultPath      = "blotch.flash"
	hostFlashDefaultSizeBytes = 64 * 1024
	hostFlashEraseBlockBytes  = 4096
)

type hostFlash struct {
	mu        sync.Mutex
	f         *os.File
	size      uint32
	eraseSize uint32
	scratch   []byte
}

// FileFlash is a Flash backed by a host file.
type FileFlash interface {
	Flash
	Close() error
}

// FlashPathEnv overrides the flash backing file on the host.
const FlashPathEnv = "BLOTCH_FLASH_PATH"

// OpenFlashFile opens (creating if needed) a file-backed flash image.
//
// An empty path falls back to $BLOTCH_FLASH_PATH, then to "blotch.flash".
// Open failures yield a flash that reports ErrNotImplemented on every call.
func OpenFlashFile(path string) FileFlash {
	return newHostFlash(path)
}

// CreateFlashFile writes a fresh, fully erased image of size bytes with
// eraseSize erase blocks, replacing any existing file.
func CreateFlashFile(path string, size, eraseSize uint32) (FileFlash, error) {
	if eraseSize == 0 || eraseSize%256 != 0 {
		return nil, fmt.Errorf("flash: invalid erase size %d", eraseSize)
	}
	if size == 0 || size%eraseSize != 0 {
		return nil, fmt.Errorf("flash: size %d not multiple of erase size %d", size, eraseSize)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open flash file %q: %w", path, err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("truncate flash file %q to %d: %w", path, size, err)
	}

	hf := newFileFlash(f, size, eraseSize)
	if err := hf.Erase(0, size); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("erase flash file %q: %w", path, err)
	}
	return hf, nil
}

func newFileFlash(f *os.File, size, eraseSize uint32) *hostFlash {
	hf := &hostFlash{f: f, size: size, eraseSize: eraseSize, scratch: make([]byte, eraseSize)}
	for i := range hf.scratch {
		hf.scratch[i] = 0xFF
	}
	return hf
}

func newHostFlash(path string) *hostFlash {
	if path == "" {
		path = os.Getenv(FlashPathEnv)
	}
	if path == "" {
		path = hostFlashDefaultPath
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return &hostFlash{eraseSize: hostFlashEraseBlockBytes}
	}

	size := uint32(hostFlashDefaultSizeBytes)
	if st, err := f.Stat(); err == nil && st.Size() > 0 {
		if st.Size() > int64(^uint32(0)) {
			_ = f.Close()
			return &hostFlash{eraseSize: hostFlashEraseBlockBytes}
		}
		size = uint32(st.Size())
	} else {
		if err := f.Truncate(int64(size)); err != nil {
			_ = f.Close()
			return &hostFlash{eraseSize: hostFlashEraseBlockBytes}
		}
	}
	return newFileFlash(f, size, hostFlashEraseBlockBytes)
}

func (f *hostFlash) SizeBytes() uint32       { return f.size }
func (f *hostFlash) EraseBlockBytes() uint32 { return f.eraseSize }

func (f *hostFlash) ReadAt(p []byte, off uint32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.f == nil {
		return 0, ErrNotImplemented
	}
	if off >= f.size {
		return 0, fmt.Errorf("flash read at %d: %w", off, os.ErrInvalid)
	}
	maxN := int(f.size - off)
	if len(p) > maxN {
		p = p[:maxN]
	}
	return f.f.ReadAt(p, int64(off))
}

func (f *hostFlash) WriteAt(p []byte, off uint32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.f == nil {
		return 0, ErrNotImplemented
	}
	if off >= f.size {
		return 0, fmt.Errorf("flash write at %d: %w", off, os.ErrInvalid)
	}
	maxN := int(f.size - off)
	if len(p) > maxN {
		p = p[:maxN]
	}

	buf := make([]byte, len(p))
	if _, err := f.f.ReadAt(buf, int64(off)); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("flash read before write at %d: %w", off, err)
	}
	for i := range p {
		if buf[i]&p[i] != p[i] {
			return 0, ErrFlashWriteRequiresErase
		}
	}
	return f.f.WriteAt(p, int64(off))
}

func (f *hostFlash) Erase(off, size uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.f == nil {
		return ErrNotImplemented
	}
	if size == 0 {
		return nil
	}
	if off%f.eraseSize != 0 || size%f.eraseSize != 0 {
		return fmt.Errorf("flash erase off=%d size=%d: %w", off, size, os.ErrInvalid)
	}
	if off >= f.size || off+size > f.size {
		return fmt.Errorf("flash erase off=%d size=%d: %w", off, size, os.ErrInvalid)
	}

	for size > 0 {
		if _, err := f.f.WriteAt(f.scratch, int64(off)); err != nil {
			return fmt.Errorf("flash erase block at %d: %w", off, err)
		}
		off += f.eraseSize
		size -= f.eraseSize
	}
	return nil
}

// Close releases the backing file.
func (f *hostFlash) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.f == nil {
		return nil
	}
	err := f.f.Close()
	f.f = nil
	return err
}
