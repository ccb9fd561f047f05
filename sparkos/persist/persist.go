// Package persist is a small key/value blob store on raw NOR flash.
//
// Two erase blocks are used as a ping-pong log. Each block starts with a
// header (magic, sequence) followed by append-only records:
//
//	u32 key | u16 len | data[len] | u32 crc32(key|len|data)
//
// A record with len == tombstoneLen deletes the key. When the active block is
// full, live values are copied to the other block, whose header is written
// last with the next sequence number.
package persist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"sort"
	"sync"
)

var (
	// ErrNotFound indicates that a key has no value.
	ErrNotFound = errors.New("persist: not found")
	// ErrTooLarge indicates that a value exceeds MaxValueBytes.
	ErrTooLarge = errors.New("persist: value too large")
	// ErrNoSpace indicates that live values do not fit one block.
	ErrNoSpace = errors.New("persist: no space")
	// ErrInvalid indicates invalid arguments or flash geometry.
	ErrInvalid = errors.New("persist: invalid")
	// ErrCorrupt indicates a damaged record; the store recovers by compacting.
	ErrCorrupt = errors.New("persist: corrupt")
)

// MaxValueBytes bounds a single value.
const MaxValueBytes = 256

const (
	blockMagic   = 0x564b4c42 // "BLKV"
	headerBytes  = 8
	recordHead   = 6
	recordTail   = 4
	erasedKey    = 0xFFFFFFFF
	erasedLen    = 0xFFFF
	tombstoneLen = 0xFFFE
)

// Flash is the raw storage the store lives on (see hal.Flash).
type Flash interface {
	SizeBytes() uint32
	EraseBlockBytes() uint32
	ReadAt(p []byte, off uint32) (int, error)
	WriteAt(p []byte, off uint32) (int, error)
	Erase(off, size uint32) error
}

// Options configures where the store lives on flash.
type Options struct {
	// Offset of the first of the two erase blocks. Must be block aligned.
	Offset uint32
}

// Store is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	flash Flash

	base      uint32
	blockSize uint32

	active   int
	seq      uint32
	writeOff uint32

	values map[uint32][]byte
}

// Open mounts the store, formatting it when no valid block is found.
func Open(flash Flash, opts Options) (*Store, error) {
	if flash == nil {
		return nil, fmt.Errorf("persist: nil flash: %w", ErrInvalid)
	}
	bs := flash.EraseBlockBytes()
	if bs < headerBytes+recordHead+MaxValueBytes+recordTail {
		return nil, fmt.Errorf("persist: erase block %d too small: %w", bs, ErrInvalid)
	}
	if opts.Offset%bs != 0 || uint64(opts.Offset)+2*uint64(bs) > uint64(flash.SizeBytes()) {
		return nil, fmt.Errorf("persist: region at %d does not fit flash of %d bytes: %w", opts.Offset, flash.SizeBytes(), ErrInvalid)
	}

	s := &Store{
		flash:     flash,
		base:      opts.Offset,
		blockSize: bs,
		values:    make(map[uint32][]byte),
	}
	if err := s.mount(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) blockAddr(i int) uint32 { return s.base + uint32(i)*s.blockSize }

func (s *Store) readHeader(i int) (seq uint32, ok bool) {
	var hdr [headerBytes]byte
	if _, err := s.flash.ReadAt(hdr[:], s.blockAddr(i)); err != nil {
		return 0, false
	}
	if binary.LittleEndian.Uint32(hdr[0:4]) != blockMagic {
		return 0, false
	}
	seq = binary.LittleEndian.Uint32(hdr[4:8])
	if seq == 0xFFFFFFFF {
		return 0, false
	}
	return seq, true
}

func (s *Store) mount() error {
	seq0, ok0 := s.readHeader(0)
	seq1, ok1 := s.readHeader(1)

	switch {
	case !ok0 && !ok1:
		return s.format()
	case ok0 && (!ok1 || seq0 >= seq1):
		s.active, s.seq = 0, seq0
	default:
		s.active, s.seq = 1, seq1
	}

	if err := s.scan(); err != nil {
		if errors.Is(err, ErrCorrupt) {
			return s.compact()
		}
		return err
	}
	return nil
}

func (s *Store) format() error {
	if err := s.flash.Erase(s.blockAddr(0), s.blockSize); err != nil {
		return fmt.Errorf("persist: format: %w", err)
	}
	if err := s.writeHeader(0, 1); err != nil {
		return fmt.Errorf("persist: format: %w", err)
	}
	s.active, s.seq, s.writeOff = 0, 1, headerBytes
	s.values = make(map[uint32][]byte)
	return nil
}

func (s *Store) writeHeader(i int, seq uint32) error {
	var hdr [headerBytes]byte
	binary.LittleEndian.PutUint32(hdr[0:4], blockMagic)
	binary.LittleEndian.PutUint32(hdr[4:8], seq)
	_, err := s.flash.WriteAt(hdr[:], s.blockAddr(i))
	return err
}

// scan replays the active block into the index. It stops at the first erased
// record slot; a damaged record yields ErrCorrupt with the prefix indexed.
func (s *Store) scan() error {
	base := s.blockAddr(s.active)
	off := uint32(headerBytes)
	buf := make([]byte, recordHead+MaxValueBytes+recordTail)

	for off+recordHead <= s.blockSize {
		head := buf[:recordHead]
		if _, err := s.flash.ReadAt(head, base+off); err != nil {
			return fmt.Errorf("persist: read at %d: %w", base+off, err)
		}
		key := binary.LittleEndian.Uint32(head[0:4])
		n := binary.LittleEndian.Uint16(head[4:6])
		if key == erasedKey && n == erasedLen {
			s.writeOff = off
			return nil
		}

		dataLen := uint32(n)
		if n == tombstoneLen {
			dataLen = 0
		} else if dataLen > MaxValueBytes {
			s.writeOff = off
			return ErrCorrupt
		}
		size := recordHead + dataLen + recordTail
		if off+size > s.blockSize {
			s.writeOff = off
			return ErrCorrupt
		}

		rec := buf[:size]
		if _, err := s.flash.ReadAt(rec, base+off); err != nil {
			return fmt.Errorf("persist: read at %d: %w", base+off, err)
		}
		sum := binary.LittleEndian.Uint32(rec[size-recordTail:])
		if crc32.ChecksumIEEE(rec[:size-recordTail]) != sum {
			s.writeOff = off
			return ErrCorrupt
		}

		if n == tombstoneLen {
			delete(s.values, key)
		} else {
			v := make([]byte, dataLen)
			copy(v, rec[recordHead:recordHead+dataLen])
			s.values[key] = v
		}
		off += size
	}
	s.writeOff = s.blockSize
	return nil
}

func encodeRecord(key uint32, data []byte, tombstone bool) []byte {
	n := uint16(len(data))
	if tombstone {
		n = tombstoneLen
		data = nil
	}
	rec := make([]byte, recordHead+len(data)+recordTail)
	binary.LittleEndian.PutUint32(rec[0:4], key)
	binary.LittleEndian.PutUint16(rec[4:6], n)
	copy(rec[recordHead:], data)
	sum := crc32.ChecksumIEEE(rec[:recordHead+len(data)])
	binary.LittleEndian.PutUint32(rec[recordHead+len(data):], sum)
	return rec
}

// compact copies live values into the other block and makes it active.
func (s *Store) compact() error {
	next := 1 - s.active
	base := s.blockAddr(next)
	if err := s.flash.Erase(base, s.blockSize); err != nil {
		return fmt.Errorf("persist: compact erase: %w", err)
	}

	keys := make([]uint32, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	off := uint32(headerBytes)
	for _, k := range keys {
		rec := encodeRecord(k, s.values[k], false)
		if off+uint32(len(rec)) > s.blockSize {
			return ErrNoSpace
		}
		if _, err := s.flash.WriteAt(rec, base+off); err != nil {
			return fmt.Errorf("persist: compact write: %w", err)
		}
		off += uint32(len(rec))
	}
	if err := s.writeHeader(next, s.seq+1); err != nil {
		return fmt.Errorf("persist: compact header: %w", err)
	}
	s.active = next
	s.seq++
	s.writeOff = off
	return nil
}

func (s *Store) appendLocked(rec []byte) error {
	if s.writeOff+uint32(len(rec)) > s.blockSize {
		if err := s.compact(); err != nil {
			return err
		}
		if s.writeOff+uint32(len(rec)) > s.blockSize {
			return ErrNoSpace
		}
	}
	addr := s.blockAddr(s.active) + s.writeOff
	if _, err := s.flash.WriteAt(rec, addr); err != nil {
		// The slot may be partially programmed; never reuse it.
		s.writeOff = s.blockSize
		return fmt.Errorf("persist: write at %d: %w", addr, err)
	}
	s.writeOff += uint32(len(rec))
	return nil
}

// Read returns a copy of the value stored under key.
func (s *Store) Read(key uint32) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Exists reports whether key has a value.
func (s *Store) Exists(key uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	return ok
}

// Write stores data under key, replacing any previous value.
func (s *Store) Write(key uint32, data []byte) error {
	if len(data) > MaxValueBytes {
		return ErrTooLarge
	}
	if key == erasedKey {
		return fmt.Errorf("persist: reserved key: %w", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.appendLocked(encodeRecord(key, data, false)); err != nil {
		return err
	}
	v := make([]byte, len(data))
	copy(v, data)
	s.values[key] = v
	return nil
}

// Delete removes key. Deleting a missing key returns ErrNotFound.
func (s *Store) Delete(key uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.values[key]
	if !ok {
		return ErrNotFound
	}
	delete(s.values, key)
	if err := s.appendLocked(encodeRecord(key, nil, true)); err != nil {
		s.values[key] = prev
		return err
	}
	return nil
}

// Keys returns the stored keys in ascending order.
func (s *Store) Keys() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]uint32, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
