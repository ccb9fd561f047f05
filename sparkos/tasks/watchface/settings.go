package watchface

import (
	"errors"
	"fmt"
	"image/color"
	"sort"

	"blotch/sparkos/persist"
)

// FontChoice selects the time font.
type FontChoice uint8

const (
	FontDefault FontChoice = iota
	FontAlt1
	FontAlt2

	fontChoiceCount
)

func (f FontChoice) String() string {
	switch f {
	case FontDefault:
		return "default"
	case FontAlt1:
		return "alt1"
	case FontAlt2:
		return "alt2"
	default:
		return "unknown"
	}
}

// DisplaySettings is the persisted watchface configuration.
type DisplaySettings struct {
	Background color.RGBA
	Primary    color.RGBA // time
	Secondary  color.RGBA // date and weekdays
	Highlight  color.RGBA // current weekday and underline
	TimeFont   FontChoice
}

// DefaultSettings is white on black with the default time font.
func DefaultSettings() DisplaySettings {
	white := ColorFromHex(0xFFFFFF)
	return DisplaySettings{
		Background: ColorFromHex(0x000000),
		Primary:    white,
		Secondary:  white,
		Highlight:  white,
		TimeFont:   FontDefault,
	}
}

// ColorFromHex converts a packed 0xRRGGBB value to an opaque color.
func ColorFromHex(v int32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}

// HexFromColor packs c as 0xRRGGBB.
func HexFromColor(c color.RGBA) int32 {
	return int32(c.R)<<16 | int32(c.G)<<8 | int32(c.B)
}

// SettingsKey is the persist key of the settings blob.
const SettingsKey = 8642

// settingsBlobBytes is 4 RGB triples followed by the font byte.
const settingsBlobBytes = 4*3 + 1

var errMalformedBlob = errors.New("watchface: malformed settings blob")

func (s DisplaySettings) encode() []byte {
	b := make([]byte, 0, settingsBlobBytes)
	for _, c := range []color.RGBA{s.Background, s.Primary, s.Secondary, s.Highlight} {
		b = append(b, c.R, c.G, c.B)
	}
	return append(b, byte(s.TimeFont))
}

// decodeSettings overlays blob on base. Fields missing from a short blob keep
// their base value; an oversized blob is rejected whole.
func decodeSettings(base DisplaySettings, blob []byte) (DisplaySettings, error) {
	if len(blob) > settingsBlobBytes {
		return base, fmt.Errorf("%w: %d bytes", errMalformedBlob, len(blob))
	}
	out := base
	colors := []*color.RGBA{&out.Background, &out.Primary, &out.Secondary, &out.Highlight}
	for i, c := range colors {
		off := i * 3
		if off+3 > len(blob) {
			return out, nil
		}
		*c = color.RGBA{R: blob[off], G: blob[off+1], B: blob[off+2], A: 0xFF}
	}
	if len(blob) == settingsBlobBytes {
		if f := FontChoice(blob[12]); f < fontChoiceCount {
			out.TimeFont = f
		} else {
			out.TimeFont = FontDefault
		}
	}
	return out, nil
}

// Field identifies one DisplaySettings field.
type Field uint8

const (
	FieldBackground Field = iota + 1
	FieldPrimary
	FieldSecondary
	FieldHighlight
	FieldTimeFont
)

// Option names understood by DefaultOptionKeys.
const (
	OptBackgroundColor = "backgroundColor"
	OptPrimaryColor    = "primaryColor"
	OptSecondaryColor  = "secondaryColor"
	OptHighlightColor  = "highlightColor"
	OptUnderlineColor  = "underlineColor"
	OptTimeFontChoice  = "timeFontChoice"
)

// DefaultOptionKeys maps option names to fields. underlineColor is an older
// name for the highlight color.
func DefaultOptionKeys() map[string]Field {
	return map[string]Field{
		OptBackgroundColor: FieldBackground,
		OptPrimaryColor:    FieldPrimary,
		OptSecondaryColor:  FieldSecondary,
		OptHighlightColor:  FieldHighlight,
		OptUnderlineColor:  FieldHighlight,
		OptTimeFontChoice:  FieldTimeFont,
	}
}

// Persister is the key/value blob collaborator (see persist.Store).
type Persister interface {
	Read(key uint32) ([]byte, error)
	Write(key uint32, data []byte) error
}

// StoreOptions configures a Store. Zero values select the defaults.
type StoreOptions struct {
	Key      uint32
	Keys     map[string]Field
	Defaults *DisplaySettings
}

// Store owns the in-memory settings and their persisted copy.
//
// The in-memory value is authoritative. A failed write leaves the store
// pending until Flush or the next change succeeds.
type Store struct {
	p        Persister
	key      uint32
	keys     map[string]Field
	defaults DisplaySettings

	cur     DisplaySettings
	pending bool
}

func NewStore(p Persister, opts StoreOptions) *Store {
	s := &Store{p: p, key: opts.Key, keys: opts.Keys, defaults: DefaultSettings()}
	if s.key == 0 {
		s.key = SettingsKey
	}
	if s.keys == nil {
		s.keys = DefaultOptionKeys()
	}
	if opts.Defaults != nil {
		s.defaults = *opts.Defaults
	}
	s.cur = s.defaults
	return s
}

// Load resets to defaults overlaid with the persisted blob, if any.
//
// The returned settings are always usable; a non-nil error reports a read
// failure or malformed blob that was replaced by defaults.
func (s *Store) Load() (DisplaySettings, error) {
	s.cur = s.defaults
	s.pending = false
	if s.p == nil {
		return s.cur, nil
	}
	blob, err := s.p.Read(s.key)
	if errors.Is(err, persist.ErrNotFound) {
		return s.cur, nil
	}
	if err != nil {
		return s.cur, fmt.Errorf("watchface: read settings: %w", err)
	}
	s.cur, err = decodeSettings(s.defaults, blob)
	return s.cur, err
}

// Settings returns the current settings.
func (s *Store) Settings() DisplaySettings { return s.cur }

// Pending reports whether the last change has not been persisted yet.
func (s *Store) Pending() bool { return s.pending }

// Apply merges a partial update by option name. Unknown names and
// out-of-range font values are ignored. changed reports whether any field
// value differs; only then is the full blob written, once.
//
// A write error is returned for logging; the new settings stay in effect.
func (s *Store) Apply(partial map[string]int32) (DisplaySettings, bool, error) {
	next := s.cur
	names := make([]string, 0, len(partial))
	for name := range partial {
		names = append(names, name)
	}
	// Deterministic order when aliases name the same field.
	sort.Strings(names)

	for _, name := range names {
		v := partial[name]
		switch s.keys[name] {
		case FieldBackground:
			next.Background = ColorFromHex(v)
		case FieldPrimary:
			next.Primary = ColorFromHex(v)
		case FieldSecondary:
			next.Secondary = ColorFromHex(v)
		case FieldHighlight:
			next.Highlight = ColorFromHex(v)
		case FieldTimeFont:
			if v >= 0 && v < int32(fontChoiceCount) {
				next.TimeFont = FontChoice(v)
			}
		}
	}
	changed, err := s.Replace(next)
	return s.cur, changed, err
}

// Replace sets every field at once, persisting when anything changed.
func (s *Store) Replace(next DisplaySettings) (bool, error) {
	if next == s.cur {
		return false, nil
	}
	s.cur = next
	s.pending = true
	return true, s.Flush()
}

// Save writes the current settings even when they equal the persisted ones.
func (s *Store) Save() error {
	s.pending = true
	return s.Flush()
}

// Flush writes the current settings if a previous write failed.
func (s *Store) Flush() error {
	if !s.pending {
		return nil
	}
	if s.p == nil {
		s.pending = false
		return nil
	}
	if err := s.p.Write(s.key, s.cur.encode()); err != nil {
		return fmt.Errorf("watchface: write settings: %w", err)
	}
	s.pending = false
	return nil
}
