//go:build !tinygo

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"blotch/hal"
	"blotch/internal/config"
	"blotch/sparkos/persist"
	"blotch/sparkos/tasks/watchface"
)

const (
	defaultFlashPath = "blotch.flash"
	defaultFlashSize = 64 * 1024
	defaultEraseSize = 4096
)

// optionList collects repeated -set option=value flags.
type optionList []string

func (o *optionList) String() string     { return strings.Join(*o, ",") }
func (o *optionList) Set(v string) error { *o = append(*o, v); return nil }

func main() {
	var outPath string
	var flashSize uint
	var eraseSize uint
	var offset uint
	var cfgPath string
	var sets optionList
	flag.StringVar(&outPath, "out", defaultFlashPath, "Output flash image path.")
	flag.UintVar(&flashSize, "size", defaultFlashSize, "Flash image size (bytes).")
	flag.UintVar(&eraseSize, "erase", defaultEraseSize, "Erase block size (bytes).")
	flag.UintVar(&offset, "offset", 0, "Settings store offset (bytes, erase-block aligned).")
	flag.StringVar(&cfgPath, "config", "", "Config file whose defaults seed the settings (default "+config.DefaultPath+" if present).")
	flag.Var(&sets, "set", "Seed a setting as option=value (repeatable).")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "error: -out is required")
		os.Exit(2)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
	defaults, err := cfg.SettingsDefaults()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}

	partial := make(map[string]int32, len(sets))
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			fmt.Fprintf(os.Stderr, "error: -set %q: want option=value\n", s)
			os.Exit(2)
		}
		v, err := config.ParseOption(name, value)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: -set:", err)
			os.Exit(2)
		}
		partial[name] = v
	}

	if err := run(outPath, uint32(flashSize), uint32(eraseSize), uint32(offset), &defaults, partial); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run writes an erased image with a formatted settings store. With any
// option set, the full settings blob (defaults overlaid with partial) is
// written even when it equals the defaults.
func run(outPath string, flashSize, eraseSize, offset uint32, defaults *watchface.DisplaySettings, partial map[string]int32) error {
	ff, err := hal.CreateFlashFile(outPath, flashSize, eraseSize)
	if err != nil {
		return err
	}
	defer func() { _ = ff.Close() }()

	kv, err := persist.Open(ff, persist.Options{Offset: offset})
	if err != nil {
		return err
	}
	if len(partial) == 0 {
		return nil
	}

	st := watchface.NewStore(kv, watchface.StoreOptions{Defaults: defaults})
	if _, err := st.Load(); err != nil {
		return err
	}
	if _, _, err := st.Apply(partial); err != nil {
		return err
	}
	return st.Save()
}
