//go:build !tinygo

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"blotch/hal"
	"blotch/internal/config"
	"blotch/sparkos/persist"
	"blotch/sparkos/tasks/watchface"

	"github.com/spf13/cobra"
)

// settingsCmd groups the persisted settings commands.
func settingsCmd() *cobra.Command {
	var flash string

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and edit persisted watchface settings",
	}
	cmd.PersistentFlags().StringVar(&flash, "flash", "", "Flash image path (default from config, $"+hal.FlashPathEnv+", then blotch.flash)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(flash, func(st *watchface.Store, kv *persist.Store) error {
					w := cmd.OutOrStdout()
					source := "defaults"
					if kv.Exists(watchface.SettingsKey) {
						source = "flash"
					}
					fmt.Fprintf(w, "source:          %s\n", source)
					printSettings(w, st.Settings())

					keys := kv.Keys()
					names := make([]string, len(keys))
					for i, k := range keys {
						names[i] = strconv.FormatUint(uint64(k), 10)
					}
					fmt.Fprintf(w, "stored keys:     [%s]\n", strings.Join(names, " "))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "set option=value...",
			Short: "Merge option values into the persisted settings",
			Long: `Merge option values into the persisted settings. Colors are hex (#RRGGBB),
timeFontChoice is default, alt1 or alt2.`,
			Args: cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				partial := make(map[string]int32, len(args))
				for _, a := range args {
					name, value, ok := strings.Cut(a, "=")
					if !ok {
						return fmt.Errorf("%q: want option=value", a)
					}
					v, err := config.ParseOption(name, value)
					if err != nil {
						return err
					}
					partial[name] = v
				}
				return withStore(flash, func(st *watchface.Store, _ *persist.Store) error {
					s, changed, err := st.Apply(partial)
					if err != nil {
						return err
					}
					if !changed {
						fmt.Fprintln(cmd.OutOrStdout(), "unchanged")
					}
					printSettings(cmd.OutOrStdout(), s)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Remove the persisted settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(flash, func(_ *watchface.Store, kv *persist.Store) error {
					if !kv.Exists(watchface.SettingsKey) {
						fmt.Fprintln(cmd.OutOrStdout(), "no persisted settings")
						return nil
					}
					if err := kv.Delete(watchface.SettingsKey); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "settings reset")
					return nil
				})
			},
		},
	)
	return cmd
}

func withStore(flashPath string, fn func(*watchface.Store, *persist.Store) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if flashPath == "" {
		flashPath = cfg.Flash.Path
	}
	switch flashPath {
	case "none", ":memory:":
		return fmt.Errorf("flash %q has no persisted settings", flashPath)
	}
	defaults, err := cfg.SettingsDefaults()
	if err != nil {
		return err
	}

	flash := hal.OpenFlashFile(flashPath)
	defer func() { _ = flash.Close() }()
	kv, err := persist.Open(flash, persist.Options{Offset: cfg.Flash.Offset})
	if err != nil {
		return err
	}
	st := watchface.NewStore(kv, watchface.StoreOptions{Defaults: &defaults})
	if _, err := st.Load(); err != nil {
		return err
	}
	return fn(st, kv)
}

func printSettings(w io.Writer, s watchface.DisplaySettings) {
	fmt.Fprintf(w, "backgroundColor: #%06X\n", watchface.HexFromColor(s.Background))
	fmt.Fprintf(w, "primaryColor:    #%06X\n", watchface.HexFromColor(s.Primary))
	fmt.Fprintf(w, "secondaryColor:  #%06X\n", watchface.HexFromColor(s.Secondary))
	fmt.Fprintf(w, "highlightColor:  #%06X\n", watchface.HexFromColor(s.Highlight))
	fmt.Fprintf(w, "timeFontChoice:  %s\n", s.TimeFont)
}
