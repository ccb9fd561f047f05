//go:build !tinygo

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"blotch/app"
	"blotch/hal"
	"blotch/internal/buildinfo"
	"blotch/internal/config"
	"blotch/sparkos/proto"
	"blotch/sparkos/tasks/watchface"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "blotch",
		Short:         "Blotch - weekday watchface",
		Long:          `Blotch runs the weekday watchface on an emulated watch and manages its persisted settings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default "+config.DefaultPath+" if present)")

	rootCmd.AddCommand(
		runCmd(),
		settingsCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// runCmd starts the watch in a window or headless.
func runCmd() *cobra.Command {
	var (
		headless bool
		hz       int
		ticks    uint64
		flash    string
		pushes   []string
		snapshot string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the watchface",
		Long: `Run the watchface in a desktop window, or headless for a fixed number of ticks.

Window keys: o overlay, h 12/24h, m +1 minute, d +1 day,
r/g/b/w highlight color, 1/2/3 time font.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if flash != "" {
				cfg.Flash.Path = flash
			}
			appCfg, err := cfg.App()
			if err != nil {
				return err
			}

			msgs, err := parsePushes(pushes, appCfg.Watchface.MessageKeys)
			if err != nil {
				return err
			}

			var (
				host hal.HAL
				sys  *app.System
			)
			newApp := app.NewStepper(appCfg, func(h hal.HAL, s *app.System) {
				host, sys = h, s
				for _, m := range msgs {
					if !hal.Push(h, m) {
						fmt.Fprintln(os.Stderr, "warning: companion queue full, message dropped")
					}
				}
			})

			if !headless {
				presets, err := emulatorPresets(appCfg.Watchface.MessageKeys)
				if err != nil {
					return err
				}
				return hal.RunWindow(cfg.Host(), presets, newApp)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			err = hal.RunHeadless(ctx, cfg.Host(), hal.HeadlessConfig{Hz: hz, Ticks: ticks}, newApp)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			if sys != nil {
				if err := sys.Shutdown(); err != nil {
					return err
				}
			}
			if snapshot != "" && host != nil {
				return writeSnapshot(host, snapshot)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&headless, "headless", false, "Run without a window")
	cmd.Flags().IntVar(&hz, "hz", 60, "Tick rate in headless mode")
	cmd.Flags().Uint64Var(&ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run until interrupted)")
	cmd.Flags().StringVar(&flash, "flash", "", "Flash image path (\"none\" disables persistence, \":memory:\" keeps it in RAM)")
	cmd.Flags().StringArrayVar(&pushes, "push", nil, "Companion message to deliver at start, as option=value (repeatable)")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Write the final frame as PNG (headless only)")

	return cmd
}

func writeSnapshot(h hal.HAL, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := hal.SnapshotPNG(h, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// parsePushes encodes option=value pairs as one companion message each. The
// option is a settings name or a raw numeric message key.
func parsePushes(pushes []string, keys map[uint32]string) ([][]byte, error) {
	if keys == nil {
		keys = watchface.DefaultMessageKeys()
	}
	byName := make(map[string]uint32, len(keys))
	for k, name := range keys {
		if prev, ok := byName[name]; !ok || k < prev {
			byName[name] = k
		}
	}

	out := make([][]byte, 0, len(pushes))
	for _, p := range pushes {
		name, value, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("push %q: want option=value", p)
		}
		var (
			key uint32
			v   int32
		)
		if n, err := strconv.ParseUint(name, 10, 32); err == nil {
			i, err := strconv.ParseInt(value, 0, 32)
			if err != nil {
				return nil, fmt.Errorf("push %q: %w", p, err)
			}
			key, v = uint32(n), int32(i)
		} else {
			k, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("push %q: unknown option %q", p, name)
			}
			i, err := config.ParseOption(name, value)
			if err != nil {
				return nil, fmt.Errorf("push %q: %w", p, err)
			}
			key, v = k, i
		}
		b, err := proto.EncodeAppMessage(proto.AppMessage{key: v})
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// emulatorPresets binds window keys to companion messages.
func emulatorPresets(keys map[uint32]string) (map[rune][]byte, error) {
	pushes := map[rune]string{
		'r': watchface.OptHighlightColor + "=#FF0000",
		'g': watchface.OptHighlightColor + "=#00FF00",
		'b': watchface.OptHighlightColor + "=#0000FF",
		'w': watchface.OptHighlightColor + "=#FFFFFF",
		'1': watchface.OptTimeFontChoice + "=default",
		'2': watchface.OptTimeFontChoice + "=alt1",
		'3': watchface.OptTimeFontChoice + "=alt2",
	}
	presets := make(map[rune][]byte, len(pushes))
	for r, p := range pushes {
		msgs, err := parsePushes([]string{p}, keys)
		if err != nil {
			return nil, err
		}
		presets[r] = msgs[0]
	}
	return presets, nil
}

// versionCmd shows version information
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Blotch %s\n", buildinfo.Version)
			fmt.Printf("  Commit:     %s\n", buildinfo.Commit)
			fmt.Printf("  Build Date: %s\n", buildinfo.Date)
		},
	}
}
