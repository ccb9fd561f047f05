//go:build !tinygo && cgo

package hal

import "github.com/hajimehoshi/ebiten/v2"

type hostKeyboard struct {
	ch chan rune
}

func newHostKeyboard() *hostKeyboard {
	return &hostKeyboard{ch: make(chan rune, 64)}
}

func (k *hostKeyboard) events() <-chan rune { return k.ch }

func (k *hostKeyboard) poll() {
	for _, r := range ebiten.AppendInputChars(nil) {
		select {
		case k.ch <- r:
		default:
		}
	}
}
