//go:build !tinygo && !cgo

package hal

type hostKeyboard struct {
	ch chan rune
}

func newHostKeyboard() *hostKeyboard {
	return &hostKeyboard{ch: make(chan rune, 64)}
}

func (k *hostKeyboard) events() <-chan rune { return k.ch }

func (k *hostKeyboard) poll() {
	// No keyboard support without the window backend.
}
