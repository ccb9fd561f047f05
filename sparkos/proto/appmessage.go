package proto

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var ErrAppMessageTooLarge = errors.New("proto: app message too large")

// AppMessage is a companion dictionary: numeric message keys to integer values.
type AppMessage map[uint32]int32

// MaxAppMessageBytes bounds an encoded AppMessage so it fits one IPC message.
const MaxAppMessageBytes = 128

// EncodeAppMessage encodes m as a msgpack map.
func EncodeAppMessage(m AppMessage) ([]byte, error) {
	b, err := msgpack.Marshal(map[uint32]int32(m))
	if err != nil {
		return nil, fmt.Errorf("proto: encode app message: %w", err)
	}
	if len(b) > MaxAppMessageBytes {
		return nil, ErrAppMessageTooLarge
	}
	return b, nil
}

// DecodeAppMessage decodes a msgpack map produced by EncodeAppMessage.
func DecodeAppMessage(b []byte) (AppMessage, error) {
	var m map[uint32]int32
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("proto: decode app message: %w", err)
	}
	if m == nil {
		m = map[uint32]int32{}
	}
	return AppMessage(m), nil
}
