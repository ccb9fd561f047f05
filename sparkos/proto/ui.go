package proto

import (
	"encoding/binary"
	"image"
)

// RectPayload encodes a MsgUnobstructedChange payload.
//
// Layout (little-endian):
//   - i16: min x
//   - i16: min y
//   - i16: max x
//   - i16: max y
func RectPayload(r image.Rectangle) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(int16(r.Min.X)))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(int16(r.Min.Y)))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(int16(r.Max.X)))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(int16(r.Max.Y)))
	return buf
}

// DecodeRectPayload decodes a RectPayload.
func DecodeRectPayload(payload []byte) (image.Rectangle, bool) {
	if len(payload) < 8 {
		return image.Rectangle{}, false
	}
	return image.Rect(
		int(int16(binary.LittleEndian.Uint16(payload[0:2]))),
		int(int16(binary.LittleEndian.Uint16(payload[2:4]))),
		int(int16(binary.LittleEndian.Uint16(payload[4:6]))),
		int(int16(binary.LittleEndian.Uint16(payload[6:8]))),
	), true
}
