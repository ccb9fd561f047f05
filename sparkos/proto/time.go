package proto

import (
	"encoding/binary"
	"time"
)

// TimeUnits is a bit set of calendar units.
type TimeUnits uint8

const (
	SecondUnit TimeUnits = 1 << iota
	MinuteUnit
	HourUnit
	DayUnit
	MonthUnit
	YearUnit
)

// ChangedUnits reports which units differ between prev and now.
//
// A coarser unit implies every finer one, so a new day also reports a new
// hour, minute and second. A zero prev reports every unit.
func ChangedUnits(prev, now time.Time) TimeUnits {
	if prev.IsZero() {
		return SecondUnit | MinuteUnit | HourUnit | DayUnit | MonthUnit | YearUnit
	}
	var u TimeUnits
	switch {
	case prev.Year() != now.Year():
		u |= YearUnit
		fallthrough
	case prev.Month() != now.Month():
		u |= MonthUnit
		fallthrough
	case prev.Day() != now.Day():
		u |= DayUnit
		fallthrough
	case prev.Hour() != now.Hour():
		u |= HourUnit
		fallthrough
	case prev.Minute() != now.Minute():
		u |= MinuteUnit
		fallthrough
	case prev.Second() != now.Second():
		u |= SecondUnit
	}
	return u
}

// TickSubscribePayload encodes a MsgTickSubscribe request payload.
//
// Layout:
//   - u8: units mask
//
// The reply endpoint travels as the message capability.
func TickSubscribePayload(units TimeUnits) []byte {
	return []byte{byte(units)}
}

// DecodeTickSubscribePayload decodes a TickSubscribePayload.
func DecodeTickSubscribePayload(payload []byte) (units TimeUnits, ok bool) {
	if len(payload) < 1 {
		return 0, false
	}
	return TimeUnits(payload[0]), true
}

// Tick is the decoded form of a MsgTick payload.
type Tick struct {
	Unix       int64
	ZoneOffset int32
	Changed    TimeUnits
	Clock24    bool
}

// Time returns the tick instant in its original zone offset.
func (t Tick) Time() time.Time {
	return time.Unix(t.Unix, 0).In(time.FixedZone("", int(t.ZoneOffset)))
}

// TickPayload encodes a MsgTick payload.
//
// Layout (little-endian):
//   - i64: unix seconds
//   - i32: zone offset seconds east of UTC
//   - u8: changed units
//   - u8: flags (bit0: 24-hour clock)
func TickPayload(now time.Time, changed TimeUnits, clock24 bool) []byte {
	_, offset := now.Zone()
	buf := make([]byte, 14)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(now.Unix()))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(int32(offset)))
	buf[12] = byte(changed)
	if clock24 {
		buf[13] = 1
	}
	return buf
}

// DecodeTickPayload decodes a TickPayload.
func DecodeTickPayload(payload []byte) (Tick, bool) {
	if len(payload) < 14 {
		return Tick{}, false
	}
	return Tick{
		Unix:       int64(binary.LittleEndian.Uint64(payload[0:8])),
		ZoneOffset: int32(binary.LittleEndian.Uint32(payload[8:12])),
		Changed:    TimeUnits(payload[12]),
		Clock24:    payload[13]&1 != 0,
	}, true
}
