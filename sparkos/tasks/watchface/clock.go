package watchface

import "time"

// ClockSample is the part of the wall-clock time the watchface renders.
type ClockSample struct {
	Hour    int
	Minute  int
	Day     int
	Month   time.Month
	Weekday int // 0 = Sunday .. 6 = Saturday
}

// Sample extracts a ClockSample from now in now's location.
func Sample(now time.Time) ClockSample {
	return ClockSample{
		Hour:    now.Hour(),
		Minute:  now.Minute(),
		Day:     now.Day(),
		Month:   now.Month(),
		Weekday: int(now.Weekday()),
	}
}

// ClockStyle controls time formatting.
type ClockStyle struct {
	Use24h bool
	// Pad prefixes 12-hour values below 10; 0 disables padding.
	Pad byte
}

// Text capacities of the time and date elements.
const (
	maxTimeLen = 5
	maxDateLen = 16
)

// FormatTime renders "HH:MM" (24-hour) or "H:MM" (12-hour, no leading zero,
// optionally padded with style.Pad).
func FormatTime(hour, minute int, style ClockStyle) string {
	var buf [maxTimeLen]byte
	b := buf[:0]

	h := hour
	if !style.Use24h {
		h = hour % 12
		if h == 0 {
			h = 12
		}
	}
	switch {
	case h >= 10:
		b = append(b, byte('0'+h/10))
	case style.Use24h:
		b = append(b, '0')
	case style.Pad != 0:
		b = append(b, style.Pad)
	}
	b = append(b, byte('0'+h%10), ':', byte('0'+minute/10), byte('0'+minute%10))
	return string(b)
}

// FormatDate renders "October 06".
func FormatDate(month time.Month, day int) string {
	var buf [maxDateLen]byte
	b := append(buf[:0], FormatMonth(month)...)
	b = append(b, ' ', byte('0'+day/10), byte('0'+day%10))
	if len(b) > maxDateLen {
		b = b[:maxDateLen]
	}
	return string(b)
}

// FormatMonth renders the English month name.
func FormatMonth(month time.Month) string {
	if month < time.January || month > time.December {
		return ""
	}
	return month.String()
}

// FormatDaySuffix renders the day with its English ordinal suffix ("6th").
func FormatDaySuffix(day int) string {
	suffix := "th"
	switch {
	case day%100 >= 11 && day%100 <= 13:
	case day%10 == 1:
		suffix = "st"
	case day%10 == 2:
		suffix = "nd"
	case day%10 == 3:
		suffix = "rd"
	}
	var buf [4]byte
	b := buf[:0]
	if day >= 10 {
		b = append(b, byte('0'+day/10%10))
	}
	b = append(b, byte('0'+day%10))
	return string(append(b, suffix...))
}
