package gmc

import "time"

type Command uint8

func (c Command) String() string {
	if int(c) >= len(commands) {
		return "UNKNOWN"
	}
	return commands[c].name
}

// Clock is the device real-time clock value: one byte per field, the year
// counted from 2000. The protocol layer does not range-check the fields, the
// device rejects invalid values itself.
type Clock struct {
	Year   uint8
	Month  uint8
	Day    uint8
	Hour   uint8
	Minute uint8
	Second uint8
}

// ClockOf converts a host time to a device clock value.
func ClockOf(t time.Time) Clock {
	return Clock{
		Year:   uint8(t.Year() % 100),
		Month:  uint8(t.Month()),
		Day:    uint8(t.Day()),
		Hour:   uint8(t.Hour()),
		Minute: uint8(t.Minute()),
		Second: uint8(t.Second()),
	}
}

// Time converts the clock value to a host time in the local timezone.
func (c Clock) Time() time.Time {
	return time.Date(2000+int(c.Year), time.Month(c.Month), int(c.Day),
		int(c.Hour), int(c.Minute), int(c.Second), 0, time.Local)
}
