package goupi

import (
	"math"
	"strconv"
	"time"
)

// Value is a single configuration value parsed from TOML.
// The set of implementations is closed: String, Integer, Float, Boolean,
// Datetime, Array and Table.
type Value interface {
	// String returns the text substituted for the value in a template.
	String() string
	isValue()
}

// String is a TOML string.
type String string

// Integer is a TOML integer.
type Integer int64

// Float is a TOML float.
type Float float64

// Boolean is a TOML boolean.
type Boolean bool

// Array is a TOML array. Its template text is the literal "[array]".
type Array []Value

// Table is a TOML table. Its template text is the literal "[table]".
type Table map[string]Value

func (v String) String() string  { return string(v) }
func (v Integer) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Boolean) String() string { return strconv.FormatBool(bool(v)) }
func (Array) String() string     { return "[array]" }
func (Table) String() string     { return "[table]" }

func (v Float) String() string {
	f := float64(v)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (String) isValue()   {}
func (Integer) isValue()  {}
func (Float) isValue()    {}
func (Boolean) isValue()  {}
func (Datetime) isValue() {}
func (Array) isValue()    {}
func (Table) isValue()    {}

// DatetimeKind distinguishes the four TOML date/time flavours.
type DatetimeKind int

const (
	OffsetDatetime DatetimeKind = iota
	LocalDatetime
	LocalDate
	LocalTime
)

// Datetime is a TOML date, time or datetime. Kind decides which parts of
// Time are significant when the value is printed.
type Datetime struct {
	Time time.Time
	Kind DatetimeKind
}

// String returns the canonical TOML text of the value, e.g.
// "1979-05-27T07:32:00Z", "1979-05-27T07:32:00", "1979-05-27" or "07:32:00".
func (v Datetime) String() string {
	const clock = "15:04:05.999999999"
	switch v.Kind {
	case LocalDatetime:
		return v.Time.Format("2006-01-02T" + clock)
	case LocalDate:
		return v.Time.Format("2006-01-02")
	case LocalTime:
		return v.Time.Format(clock)
	default:
		return v.Time.Format("2006-01-02T" + clock + "Z07:00")
	}
}
