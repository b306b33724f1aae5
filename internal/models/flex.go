package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FlexString is a string field the backend may send either quoted or as a
// bare number (status codes, client ids).
type FlexString string

// UnmarshalJSON accepts a JSON string, number, boolean or null.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if b[0] == '{' || b[0] == '[' {
		return fmt.Errorf("flex string: unexpected JSON value %s", b)
	}
	*f = FlexString(b)
	return nil
}

func (f FlexString) String() string { return string(f) }

// FlexInt is an integer field the backend may send as 1, 1.0 or "1".
type FlexInt int64

// UnmarshalJSON accepts an integral JSON number, a numeric string or null.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = FlexInt(n)
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) ||
		n >= math.MaxInt64 || n < math.MinInt64 {
		return fmt.Errorf("flex int: unexpected JSON value %s", b)
	}
	*f = FlexInt(n)
	return nil
}

func (f FlexInt) Int64() int64 { return int64(f) }

// Timestamp is a point in time as reported by the backend. It keeps the raw
// text for values that are not recognisable times.
type Timestamp struct {
	raw string
	t   time.Time
	ok  bool
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// NewTimestamp builds a Timestamp for a known time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{raw: strconv.FormatInt(t.UnixMilli(), 10), t: t, ok: true}
}

// ParseTimestamp interprets raw as epoch seconds, milliseconds, microseconds
// or nanoseconds (chosen by magnitude) or as a datetime string. Anything else is
// kept verbatim and reported as not a time.
func ParseTimestamp(raw string) Timestamp {
	raw = strings.TrimSpace(raw)
	ts := Timestamp{raw: raw}
	if raw == "" {
		return ts
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		ts.t, ts.ok = fromEpoch(n), true
		return ts
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			ts.t, ts.ok = t, true
			return ts
		}
	}
	return ts
}

func fromEpoch(n float64) time.Time {
	switch {
	case n >= 1e17:
		return time.Unix(0, int64(n))
	case n >= 1e14:
		return time.UnixMicro(int64(n))
	case n >= 1e11:
		return time.UnixMilli(int64(n))
	default:
		sec := int64(n)
		return time.Unix(sec, int64((n-float64(sec))*1e9))
	}
}

// UnmarshalJSON accepts numbers, strings and null.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = ParseTimestamp(s)
		return nil
	}
	if b[0] == '{' || b[0] == '[' || b[0] == 't' || b[0] == 'f' {
		return fmt.Errorf("timestamp: unexpected JSON value %s", b)
	}
	*t = ParseTimestamp(string(b))
	return nil
}

// MarshalJSON writes the raw value back, as a number when it is one.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.raw == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseFloat(t.raw, 64); err == nil {
		return []byte(t.raw), nil
	}
	return json.Marshal(t.raw)
}

// Time returns the parsed time and whether the raw value was a time at all.
func (t Timestamp) Time() (time.Time, bool) { return t.t, t.ok }

// IsZero reports whether the backend sent nothing.
func (t Timestamp) IsZero() bool { return t.raw == "" }

func (t Timestamp) String() string { return t.raw }
