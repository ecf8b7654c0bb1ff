// Package temporal provides the canonical timestamp representation used by
// every component of the engine. A Time is always a UTC, zone-less instant;
// the only ways to obtain one are Canonicalize, Parse, and Now, so any two
// Time values are directly comparable.
package temporal

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrIncomparableTimestamp is returned when a comparison involves a timestamp
// that never passed through the normalizer. It always indicates a defect in
// the caller, never a recoverable user error.
var ErrIncomparableTimestamp = errors.New("incomparable timestamp: value did not pass through the normalizer")

// WireFormat is the single textual format used for every serialized timestamp.
const WireFormat = time.RFC3339

// DefaultLayerDays is the width of one layer bucket in days (weekly layers).
const DefaultLayerDays = 7

// Time is a canonical instant: UTC, zone-less, produced only by this package.
// The zero value is not canonical and fails comparisons with
// ErrIncomparableTimestamp.
type Time struct {
	t time.Time
}

// Canonicalize converts any time.Time (zone-aware or naive) to the canonical
// representation. Naive values are assumed to already be UTC, matching how
// the layer index interprets them.
func Canonicalize(t time.Time) Time {
	return Time{t: t.UTC()}
}

// Now returns the current instant in canonical form.
func Now() Time {
	return Canonicalize(time.Now())
}

// Parse accepts the timestamp representations the engine ingests:
// RFC3339 with an explicit offset, RFC3339 without an offset (treated as
// UTC), and a bare date. Anything else is an error.
func Parse(s string) (Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Canonicalize(t), nil
		}
	}
	return Time{}, fmt.Errorf("%w: cannot parse %q", ErrIncomparableTimestamp, s)
}

// IsZero reports whether t is the zero value, i.e. was never canonicalized.
func (t Time) IsZero() bool {
	return t.t.IsZero()
}

// Std returns the underlying time.Time (always UTC).
func (t Time) Std() time.Time {
	return t.t
}

// Before reports whether t is strictly before u.
func (t Time) Before(u Time) bool { return t.t.Before(u.t) }

// After reports whether t is strictly after u.
func (t Time) After(u Time) bool { return t.t.After(u.t) }

// Equal reports whether t and u represent the same instant.
func (t Time) Equal(u Time) bool { return t.t.Equal(u.t) }

// Sub returns the duration t-u.
func (t Time) Sub(u Time) time.Duration { return t.t.Sub(u.t) }

// AddDays returns t shifted by the given number of days.
func (t Time) AddDays(days int) Time {
	return Time{t: t.t.Add(time.Duration(days) * 24 * time.Hour)}
}

// Add returns t shifted by d.
func (t Time) Add(d time.Duration) Time {
	return Time{t: t.t.Add(d)}
}

// String formats t in the fixed wire format.
func (t Time) String() string {
	return t.t.Format(WireFormat)
}

// LayerID computes the coarse time bucket for the layer index: the number of
// layerDays-sized periods since the Unix epoch, formatted as "layer_N".
// Buckets are derived from the canonical instant only, so a document always
// lands in exactly one bucket.
func (t Time) LayerID(layerDays int) string {
	return fmt.Sprintf("layer_%d", t.LayerIndex(layerDays))
}

// LayerIndex returns the numeric part of LayerID.
func (t Time) LayerIndex(layerDays int) int {
	if layerDays <= 0 {
		layerDays = DefaultLayerDays
	}
	days := int(t.t.Unix() / (24 * 60 * 60))
	if t.t.Unix() < 0 && t.t.Unix()%(24*60*60) != 0 {
		days--
	}
	layer := days / layerDays
	if days < 0 && days%layerDays != 0 {
		layer--
	}
	return layer
}

// Compare orders two canonical timestamps. Either operand being the zero
// value means a raw, un-normalized timestamp leaked into the engine, which is
// reported as ErrIncomparableTimestamp rather than silently compared.
func Compare(a, b Time) (int, error) {
	if a.IsZero() || b.IsZero() {
		return 0, ErrIncomparableTimestamp
	}
	switch {
	case a.t.Before(b.t):
		return -1, nil
	case a.t.After(b.t):
		return 1, nil
	default:
		return 0, nil
	}
}

// MarshalJSON emits the fixed wire format.
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.t.Format(WireFormat))
}

// UnmarshalJSON accepts the same representations as Parse.
func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
