package temporal

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "rfc3339 with offset",
			input: "2024-03-01T12:30:00+01:00",
			want:  time.Date(2024, 3, 1, 11, 30, 0, 0, time.UTC),
		},
		{
			name:  "rfc3339 utc",
			input: "2024-03-01T11:30:00Z",
			want:  time.Date(2024, 3, 1, 11, 30, 0, 0, time.UTC),
		},
		{
			name:  "naive datetime treated as utc",
			input: "2024-03-01T11:30:00",
			want:  time.Date(2024, 3, 1, 11, 30, 0, 0, time.UTC),
		},
		{
			name:  "space separated datetime",
			input: "2024-03-01 11:30:00",
			want:  time.Date(2024, 3, 1, 11, 30, 0, 0, time.UTC),
		},
		{
			name:  "date only",
			input: "2024-03-01",
			want:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			input:   "last tuesday",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) succeeded, want error", tt.input)
				}
				if !errors.Is(err, ErrIncomparableTimestamp) {
					t.Errorf("Parse(%q) error = %v, want ErrIncomparableTimestamp", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if !got.Std().Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got.Std(), tt.want)
			}
		})
	}
}

func TestCanonicalizeNormalizesZone(t *testing.T) {
	zoned := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))
	naive := time.Date(2024, 3, 1, 11, 30, 0, 0, time.UTC)

	a := Canonicalize(zoned)
	b := Canonicalize(naive)

	if !a.Equal(b) {
		t.Errorf("zoned and equivalent naive instants differ after canonicalization: %v vs %v", a, b)
	}

	cmp, err := Compare(a, b)
	if err != nil {
		t.Fatalf("Compare returned error for canonical values: %v", err)
	}
	if cmp != 0 {
		t.Errorf("Compare = %d, want 0", cmp)
	}
}

func TestCompareZeroValue(t *testing.T) {
	canonical := Canonicalize(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	var raw Time

	if _, err := Compare(canonical, raw); !errors.Is(err, ErrIncomparableTimestamp) {
		t.Errorf("Compare(canonical, zero) error = %v, want ErrIncomparableTimestamp", err)
	}
	if _, err := Compare(raw, canonical); !errors.Is(err, ErrIncomparableTimestamp) {
		t.Errorf("Compare(zero, canonical) error = %v, want ErrIncomparableTimestamp", err)
	}
}

func TestCompareOrdering(t *testing.T) {
	early := Canonicalize(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	late := Canonicalize(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))

	if cmp, err := Compare(early, late); err != nil || cmp != -1 {
		t.Errorf("Compare(early, late) = %d, %v; want -1, nil", cmp, err)
	}
	if cmp, err := Compare(late, early); err != nil || cmp != 1 {
		t.Errorf("Compare(late, early) = %d, %v; want 1, nil", cmp, err)
	}
}

func TestLayerID(t *testing.T) {
	tests := []struct {
		name string
		a    time.Time
		b    time.Time
		same bool
	}{
		{
			name: "same week same bucket",
			a:    time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 3, 8, 23, 59, 59, 0, time.UTC),
			same: true,
		},
		{
			name: "adjacent weeks differ",
			a:    time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
			same: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			la := Canonicalize(tt.a).LayerID(DefaultLayerDays)
			lb := Canonicalize(tt.b).LayerID(DefaultLayerDays)
			if (la == lb) != tt.same {
				t.Errorf("LayerID(%v)=%s, LayerID(%v)=%s, same=%v, want same=%v",
					tt.a, la, tt.b, lb, la == lb, tt.same)
			}
		})
	}
}

func TestLayerIDDeterministic(t *testing.T) {
	// The zoned and naive forms of the same instant must land in the same
	// bucket, since buckets derive from the canonical instant.
	zoned := Canonicalize(time.Date(2024, 3, 10, 23, 30, 0, 0, time.FixedZone("X", -7200)))
	naive := Canonicalize(time.Date(2024, 3, 11, 1, 30, 0, 0, time.UTC))
	if zoned.LayerID(DefaultLayerDays) != naive.LayerID(DefaultLayerDays) {
		t.Errorf("same instant bucketed differently: %s vs %s",
			zoned.LayerID(DefaultLayerDays), naive.LayerID(DefaultLayerDays))
	}
}

func TestJSONRoundtrip(t *testing.T) {
	orig := Canonicalize(time.Date(2024, 3, 1, 11, 30, 0, 0, time.UTC))
	data, err := orig.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON error: %v", err)
	}
	if string(data) != `"2024-03-01T11:30:00Z"` {
		t.Errorf("MarshalJSON = %s, want %q", data, `"2024-03-01T11:30:00Z"`)
	}

	var decoded Time
	if err := decoded.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON error: %v", err)
	}
	if !decoded.Equal(orig) {
		t.Errorf("roundtrip mismatch: got %v, want %v", decoded, orig)
	}
}
