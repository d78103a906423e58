package oid

import (
	"strings"
	"testing"
	"time"

	perr "quotary/internal/platform/errors"
)

func TestNewShape(t *testing.T) {
	t.Parallel()

	id := New()
	if len(id) != Len {
		t.Fatalf("len = %d, want %d", len(id), Len)
	}
	if err := Validate(id); err != nil {
		t.Fatalf("Validate(New()) = %v", err)
	}
	if id != strings.ToLower(id) {
		t.Fatalf("id not lowercase: %q", id)
	}
}

func TestNewAtOrdering(t *testing.T) {
	t.Parallel()

	a := NewAt(time.Unix(1_700_000_000, 0))
	b := NewAt(time.Unix(1_700_000_100, 0))
	if !(a < b) {
		t.Fatalf("expected %q < %q", a, b)
	}
}

func TestNewAtTimestampRoundTrip(t *testing.T) {
	t.Parallel()

	want := time.Unix(1_700_000_000, 0).UTC()
	got, err := Timestamp(NewAt(want))
	if err != nil {
		t.Fatalf("Timestamp: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", got, want)
	}
}

func TestNewMonotonicWithinSecond(t *testing.T) {
	t.Parallel()

	ts := time.Unix(1_700_000_000, 0)
	prev := NewAt(ts)
	for i := 0; i < 100; i++ {
		cur := NewAt(ts)
		if !(prev < cur) {
			t.Fatalf("ids not increasing: %q then %q", prev, cur)
		}
		prev = cur
	}
}

func TestCounterSeedLeavesHeadroom(t *testing.T) {
	// the seed is masked to 23 bits so the encoded 24-bit window cannot
	// wrap mid-run; allow for increments from tests already executed
	if c := counter.Load(); c > 0x7FFFFF+1_000_000 {
		t.Fatalf("counter = %#x, seeded past the wrap headroom", c)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		ok   bool
	}{
		{"valid", "65f1a2b3c4d5e6f708192a3b", true},
		{"empty", "", false},
		{"short", "65f1a2b3", false},
		{"long", "65f1a2b3c4d5e6f708192a3b00", false},
		{"nonhex", "65f1a2b3c4d5e6f708192a3z", false},
		{"uppercase", strings.ToUpper("65f1a2b3c4d5e6f708192a3b"), false},
		{"mixed case", "65F1a2b3c4d5e6f708192a3b", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.in)
			if tc.ok && err != nil {
				t.Fatalf("Validate(%q) = %v, want nil", tc.in, err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatalf("Validate(%q) = nil, want error", tc.in)
				}
				if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
					t.Fatalf("code = %v, want invalid argument", perr.CodeOf(err))
				}
			}
		})
	}
}

func TestNext(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "000000000000000000000000", "000000000000000000000001"},
		{"carry", "0000000000000000000000ff", "000000000000000000000100"},
		{"midrange", "65f1a2b3c4d5e6f708192a3b", "65f1a2b3c4d5e6f708192a3c"},
		{"wrap", "ffffffffffffffffffffffff", "000000000000000000000000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Next(tc.in)
			if err != nil {
				t.Fatalf("Next(%q) = %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("Next(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}

	if _, err := Next("nope"); err == nil {
		t.Fatal("Next on malformed id should error")
	}
}
