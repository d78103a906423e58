package pg

import "testing"

func TestCompact(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT id\n\tFROM active_quotes\n\tWHERE id >= $1", "SELECT id FROM active_quotes WHERE id >= $1"},
		{"  leading \r\n and   runs  ", " leading and runs "},
		{"", ""},
	}
	for _, tc := range cases {
		if got := compact(tc.in); got != tc.want {
			t.Fatalf("compact(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
