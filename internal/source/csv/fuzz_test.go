package csv

import (
	"strconv"
	"testing"
)

func FuzzFastParseKey(f *testing.F) {
	seeds := []string{"0", "1", "42", "0042", "9999999999999999999", "18446744073709551615", "", "-1", "+1", "1a", " 7"}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, s string) {
		n, ok := fastParseKey(s)
		if !ok {
			return
		}
		want, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			// fastParseKey only returns ok for short digit-only strings.
			t.Fatalf("fastParseKey ok but ParseUint failed for %q", s)
		}
		if n != want {
			t.Fatalf("fastParseKey(%q) = %d, want %d", s, n, want)
		}
	})
}
