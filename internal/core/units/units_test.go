package units

import (
	"math/big"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in       string
		decimals int
		want     string
		wantErr  bool
	}{
		{"1", 18, "1000000000000000000", false},
		{"1.5", 18, "1500000000000000000", false},
		{"0.024981836", 9, "24981836", false},
		{"0.000000000000000001", 18, "1", false},
		{"100", 6, "100000000", false},
		{".5", 18, "500000000000000000", false},
		{"0", 18, "0", false},
		{"", 18, "", true},
		{"-1", 18, "", true},
		{"1.2.3", 18, "", true},
		{"abc", 18, "", true},
		{"0.0000001", 6, "", true}, // more decimals than the token has
	}

	for _, tc := range cases {
		got, err := Parse(tc.in, tc.decimals)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q, %d): expected error, got %s", tc.in, tc.decimals, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q, %d): unexpected error: %v", tc.in, tc.decimals, err)
			continue
		}
		if got.String() != tc.want {
			t.Errorf("Parse(%q, %d) = %s, want %s", tc.in, tc.decimals, got, tc.want)
		}
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		in       string
		decimals int
		want     string
	}{
		{"1000000000000000000", 18, "1"},
		{"1500000000000000000", 18, "1.5"},
		{"24981836", 9, "0.024981836"},
		{"1", 18, "0.000000000000000001"},
		{"0", 18, "0"},
	}

	for _, tc := range cases {
		n, _ := new(big.Int).SetString(tc.in, 10)
		if got := Format(n, tc.decimals); got != tc.want {
			t.Errorf("Format(%s, %d) = %q, want %q", tc.in, tc.decimals, got, tc.want)
		}
	}

	if got := Format(nil, 18); got != "0" {
		t.Errorf("Format(nil) = %q, want 0", got)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"1", "1.5", "0.000001", "123456789.987654321"} {
		wei, err := ParseEther(s)
		if err != nil {
			t.Fatalf("ParseEther(%q): %v", s, err)
		}
		if got := FormatWei(wei); got != s {
			t.Errorf("round trip %q -> %s -> %q", s, wei, got)
		}
	}
}
