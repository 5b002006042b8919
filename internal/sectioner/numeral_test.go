package sectioner

import "testing"

func TestResolveNumeral(t *testing.T) {
	tests := []struct {
		token  string
		want   int
		wantOK bool
	}{
		{"1", 1, true},
		{"12", 12, true},
		{"007", 7, true},
		{"I", 1, true},
		{"IV", 4, true},
		{"IX", 9, true},
		{"XIV", 14, true},
		{"XL", 40, true},
		{"MCMXCIV", 1994, true},
		{"iv", 4, true},
		{"vii", 7, true},
		{"", 0, false},
		{"IVa", 0, false},
		{"ABC", 0, false},
		{"1a", 0, false},
		{"1.1", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.token, func(t *testing.T) {
			got, ok := ResolveNumeral(tc.token)
			if ok != tc.wantOK {
				t.Fatalf("ResolveNumeral(%q): expected ok=%v, got %v", tc.token, tc.wantOK, ok)
			}
			if got != tc.want {
				t.Errorf("ResolveNumeral(%q): expected %d, got %d", tc.token, tc.want, got)
			}
		})
	}
}
