package sectioner

import "strings"

var romanValues = map[byte]int{
	'I': 1,
	'V': 5,
	'X': 10,
	'L': 50,
	'C': 100,
	'D': 500,
	'M': 1000,
}

// ResolveNumeral converts an Arabic or Roman numeral token to its integer
// value. Roman tokens are decoded case-insensitively from the right: a letter
// worth less than its right neighbour is subtracted, otherwise added.
// ok is false for an empty token or any letter outside IVXLCDM.
func ResolveNumeral(token string) (value int, ok bool) {
	if token == "" {
		return 0, false
	}
	if isDigits(token) {
		n := 0
		for i := 0; i < len(token); i++ {
			n = n*10 + int(token[i]-'0')
			if n > 1<<30 {
				return 0, false
			}
		}
		return n, true
	}

	upper := strings.ToUpper(token)
	total, prev := 0, 0
	for i := len(upper) - 1; i >= 0; i-- {
		v, known := romanValues[upper[i]]
		if !known {
			return 0, false
		}
		if v < prev {
			total -= v
		} else {
			total += v
		}
		prev = v
	}
	return total, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
