package utils

import "strings"

// NormalizeISBN strips separators from an ISBN-10 or ISBN-13 and checks its
// check digit. ok is false when the input is not a well-formed ISBN.
func NormalizeISBN(isbn string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(isbn) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteByte('X')
		case r == '-' || r == ' ':
		default:
			return "", false
		}
	}
	cleaned := b.String()
	switch len(cleaned) {
	case 10:
		return cleaned, validISBN10(cleaned)
	case 13:
		return cleaned, validISBN13(cleaned)
	}
	return "", false
}

func validISBN10(s string) bool {
	sum := 0
	for i := 0; i < 10; i++ {
		var d int
		switch {
		case s[i] == 'X' && i == 9:
			d = 10
		case s[i] >= '0' && s[i] <= '9':
			d = int(s[i] - '0')
		default:
			return false
		}
		sum += d * (10 - i)
	}
	return sum%11 == 0
}

func validISBN13(s string) bool {
	sum := 0
	for i := 0; i < 13; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		d := int(s[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return sum%10 == 0
}
