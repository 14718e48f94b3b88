// Package versort compares strings the way GNU version sort does: runs of
// digits compare by magnitude, letters sort after punctuation, and a
// leading tilde is significant.
package versort

// Compare returns -1 if a sorts before b, 0 if they are equal and 1 if a
// sorts after b.
//
// When exactly one of the remaining substrings starts with '~', that side
// sorts after the other one.
func Compare(a, b string) int {
	for a != "" || b != "" {
		aTilde := a != "" && a[0] == '~'
		bTilde := b != "" && b[0] == '~'
		if aTilde != bTilde {
			if aTilde {
				return 1
			}
			return -1
		}

		aText, aNum, aRest := splitSegment(a)
		bText, bNum, bRest := splitSegment(b)

		if c := compareText(aText, bText); c != 0 {
			return c
		}
		if c := compareNumber(aNum, bNum); c != 0 {
			return c
		}
		a, b = aRest, bRest
	}
	return 0
}

// Less reports whether a sorts strictly before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// splitSegment cuts s into the text before its first digit run, the digit
// run itself and whatever follows it. Without digits, text is all of s.
func splitSegment(s string) (text, num, rest string) {
	start := 0
	for start < len(s) && !isDigit(s[start]) {
		start++
	}
	end := start
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	return s[:start], s[start:end], s[end:]
}

// compareText compares two non-digit runs byte by byte. Letters rank above
// anything else at the same position; the shorter run wins a tie.
func compareText(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ca, cb := a[i], b[i]
		if aAlpha, bAlpha := isAlpha(ca), isAlpha(cb); aAlpha != bAlpha {
			if aAlpha {
				return 1
			}
			return -1
		}
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// compareNumber compares two digit runs by value. An empty run is zero.
// Runs of any length are accepted.
func compareNumber(a, b string) int {
	a, b = trimZeros(a), trimZeros(b)
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func trimZeros(s string) string {
	for s != "" && s[0] == '0' {
		s = s[1:]
	}
	return s
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
