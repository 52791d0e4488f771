package lotsplit

import "strings"

// Suffix encodes a 0-based child index as spreadsheet-style column letters:
// 0 -> A, 25 -> Z, 26 -> AA, 27 -> AB, 701 -> ZZ, 702 -> AAA.
func Suffix(index int) string {
	if index < 0 {
		return ""
	}
	var buf [16]byte
	i := len(buf)
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		i--
		buf[i] = byte('A' + (n-1)%26)
	}
	return string(buf[i:])
}

// SuffixIndex decodes a suffix produced by Suffix. ok is false for anything that
// is not a run of upper-case letters.
func SuffixIndex(suffix string) (index int, ok bool) {
	if suffix == "" {
		return 0, false
	}
	n := 0
	for _, r := range suffix {
		if r < 'A' || r > 'Z' {
			return 0, false
		}
		n = n*26 + int(r-'A'+1)
	}
	return n - 1, true
}

// ChildIdentifier derives the identifier of the child at the given index.
func ChildIdentifier(parent string, index int) string {
	return parent + "-" + Suffix(index)
}

// ChildIndex recovers the suffix index of child relative to parent.
func ChildIndex(parent, child string) (int, bool) {
	rest, found := strings.CutPrefix(child, parent+"-")
	if !found {
		return 0, false
	}
	return SuffixIndex(rest)
}
