package updater

import (
	"regexp"
	"strconv"
	"strings"
)

// snapshotRE matches snapshot ids like "23w31a": two-digit year, week
// number, one-letter revision.
var snapshotRE = regexp.MustCompile(`^(\d{2})w(\d{2})([a-z])$`)

// Compare orders two version ids by release order, not lexically:
// 1.16.5 < 1.17 < 1.17.1, and 23w31a < 23w33a. It returns -1, 0, or 1.
//
// Release ids compare component-wise as numbers, with missing
// components treated as zero. Snapshot ids compare by year, week,
// revision. When the forms differ the snapshot sorts after the
// release; snapshots are only published past the newest release, and
// callers comparing across forms should prefer manifest release
// timestamps where available.
func Compare(a, b string) int {
	aSnap := snapshotRE.MatchString(a)
	bSnap := snapshotRE.MatchString(b)

	switch {
	case aSnap && bSnap:
		return strings.Compare(a, b) // year/week/revision are zero-padded
	case aSnap:
		return 1
	case bSnap:
		return -1
	}

	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		av, bv := 0, 0
		if i < len(as) {
			av = numericPrefix(as[i])
		}
		if i < len(bs) {
			bv = numericPrefix(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(a, b)
}

// numericPrefix parses the leading digits of a version component, so
// pre-release ids like "1.16.5-rc1" still order by their numeric part.
func numericPrefix(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
