package catalog

import "sort"

// KeyDiff compares the key sets of two catalogs, typically a locale against
// the default locale or two snapshots of the same file.
type KeyDiff struct {
	// Missing keys are in the base catalog but not in the other one.
	Missing []string
	// Extra keys are in the other catalog but not in the base.
	Extra []string
	// Placeholders lists keys present in both whose variables differ.
	Placeholders []PlaceholderMismatch
}

// PlaceholderMismatch is one key whose templates reference different
// variables in the two catalogs.
type PlaceholderMismatch struct {
	Key     string
	Missing []string // used in base only
	Extra   []string // used in other only
}

// Empty reports whether the two catalogs agree on keys and placeholders.
func (d KeyDiff) Empty() bool {
	return len(d.Missing) == 0 && len(d.Extra) == 0 && len(d.Placeholders) == 0
}

// Diff reports how other differs from base. Missing follows base's key
// order and Extra follows other's.
func Diff(base, other *Catalog) KeyDiff {
	var d KeyDiff

	for _, k := range base.keys {
		bt := base.templates[k]
		ot, ok := other.templates[k]
		if !ok {
			d.Missing = append(d.Missing, k)
			continue
		}
		missing, extra := diffSets(bt.vars, ot.vars)
		if len(missing) > 0 || len(extra) > 0 {
			d.Placeholders = append(d.Placeholders, PlaceholderMismatch{Key: k, Missing: missing, Extra: extra})
		}
	}

	for _, k := range other.keys {
		if _, ok := base.templates[k]; !ok {
			d.Extra = append(d.Extra, k)
		}
	}

	return d
}

func diffSets(a, b []string) (onlyA, onlyB []string) {
	in := func(s []string, v string) bool {
		for _, x := range s {
			if x == v {
				return true
			}
		}
		return false
	}
	for _, v := range a {
		if !in(b, v) {
			onlyA = append(onlyA, v)
		}
	}
	for _, v := range b {
		if !in(a, v) {
			onlyB = append(onlyB, v)
		}
	}
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	return onlyA, onlyB
}
