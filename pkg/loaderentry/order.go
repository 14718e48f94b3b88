package loaderentry

import (
	"slices"
	"unicode/utf16"

	"github.com/capezotte/zboot/pkg/versort"
)

// Compare orders two entries. The optional fields are compared with version
// sort in the order sort-key, title, version, initrd, options; the first
// difference decides. Entries equal on all of them are ordered by file
// name, so Compare is a total order.
func Compare(a, b *Entry) int {
	for _, f := range fields {
		if c := versort.Compare(f.get(a), f.get(b)); c != 0 {
			return c
		}
	}
	return slices.Compare(utf16.Encode([]rune(a.Filename)), utf16.Encode([]rune(b.Filename)))
}

// Sort sorts entries in ascending order.
func Sort(entries []*Entry) {
	slices.SortStableFunc(entries, Compare)
}

// SortByPreference sorts entries so that the preferred boot target comes
// first.
func SortByPreference(entries []*Entry) {
	slices.SortStableFunc(entries, func(a, b *Entry) int {
		return Compare(b, a)
	})
}

// Preferred returns the greatest entry, or nil if there are none.
func Preferred(entries []*Entry) *Entry {
	if len(entries) == 0 {
		return nil
	}
	return slices.MaxFunc(entries, Compare)
}
