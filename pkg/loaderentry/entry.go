// Package loaderentry parses Boot Loader Specification style entry files
// (one file per bootable target) and ranks the resulting entries.
//
// An entry file is a list of "key value" lines:
//
//	# comment
//	sort-key <text>
//	title <text>
//	version <text>
//	linux <path>
//	initrd <path>
//	options <text>
//
// "efi <path>" may replace "linux <path>". Paths are ESP relative and use
// backslash as separator.
package loaderentry

import (
	"strings"
	"unicode/utf16"
)

// MaxFilenameLength is the longest accepted entry identifier, in UTF-16
// code units.
const MaxFilenameLength = 255

// PayloadKind selects what an entry boots.
type PayloadKind int

// Payload kinds. The zero value is not a valid kind.
const (
	PayloadEFI PayloadKind = iota + 1
	PayloadLinux
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadEFI:
		return "efi"
	case PayloadLinux:
		return "linux"
	}
	return "unknown"
}

// Payload is the image an entry boots: either an EFI executable or a Linux
// kernel, never both.
type Payload struct {
	Kind PayloadKind
	Path string
}

// Entry is one parsed loader entry file. Empty optional fields were not set
// by the file.
type Entry struct {
	Filename string
	SortKey  string
	Title    string
	Version  string
	// Initrd is kept as written; CommandLine normalizes it, unlike
	// Payload.Path which Parse normalizes.
	Initrd   string
	Options  string
	Payload  Payload
}

// field binds an optional key of the entry file to its Entry member.
type field struct {
	key string
	get func(*Entry) string
	set func(*Entry, string)
}

// fields is the ordered list of optional keys. The parser matches lines
// against it and Compare consults it, in this order, to rank entries.
var fields = []field{
	{"sort-key", func(e *Entry) string { return e.SortKey }, func(e *Entry, v string) { e.SortKey = v }},
	{"title", func(e *Entry) string { return e.Title }, func(e *Entry, v string) { e.Title = v }},
	{"version", func(e *Entry) string { return e.Version }, func(e *Entry, v string) { e.Version = v }},
	{"initrd", func(e *Entry) string { return e.Initrd }, func(e *Entry, v string) { e.Initrd = v }},
	{"options", func(e *Entry) string { return e.Options }, func(e *Entry, v string) { e.Options = v }},
}

var payloadKeys = []struct {
	key  string
	kind PayloadKind
}{
	{"efi", PayloadEFI},
	{"linux", PayloadLinux},
}

// ID returns the entry identifier used by firmware variables: the file name
// without its ".conf" suffix.
func (e *Entry) ID() string {
	return strings.TrimSuffix(e.Filename, ".conf")
}

// NormalizePath turns a path as written in an entry file into the canonical
// backslash separated form.
func NormalizePath(p string) string {
	return strings.ReplaceAll(p, "/", `\`)
}

// codeUnits returns the length of s in UTF-16 code units.
func codeUnits(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
