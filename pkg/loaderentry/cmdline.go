package loaderentry

import "strings"

// CommandLine returns the kernel command line for the entry: the options
// followed by an initrd= argument when an initrd is set.
func (e *Entry) CommandLine() string {
	var b strings.Builder
	if e.Options != "" {
		b.WriteString(e.Options)
		b.WriteByte(' ')
	}
	if e.Initrd != "" {
		b.WriteString("initrd=")
		b.WriteString(NormalizePath(e.Initrd))
		b.WriteByte(' ')
	}
	return strings.TrimSuffix(b.String(), " ")
}

// String returns a human readable label for the entry.
func (e *Entry) String() string {
	name := e.Title
	if name == "" {
		switch e.Payload.Kind {
		case PayloadLinux:
			name = "Linux " + e.Payload.Path
		case PayloadEFI:
			name = "EFI executable " + e.Payload.Path
		}
	}
	if e.Version != "" {
		name += " (" + e.Version + ")"
	}
	if name == "" {
		return e.Filename
	}
	return name
}
