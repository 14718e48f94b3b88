package loaderentry

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNameTooLong is returned when the entry identifier exceeds
	// MaxFilenameLength.
	ErrNameTooLong = errors.New("entry file name too long")
	// ErrNoPayload is returned when no efi or linux line was found.
	ErrNoPayload = errors.New("no efi or linux payload")
)

// maxLineLength bounds a single line of an entry file.
const maxLineLength = 1 << 20

// ParseError reports which entry file failed to parse.
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("loader entry %q: %v", e.Filename, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse reads an entry file from r. filename identifies the entry and is
// the last ordering tie-break.
//
// Lines starting with '#' and lines with unknown keys are ignored. A key
// must be followed by a single space; the value is trimmed of spaces and
// tabs. A later non-empty value for the same key replaces an earlier one,
// an empty value leaves it untouched.
func Parse(filename string, r io.Reader) (*Entry, error) {
	if codeUnits(filename) > MaxFilenameLength {
		return nil, &ParseError{Filename: filename, Err: ErrNameTooLong}
	}

	entry := &Entry{Filename: filename}
	found := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, maxLineLength)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		if parseField(entry, line) {
			continue
		}
		if parsePayload(entry, line) {
			found = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Filename: filename, Err: err}
	}
	if !found {
		return nil, &ParseError{Filename: filename, Err: ErrNoPayload}
	}
	return entry, nil
}

// ParseFile parses the entry file at path, using its base name as the
// identifier.
func ParseFile(path string) (*Entry, error) {
	name := filepath.Base(path)
	if codeUnits(name) > MaxFilenameLength {
		return nil, &ParseError{Filename: name, Err: ErrNameTooLong}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Filename: name, Err: err}
	}
	defer f.Close()
	return Parse(name, f)
}

// parseField applies line to the optional field it names, if any, and
// reports whether a key matched.
func parseField(entry *Entry, line string) bool {
	for _, f := range fields {
		value, ok := cutKey(line, f.key)
		if !ok {
			continue
		}
		if value != "" {
			f.set(entry, value)
		}
		return true
	}
	return false
}

// parsePayload sets the payload from an efi or linux line and reports
// whether a non-empty payload was set.
func parsePayload(entry *Entry, line string) bool {
	for _, p := range payloadKeys {
		value, ok := cutKey(line, p.key)
		if !ok {
			continue
		}
		value = NormalizePath(value)
		if value == "" {
			return false
		}
		entry.Payload = Payload{Kind: p.kind, Path: value}
		return true
	}
	return false
}

func cutKey(line, key string) (string, bool) {
	value, ok := strings.CutPrefix(line, key+" ")
	if !ok {
		return "", false
	}
	return strings.Trim(value, " \t"), true
}
