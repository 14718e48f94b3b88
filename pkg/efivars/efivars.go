// Package efivars reads and writes the loader variables shared with the
// firmware boot manager. Variable payloads are NUL terminated UTF-16LE
// strings; this package is the only place where that encoding is handled.
package efivars

import (
	"errors"

	"github.com/ecks/uefi/efi/efiguid"
	"github.com/ecks/uefi/efi/efivario"
	"github.com/foxboron/go-uefi/efi"
	"golang.org/x/text/encoding/unicode"
)

// LoaderGUIDString is the vendor GUID of the Boot Loader Interface
// variables.
const LoaderGUIDString = "4a67b082-0a4c-41cf-b6c7-440b29bb8c4f"

// LoaderGUID is the parsed LoaderGUIDString.
var LoaderGUID = efiguid.MustFromString(LoaderGUIDString)

// Variable names.
const (
	LoaderEntryDefaultName  = "LoaderEntryDefault"
	LoaderEntryOneShotName  = "LoaderEntryOneShot"
	LoaderEntrySelectedName = "LoaderEntrySelected"
	LoaderEntriesName       = "LoaderEntries"
)

const attributes = efivario.BootServiceAccess | efivario.RuntimeAccess | efivario.NonVolatile

// NewContext returns the platform variable store.
func NewContext() efivario.Context {
	return efivario.NewDefaultContext()
}

// ReadVariable reads a loader variable. A missing variable reads as "".
func ReadVariable(c efivario.Context, name string) (string, error) {
	_, data, err := efivario.ReadAll(c, name, LoaderGUID)
	if err != nil {
		if errors.Is(err, efivario.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return DecodeString(data)
}

// WriteVariable stores value in a loader variable.
func WriteVariable(c efivario.Context, name, value string) error {
	data, err := EncodeString(value)
	if err != nil {
		return err
	}
	return c.Set(name, LoaderGUID, attributes, data)
}

// WriteList stores values as a sequence of NUL terminated strings, the
// layout of LoaderEntries.
func WriteList(c efivario.Context, name string, values []string) error {
	var data []byte
	for _, v := range values {
		b, err := EncodeString(v)
		if err != nil {
			return err
		}
		data = append(data, b...)
	}
	return c.Set(name, LoaderGUID, attributes, data)
}

// EncodeString converts s to NUL terminated UTF-16LE.
func EncodeString(s string) ([]byte, error) {
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, err
	}
	return append(out, 0, 0), nil
}

// DecodeString converts UTF-16LE data to a string, dropping a trailing NUL.
func DecodeString(data []byte) (string, error) {
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	if n := len(out); n > 0 && out[n-1] == 0 {
		out = out[:n-1]
	}
	return string(out), nil
}

// SecureBoot reports whether the firmware enforces Secure Boot.
func SecureBoot() bool {
	return efi.GetSecureBoot() && !efi.GetSetupMode()
}
