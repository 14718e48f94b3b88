// Package localboot boots the preferred loader entry found on a local EFI
// system partition.
package localboot

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ecks/uefi/efi/efivario"

	"github.com/capezotte/zboot/pkg/bootconfig"
	"github.com/capezotte/zboot/pkg/crypto"
	"github.com/capezotte/zboot/pkg/efivars"
	"github.com/capezotte/zboot/pkg/loaderentry"
	"github.com/capezotte/zboot/pkg/storage"
)

var (
	// ErrNoEntries is returned when no loader entry could be parsed.
	ErrNoEntries = errors.New("no loader entries found")
	// ErrNoBootableEntry is returned when every candidate failed to boot.
	ErrNoBootableEntry = errors.New("no bootable loader entry")
)

// Debug prints verbose progress. Commands point it at log.Printf.
var Debug = func(string, ...interface{}) {}

// kexecBoot starts the kernel of bc. Tests replace it.
var kexecBoot = func(bc *bootconfig.BootConfig) error {
	return bc.Boot()
}

// mountDevice mounts device read-only on root. Tests replace it, together
// with unmountDevice.
var mountDevice = func(device, root string) (*storage.Mountpoint, error) {
	filesystems, err := storage.GetSupportedFilesystems()
	if err != nil {
		return nil, err
	}
	return storage.Mount(device, root, filesystems)
}

var unmountDevice = storage.Unmount

// Options controls Boot.
type Options struct {
	// Root is the directory the ESP is, or will be, mounted on.
	Root string
	// Device is mounted read-only on Root first, if set.
	Device string
	// Bundle boots from a zip bundle instead of Root, verified with
	// PublicKey if that is set.
	Bundle    string
	PublicKey string
	// EntriesDir is relative to the ESP root. Defaults to loader/entries.
	EntriesDir string
	// Entry is a glob matched against entry IDs and file names. When
	// empty, the firmware LoaderEntryDefault variable is used.
	Entry string
	// Vars gives access to the firmware loader variables; nil disables
	// them.
	Vars efivario.Context
	// Measure extends the TPM with the selected entry file.
	Measure bool
	// DryRun does everything except the kexec.
	DryRun bool
}

// Discover parses every *.conf file in dir. Files that fail to parse are
// logged and skipped.
func Discover(dir string) ([]*loaderentry.Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var entries []*loaderentry.Entry
	for _, f := range files {
		if !f.Type().IsRegular() || !strings.HasSuffix(f.Name(), ".conf") {
			Debug("Skip %s", f.Name())
			continue
		}
		entry, err := loaderentry.ParseFile(filepath.Join(dir, f.Name()))
		if err != nil {
			log.Printf("Skipping %v", err)
			continue
		}
		Debug("Found entry %s: %s", entry.Filename, entry)
		entries = append(entries, entry)
	}
	return entries, nil
}

// Candidates returns entries in boot order: those matching pattern first,
// then the others, each group most preferred first. entries is not
// modified.
func Candidates(entries []*loaderentry.Entry, pattern string) []*loaderentry.Entry {
	sorted := make([]*loaderentry.Entry, len(entries))
	copy(sorted, entries)
	loaderentry.SortByPreference(sorted)
	if pattern == "" {
		return sorted
	}

	var matched, rest []*loaderentry.Entry
	for _, e := range sorted {
		if Matches(e, pattern) {
			matched = append(matched, e)
		} else {
			rest = append(rest, e)
		}
	}
	return append(matched, rest...)
}

// Select returns the entry to boot.
func Select(entries []*loaderentry.Entry, pattern string) (*loaderentry.Entry, error) {
	candidates := Candidates(entries, pattern)
	if len(candidates) == 0 {
		return nil, ErrNoEntries
	}
	return candidates[0], nil
}

// Matches reports whether pattern selects entry. The pattern is a
// path.Match glob tested against the entry ID and its file name.
func Matches(entry *loaderentry.Entry, pattern string) bool {
	for _, name := range []string{entry.ID(), entry.Filename} {
		if name == pattern {
			return true
		}
		ok, err := path.Match(pattern, name)
		if err != nil {
			log.Printf("Invalid entry pattern %q: %v", pattern, err)
			return false
		}
		if ok {
			return true
		}
	}
	return false
}

// Boot finds the loader entries of the ESP and kexecs into the preferred
// Linux one. EFI executables are skipped. Boot only returns on failure, or
// with a nil error in dry-run mode.
func Boot(opts Options) error {
	root, cleanup, err := prepareRoot(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	entriesDir := opts.EntriesDir
	if entriesDir == "" {
		entriesDir = bootconfig.EntriesDir
	}
	dir := filepath.Join(root, entriesDir)
	entries, err := Discover(dir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("%s: %w", dir, ErrNoEntries)
	}

	pattern := opts.Entry
	if pattern == "" && opts.Vars != nil {
		pattern = firmwareDefault(opts.Vars)
	}
	candidates := Candidates(entries, pattern)
	if opts.Vars != nil && !opts.DryRun {
		ids := make([]string, 0, len(candidates))
		for _, e := range candidates {
			ids = append(ids, e.ID())
		}
		if err := efivars.WriteList(opts.Vars, efivars.LoaderEntriesName, ids); err != nil {
			log.Printf("Cannot set %s: %v", efivars.LoaderEntriesName, err)
		}
	}

	for _, entry := range candidates {
		bc, err := bootconfig.FromLoaderEntry(root, entry)
		if err != nil {
			log.Printf("Skipping %v", err)
			continue
		}
		log.Printf("Booting %s", entry)
		Debug("Kernel %s, initramfs %q, command line %q", bc.Kernel, bc.Initramfs, bc.KernelArgs)

		if opts.Measure {
			crypto.TryMeasureFiles(filepath.Join(dir, entry.Filename))
		}
		if opts.DryRun {
			log.Printf("Dry-run mode: will not boot %s", entry.Filename)
			return nil
		}
		if opts.Vars != nil {
			if err := efivars.WriteVariable(opts.Vars, efivars.LoaderEntrySelectedName, entry.ID()); err != nil {
				log.Printf("Cannot set %s: %v", efivars.LoaderEntrySelectedName, err)
			}
		}
		if err := kexecBoot(bc); err != nil {
			log.Printf("Cannot boot %s: %v", entry.Filename, err)
			continue
		}
	}
	return ErrNoBootableEntry
}

// firmwareDefault returns the entry pattern configured in firmware, the
// one-shot entry taking precedence.
func firmwareDefault(c efivario.Context) string {
	for _, name := range []string{efivars.LoaderEntryOneShotName, efivars.LoaderEntryDefaultName} {
		value, err := efivars.ReadVariable(c, name)
		if err != nil {
			log.Printf("Cannot read %s: %v", name, err)
			continue
		}
		if value != "" {
			Debug("%s is %q", name, value)
			return value
		}
	}
	return ""
}

func prepareRoot(opts Options) (string, func(), error) {
	nop := func() {}
	switch {
	case opts.Bundle != "":
		dir, err := bootconfig.Unpack(opts.Bundle, opts.PublicKey)
		if err != nil {
			return "", nop, fmt.Errorf("cannot unpack %s: %w", opts.Bundle, err)
		}
		return dir, func() { os.RemoveAll(dir) }, nil
	case opts.Device != "":
		mountpoint, err := mountDevice(opts.Device, opts.Root)
		if err != nil {
			return "", nop, err
		}
		// an empty FsType means the device was already mounted elsewhere
		if mountpoint.FsType == "" {
			return mountpoint.Path, nop, nil
		}
		return mountpoint.Path, func() {
			if err := unmountDevice(mountpoint); err != nil {
				log.Printf("Cannot unmount %s: %v", mountpoint.Path, err)
			}
		}, nil
	}
	return opts.Root, nop, nil
}
