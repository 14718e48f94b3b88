package bootconfig

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/mholt/archiver/v3"
	"golang.org/x/crypto/ed25519"

	"github.com/capezotte/zboot/pkg/crypto"
	"github.com/capezotte/zboot/pkg/loaderentry"
)

var (
	// DefaultTmpDir is where bundles are staged and unpacked
	DefaultTmpDir = os.TempDir()
	// EntriesDir is the location of loader entries relative to the ESP root
	EntriesDir = filepath.Join("loader", "entries")
)

// ErrBadSignature is returned by Unpack when a bundle does not verify.
var ErrBadSignature = errors.New("signature verification of boot bundle failed")

// Pack writes the loader entries found below root, together with the kernels,
// initrds and EFI executables they reference, into a zip bundle at
// outputFilePath. Entries that do not parse are left out. A non-empty
// privateKeyPath appends an ed25519 signature over the archive.
func Pack(outputFilePath, root, privateKeyPath string, privateKeyPassword []byte) error {
	entries, err := filepath.Glob(filepath.Join(root, EntriesDir, "*.conf"))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no loader entries in %s", filepath.Join(root, EntriesDir))
	}

	packDir, err := os.MkdirTemp(DefaultTmpDir, "bundle-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(packDir)

	for _, path := range entries {
		entry, err := loaderentry.ParseFile(path)
		if err != nil {
			log.Printf("Skipping %s: %v", path, err)
			continue
		}
		files := []string{filepath.Join(EntriesDir, entry.Filename)}
		if bc, err := FromLoaderEntry(".", entry); err == nil {
			files = append(files, bc.Kernel)
			if bc.Initramfs != "" {
				files = append(files, bc.Initramfs)
			}
		} else {
			files = append(files, relPath(entry.Payload.Path))
		}
		for _, f := range files {
			if err := copyFile(filepath.Join(root, f), filepath.Join(packDir, f)); err != nil {
				return err
			}
		}
	}

	top, err := os.ReadDir(packDir)
	if err != nil {
		return err
	}
	var sources []string
	for _, t := range top {
		sources = append(sources, filepath.Join(packDir, t.Name()))
	}
	z := archiver.NewZip()
	z.OverwriteExisting = true
	if err := z.Archive(sources, outputFilePath); err != nil {
		return err
	}

	if privateKeyPath == "" {
		return nil
	}
	data, err := os.ReadFile(outputFilePath)
	if err != nil {
		return err
	}
	privateKey, err := crypto.LoadPrivateKeyFromFile(privateKeyPath, privateKeyPassword)
	if err != nil {
		return err
	}
	return os.WriteFile(outputFilePath, append(data, ed25519.Sign(privateKey, data)...), 0644)
}

// Unpack extracts a bundle into a new temporary directory and returns it.
// The directory has the layout of an ESP and can be booted from. A
// non-empty publicKeyPath requires a valid signature.
func Unpack(filename, publicKeyPath string) (string, error) {
	z := archiver.NewZip()
	if err := z.CheckExt(filename); err != nil {
		return "", err
	}

	source := filename
	if publicKeyPath != "" {
		verified, err := verify(filename, publicKeyPath)
		if err != nil {
			return "", err
		}
		defer os.Remove(verified)
		source = verified
	}

	unpackDir, err := os.MkdirTemp(DefaultTmpDir, "bundle-")
	if err != nil {
		return "", err
	}
	if err := z.Unarchive(source, unpackDir); err != nil {
		os.RemoveAll(unpackDir)
		return "", err
	}
	return unpackDir, nil
}

// verify checks the trailing signature of filename and writes the signed
// archive to a temporary .zip file.
func verify(filename, publicKeyPath string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	publicKey, err := crypto.LoadPublicKeyFromFile(publicKeyPath)
	if err != nil {
		return "", err
	}
	offset := len(data) - ed25519.SignatureSize
	if offset < 0 || !ed25519.Verify(publicKey, data[:offset], data[offset:]) {
		return "", ErrBadSignature
	}

	f, err := os.CreateTemp(DefaultTmpDir, "bundle-*.zip")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data[:offset]); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// relPath turns an ESP path into a relative host path.
func relPath(p string) string {
	return HostPath(".", p)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0700); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
