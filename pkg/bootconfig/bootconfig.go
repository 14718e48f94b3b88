package bootconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/capezotte/zboot/pkg/crypto"
	"github.com/capezotte/zboot/pkg/loaderentry"
	"github.com/u-root/u-root/pkg/boot/kexec"
)

// ErrNotLinux is returned for entries whose payload is not a Linux kernel.
// EFI executables cannot be started from a running Linux kernel.
var ErrNotLinux = errors.New("payload is not a Linux kernel")

// BootConfig holds everything needed to kexec into a kernel. It uses JSON
// for interoperability with other boot entry stores.
type BootConfig struct {
	Name       string `json:"name,omitempty"`
	Kernel     string `json:"kernel"`
	Initramfs  string `json:"initramfs,omitempty"`
	KernelArgs string `json:"kernel_args,omitempty"`
}

// IsValid returns true if a BootConfig object has a kernel to boot.
func (bc *BootConfig) IsValid() bool {
	return bc.Kernel != ""
}

// FromLoaderEntry builds a BootConfig from a loader entry whose paths are
// relative to the ESP mounted at root.
//
// Without an initrd line, the first initrd= argument of the options is
// loaded as initramfs instead.
func FromLoaderEntry(root string, entry *loaderentry.Entry) (*BootConfig, error) {
	if entry.Payload.Kind != loaderentry.PayloadLinux {
		return nil, fmt.Errorf("%s: %w (%s)", entry.Filename, ErrNotLinux, entry.Payload.Kind)
	}
	bc := &BootConfig{
		Name:       entry.String(),
		Kernel:     HostPath(root, entry.Payload.Path),
		KernelArgs: entry.CommandLine(),
	}
	initrd := entry.Initrd
	if initrd == "" {
		for _, arg := range strings.Fields(entry.Options) {
			if v, ok := strings.CutPrefix(arg, "initrd="); ok && v != "" {
				initrd = v
				break
			}
		}
	}
	if initrd != "" {
		bc.Initramfs = HostPath(root, initrd)
	}
	return bc, nil
}

// HostPath maps an ESP path such as \EFI\fedora\vmlinuz onto the
// filesystem mounted at root. The result never leaves root.
func HostPath(root, p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return filepath.Join(root, filepath.Clean("/"+filepath.FromSlash(p)))
}

// Boot tries to boot the kernel with optional initramfs and command line
// options. It only returns on failure.
func (bc *BootConfig) Boot() error {
	crypto.TryMeasureData(crypto.BootConfigPCR, []byte(bc.Name+bc.Kernel+bc.Initramfs+bc.KernelArgs), "bootconfig")
	crypto.TryMeasureFiles(bc.Kernel, bc.Initramfs)

	kernel, err := os.Open(bc.Kernel)
	if err != nil {
		return err
	}
	defer closeLogged(kernel)

	var initramfs *os.File
	if bc.Initramfs != "" {
		initramfs, err = os.Open(bc.Initramfs)
		if err != nil {
			return err
		}
		defer closeLogged(initramfs)
	}

	if err := kexec.FileLoad(kernel, initramfs, bc.KernelArgs); err != nil {
		return fmt.Errorf("kexec.FileLoad() error: %w", err)
	}
	err = kexec.Reboot()
	if err == nil {
		return errors.New("Unexpectedly returned from Reboot() without error. The system did not reboot")
	}
	return err
}

func closeLogged(f *os.File) {
	if err := f.Close(); err != nil {
		log.Printf("Error closing %s: %v", f.Name(), err)
	}
}

// NewBootConfig parses a boot configuration in JSON format and returns a
// BootConfig object.
func NewBootConfig(data []byte) (*BootConfig, error) {
	var bootconfig BootConfig
	if err := json.Unmarshal(data, &bootconfig); err != nil {
		return nil, err
	}
	return &bootconfig, nil
}
