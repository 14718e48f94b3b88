package localboot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capezotte/zboot/pkg/bootconfig"
	"github.com/capezotte/zboot/pkg/loaderentry"
	"github.com/capezotte/zboot/pkg/storage"
)

var testEntries = map[string]string{
	"arch.conf":     "title Arch Linux\nversion 6.1.0\nlinux /vmlinuz-6.1.0\ninitrd /initramfs-6.1.0.img\noptions root=/dev/sda2 rw",
	"arch-lts.conf": "title Arch Linux\nversion 5.15.10\nlinux /vmlinuz-lts\noptions root=/dev/sda2 rw",
	"windows.conf":  "title Windows 10\nefi  \\efi\\microsoft\\bootmgfw.efi",
	"zz-tools.conf": "sort-key zz\ntitle UEFI Shell\nefi /EFI/tools/shell.efi",
	"broken.conf":   "title no payload",
	"README":        "not an entry",
}

func makeESP(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "loader", "entries")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "subdir.conf"), 0755))
	for name, content := range testEntries {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return root
}

func names(entries []*loaderentry.Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Filename)
	}
	return out
}

// recordBoots replaces kexecBoot for the duration of the test.
func recordBoots(t *testing.T, results ...error) *[]*bootconfig.BootConfig {
	t.Helper()
	var booted []*bootconfig.BootConfig
	orig := kexecBoot
	kexecBoot = func(bc *bootconfig.BootConfig) error {
		booted = append(booted, bc)
		if len(results) == 0 {
			return errors.New("kexec not available in tests")
		}
		err := results[0]
		results = results[1:]
		return err
	}
	t.Cleanup(func() { kexecBoot = orig })
	return &booted
}

func TestDiscover(t *testing.T) {
	entries, err := Discover(filepath.Join(makeESP(t), "loader", "entries"))
	require.NoError(t, err)
	require.Equal(t, []string{"arch-lts.conf", "arch.conf", "windows.conf", "zz-tools.conf"}, names(entries))
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCandidates(t *testing.T) {
	entries, err := Discover(filepath.Join(makeESP(t), "loader", "entries"))
	require.NoError(t, err)

	require.Equal(t, []string{"zz-tools.conf", "windows.conf", "arch.conf", "arch-lts.conf"}, names(Candidates(entries, "")))
	require.Equal(t, []string{"arch.conf", "arch-lts.conf", "zz-tools.conf", "windows.conf"}, names(Candidates(entries, "arch*")))
	require.Equal(t, []string{"arch-lts.conf", "zz-tools.conf", "windows.conf", "arch.conf"}, names(Candidates(entries, "arch-lts")))
	require.Equal(t, []string{"windows.conf", "zz-tools.conf", "arch.conf", "arch-lts.conf"}, names(Candidates(entries, "windows.conf")))
	// input order is left alone
	require.Equal(t, "arch-lts.conf", entries[0].Filename)
}

func TestSelect(t *testing.T) {
	_, err := Select(nil, "")
	require.ErrorIs(t, err, ErrNoEntries)

	entries, err := Discover(filepath.Join(makeESP(t), "loader", "entries"))
	require.NoError(t, err)
	entry, err := Select(entries, "no-such-entry")
	require.NoError(t, err)
	require.Equal(t, "zz-tools.conf", entry.Filename)
}

func TestMatches(t *testing.T) {
	entry := &loaderentry.Entry{Filename: "fedora-6.5.conf"}
	require.True(t, Matches(entry, "fedora-6.5"))
	require.True(t, Matches(entry, "fedora-6.5.conf"))
	require.True(t, Matches(entry, "fedora-*"))
	require.False(t, Matches(entry, "arch*"))
	require.False(t, Matches(entry, "[fedora"))
}

func TestBootSkipsEFIAndFailures(t *testing.T) {
	root := makeESP(t)
	booted := recordBoots(t, errors.New("bad kernel"))

	err := Boot(Options{Root: root})
	require.ErrorIs(t, err, ErrNoBootableEntry)
	require.Len(t, *booted, 2)
	require.Equal(t, &bootconfig.BootConfig{
		Name:       "Arch Linux (6.1.0)",
		Kernel:     filepath.Join(root, "vmlinuz-6.1.0"),
		Initramfs:  filepath.Join(root, "initramfs-6.1.0.img"),
		KernelArgs: `root=/dev/sda2 rw initrd=\initramfs-6.1.0.img`,
	}, (*booted)[0])
	require.Equal(t, filepath.Join(root, "vmlinuz-lts"), (*booted)[1].Kernel)
}

func TestBootExplicitEntry(t *testing.T) {
	booted := recordBoots(t)

	require.ErrorIs(t, Boot(Options{Root: makeESP(t), Entry: "arch-lts"}), ErrNoBootableEntry)
	require.Equal(t, "Arch Linux (5.15.10)", (*booted)[0].Name)
}

func TestBootDryRun(t *testing.T) {
	booted := recordBoots(t)

	require.NoError(t, Boot(Options{Root: makeESP(t), DryRun: true}))
	require.Empty(t, *booted)
}

// fakeMount replaces the device mount step with one returning mountpoint,
// and records the paths that get unmounted.
func fakeMount(t *testing.T, mountpoint *storage.Mountpoint) *[]string {
	t.Helper()
	var unmounted []string
	origMount, origUnmount := mountDevice, unmountDevice
	mountDevice = func(device, root string) (*storage.Mountpoint, error) {
		require.Equal(t, mountpoint.DeviceName, device)
		return mountpoint, nil
	}
	unmountDevice = func(m *storage.Mountpoint) error {
		unmounted = append(unmounted, m.Path)
		return nil
	}
	t.Cleanup(func() { mountDevice, unmountDevice = origMount, origUnmount })
	return &unmounted
}

func TestBootUnmountsDevice(t *testing.T) {
	root := makeESP(t)
	unmounted := fakeMount(t, &storage.Mountpoint{DeviceName: "/dev/sda1", Path: root, FsType: "vfat"})

	require.NoError(t, Boot(Options{Root: root, Device: "/dev/sda1", DryRun: true}))
	require.Equal(t, []string{root}, *unmounted)
}

func TestBootUnmountsDeviceAfterFailure(t *testing.T) {
	root := makeESP(t)
	unmounted := fakeMount(t, &storage.Mountpoint{DeviceName: "/dev/sda1", Path: root, FsType: "vfat"})
	booted := recordBoots(t)

	err := Boot(Options{Root: root, Device: "/dev/sda1"})
	require.ErrorIs(t, err, ErrNoBootableEntry)
	require.Len(t, *booted, 2)
	require.Equal(t, []string{root}, *unmounted)
}

func TestBootKeepsExistingMount(t *testing.T) {
	root := makeESP(t)
	unmounted := fakeMount(t, &storage.Mountpoint{DeviceName: "/dev/sda1", Path: root})

	require.NoError(t, Boot(Options{Root: "/mnt/unused", Device: "/dev/sda1", DryRun: true}))
	require.Empty(t, *unmounted)
}

func TestBootNoEntries(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "loader", "entries"), 0755))

	require.ErrorIs(t, Boot(Options{Root: root}), ErrNoEntries)
	require.ErrorIs(t, Boot(Options{Root: root, EntriesDir: "missing"}), os.ErrNotExist)
}

func TestBootFromBundle(t *testing.T) {
	bootconfig.DefaultTmpDir = t.TempDir()
	bundle := filepath.Join(t.TempDir(), "esp.zip")
	root := makeESP(t)
	for _, f := range []string{"vmlinuz-6.1.0", "initramfs-6.1.0.img", "vmlinuz-lts", "efi/microsoft/bootmgfw.efi", "EFI/tools/shell.efi"} {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(root, f)), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(root, f), []byte(f), 0644))
	}
	require.NoError(t, bootconfig.Pack(bundle, root, "", nil))

	booted := recordBoots(t)
	require.ErrorIs(t, Boot(Options{Bundle: bundle}), ErrNoBootableEntry)
	require.Len(t, *booted, 2)
	require.Equal(t, "Arch Linux (6.1.0)", (*booted)[0].Name)
}
