package storage

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

var (
	// LinuxMountsPath is the standard mountpoint list path
	LinuxMountsPath = "/proc/mounts"
	// LinuxFilesystemsPath lists the filesystems known to the kernel
	LinuxFilesystemsPath = "/proc/filesystems"
)

// Mountpoint holds mount point information for a given device
type Mountpoint struct {
	DeviceName string
	Path       string
	FsType     string
}

// GetSupportedFilesystems returns the block filesystems the kernel can
// mount. Pseudo filesystems marked "nodev" are left out.
func GetSupportedFilesystems() ([]string, error) {
	f, err := os.Open(LinuxFilesystemsPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var filesystems []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 1 {
			continue
		}
		filesystems = append(filesystems, fields[0])
	}
	return filesystems, scanner.Err()
}

// GetMountpointByDevice returns the mount path of device. It returns an
// error if the device is not mounted.
func GetMountpointByDevice(devicePath string) (*string, error) {
	f, err := os.Open(LinuxMountsPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if fields[0] == devicePath {
			mountpoint := fields[1]
			return &mountpoint, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, errors.New("Mountpoint not found")
}

// Mount mounts devicePath read-only on path, trying each filesystem in turn.
// An existing mount of devicePath is reused.
func Mount(devicePath, path string, filesystems []string) (*Mountpoint, error) {
	if mountpoint, err := GetMountpointByDevice(devicePath); err == nil && mountpoint != nil {
		log.Printf("%s already mounted on %s", devicePath, *mountpoint)
		return &Mountpoint{DeviceName: devicePath, Path: *mountpoint}, nil
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, err
	}
	for _, fstype := range filesystems {
		if err := unix.Mount(devicePath, path, fstype, unix.MS_RDONLY, ""); err != nil {
			continue
		}
		log.Printf("Mounted %s on %s as %s", devicePath, path, fstype)
		return &Mountpoint{DeviceName: devicePath, Path: path, FsType: fstype}, nil
	}
	return nil, fmt.Errorf("no suitable filesystem for %s among %v", devicePath, filesystems)
}

// Unmount unmounts a mountpoint created by Mount.
func Unmount(mountpoint *Mountpoint) error {
	return unix.Unmount(mountpoint.Path, 0)
}
