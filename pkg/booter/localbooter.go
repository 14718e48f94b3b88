package booter

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/capezotte/zboot/pkg/efivars"
	"github.com/capezotte/zboot/pkg/localboot"
)

// DefaultMountPoint is where LocalBooter mounts the ESP
var DefaultMountPoint = "/mnt/esp"

// localbootBoot runs the local boot flow. Tests replace it.
var localbootBoot = localboot.Boot

// LocalBooter implements the Booter interface for booting the preferred
// loader entry of an EFI system partition.
type LocalBooter struct {
	Type       string `json:"type"`
	DevicePath string `json:"device_path,omitempty"`
	Root       string `json:"root,omitempty"`
	Entry      string `json:"entry,omitempty"`
	EfiVars    bool   `json:"efivars,omitempty"`
}

// NewLocalBooter parses a boot entry config and returns a Booter instance, or
// an error if any
func NewLocalBooter(config []byte) (Booter, error) {
	// The configuration format for a LocalBooter entry is a JSON with the
	// following structure:
	// {
	//     "type": "localboot",
	//     "device_path": "<path>",
	//     "root": "<path>",
	//     "entry": "<glob>",
	//     "efivars": <bool>
	// }
	//
	// `type` is always set to "localboot".
	// `device_path` is the block device holding the ESP. If empty, `root`
	// must already contain the ESP.
	// `root` is where the ESP is mounted, DefaultMountPoint if empty.
	// `entry` selects a loader entry by ID, overriding the firmware default.
	// `efivars` enables the firmware loader variables.
	log.Printf("Trying LocalBooter...")
	log.Printf("Config: %s", string(config))
	lb := LocalBooter{}
	if err := json.Unmarshal(config, &lb); err != nil {
		return nil, err
	}
	log.Printf("LocalBooter: %+v", lb)
	if lb.Type != "localboot" {
		return nil, fmt.Errorf("Wrong type for LocalBooter: %s", lb.Type)
	}
	if lb.Root == "" {
		lb.Root = DefaultMountPoint
	}
	return &lb, nil
}

// Boot will run the boot procedure. In the case of LocalBooter, it scans
// the ESP for loader entries and kexecs into the preferred one
func (lb *LocalBooter) Boot() error {
	opts := localboot.Options{
		Root:   lb.Root,
		Device: lb.DevicePath,
		Entry:  lb.Entry,
	}
	if lb.EfiVars {
		opts.Vars = efivars.NewContext()
	}
	return localbootBoot(opts)
}

// TypeName returns the name of the booter type
func (lb *LocalBooter) TypeName() string {
	return lb.Type
}
