package main

import (
	"flag"
	"log"

	"github.com/capezotte/zboot/pkg/efivars"
	"github.com/capezotte/zboot/pkg/localboot"
	"github.com/capezotte/zboot/pkg/recovery"
)

// Version of local booter
const Version = `0.2`

var banner = `
  _                 _ _                 _
 | | ___   ___ __ _| | |__   ___   ___ | |_
 | |/ _ \ / __/ _' | | '_ \ / _ \ / _ \| __|
 | | (_) | (_| (_| | | |_) | (_) | (_) | |_
 |_|\___/ \___\__,_|_|_.__/ \___/ \___/ \__|  v` + Version + `

`

var (
	flagRoot      = flag.String("root", "/mnt/esp", "Directory the EFI system partition is mounted on")
	flagDevice    = flag.String("device", "", "Block device to mount on -root before scanning")
	flagEntries   = flag.String("entries", "", "Loader entries directory relative to the ESP root (default loader/entries)")
	flagEntry     = flag.String("entry", "", "Loader entry ID or glob to boot, overrides the firmware default")
	flagBundle    = flag.String("bundle", "", "Boot bundle to unpack and boot from instead of -root")
	flagPublicKey = flag.String("pubkey", "", "Public key the bundle signature is checked against")
	flagDryRun    = flag.Bool("dryrun", false, "Select an entry but do not kexec into it")
	flagDebug     = flag.Bool("d", false, "Print debug output")
	flagMeasure   = flag.Bool("measure", false, "Measure the selected entry into the TPM")
	flagEfiVars   = flag.Bool("efivars", true, "Use the LoaderEntry* EFI variables")
	debug         = func(string, ...interface{}) {}
)

func main() {
	flag.Parse()
	log.Print(banner)

	if *flagDebug {
		debug = log.Printf
		localboot.Debug = log.Printf
	}

	var recoverer recovery.Recoverer = recovery.SecureRecoverer{
		Reboot: true,
		Sync:   true,
		Debug:  *flagDebug,
	}
	if *flagDryRun {
		recoverer = recovery.PermissiveRecoverer{Logf: log.Printf}
	}

	opts := localboot.Options{
		Root:       *flagRoot,
		Device:     *flagDevice,
		Bundle:     *flagBundle,
		PublicKey:  *flagPublicKey,
		EntriesDir: *flagEntries,
		Entry:      *flagEntry,
		Measure:    *flagMeasure,
		DryRun:     *flagDryRun,
	}
	if *flagEfiVars {
		opts.Vars = efivars.NewContext()
		debug("Secure Boot enabled: %v", efivars.SecureBoot())
	}

	if err := localboot.Boot(opts); err != nil {
		if rerr := recoverer.Recover("Local boot failed: " + err.Error()); rerr != nil {
			log.Fatalf("Recovery failed: %v", rerr)
		}
		return
	}
	if *flagDryRun {
		log.Printf("Dry run, not booting")
	}
}
