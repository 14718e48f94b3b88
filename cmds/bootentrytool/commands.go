package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/capezotte/zboot/pkg/bootconfig"
	"github.com/capezotte/zboot/pkg/crypto"
	"github.com/capezotte/zboot/pkg/localboot"
	"github.com/capezotte/zboot/pkg/loaderentry"
)

var stdout io.Writer = os.Stdout

// ListEntries prints the entries below the ESP root, the one that would be
// booted first
func ListEntries() error {
	entries, err := localboot.Discover(filepath.Join(*listRoot, *listEntries))
	if err != nil {
		return err
	}
	return writeList(stdout, localboot.Candidates(entries, *listEntry))
}

func writeList(w io.Writer, entries []*loaderentry.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tNAME")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.ID(), e.Payload.Kind, e)
	}
	return tw.Flush()
}

// ShowEntry prints the fields of a single loader entry
func ShowEntry() error {
	entry, err := loaderentry.ParseFile(*showFile)
	if err != nil {
		return err
	}
	return writeEntry(stdout, entry)
}

func writeEntry(w io.Writer, e *loaderentry.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, kv := range [][2]string{
		{"id", e.ID()},
		{"name", e.String()},
		{"sort-key", e.SortKey},
		{"title", e.Title},
		{"version", e.Version},
		{e.Payload.Kind.String(), e.Payload.Path},
		{"initrd", e.Initrd},
		{"options", e.Options},
		{"cmdline", e.CommandLine()},
	} {
		if kv[1] != "" {
			fmt.Fprintf(tw, "%s\t%s\n", kv[0], kv[1])
		}
	}
	return tw.Flush()
}

// PrintCommandLine prints the kernel command line of a loader entry
func PrintCommandLine() error {
	entry, err := loaderentry.ParseFile(*cmdlineFile)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, entry.CommandLine())
	return err
}

// GenKeys generates ED25519 keypair and stores it on the harddrive
func GenKeys() error {
	return crypto.GenerateED25519Key([]byte(*genkeysPassphrase), *genkeysPrivateKeyFile, *genkeysPublicKeyFile)
}

// PackBundle packages the loader entries of an ESP and the files they
// reference
func PackBundle() error {
	return bootconfig.Pack(*packOutputFilename, *packRoot, *packSignPrivateKeyFile, []byte(*packSignPassphrase))
}

// UnpackBundle unpacks a boot bundle and prints the directory containing
// the data
func UnpackBundle() error {
	if *unpackDir != "" {
		bootconfig.DefaultTmpDir = *unpackDir
	}
	outputDir, err := bootconfig.Unpack(*unpackInputFilename, *unpackVerifyPublicKeyFile)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Boot bundle unpacked into: "+outputDir)
	return nil
}
