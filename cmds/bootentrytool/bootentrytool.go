package main

import (
	"log"

	"github.com/alecthomas/kingpin/v2"
)

const (
	// Author is the author
	Author = "zboot developers"
	// HelpText is the command line help
	HelpText = "A tool for inspecting and bundling loader entries"
)

var goversion string

var (
	list    = kingpin.Command("list", "List loader entries in boot order")
	show    = kingpin.Command("show", "Show the parsed fields of a loader entry")
	cmdline = kingpin.Command("cmdline", "Print the kernel command line of a loader entry")
	genkeys = kingpin.Command("genkeys", "Generate ED25519 keypair")
	pack    = kingpin.Command("pack", "Create a boot bundle from an ESP")
	unpack  = kingpin.Command("unpack", "Unpack a boot bundle into a directory")

	listRoot    = list.Arg("root", "Path the ESP is mounted on").Required().ExistingDir()
	listEntry   = list.Flag("entry", "Entry ID or glob to put first").String()
	listEntries = list.Flag("entries-dir", "Loader entries directory relative to root").Default("loader/entries").String()

	showFile    = show.Arg("file", "Loader entry file").Required().ExistingFile()
	cmdlineFile = cmdline.Arg("file", "Loader entry file").Required().ExistingFile()

	genkeysPrivateKeyFile = genkeys.Arg("privateKey", "File path to write the private key").Required().String()
	genkeysPublicKeyFile  = genkeys.Arg("publicKey", "File path to write the public key").Required().String()
	genkeysPassphrase     = genkeys.Flag("passphrase", "Encrypt keypair in PKCS8 format").String()

	packSignPassphrase     = pack.Flag("passphrase", "Passphrase for private key file").String()
	packRoot               = pack.Arg("root", "Path the ESP is mounted on").Required().ExistingDir()
	packOutputFilename     = pack.Arg("bundle", "Path to output file").Required().String()
	packSignPrivateKeyFile = pack.Arg("private-key", "Path to the private key file").String()

	unpackInputFilename       = unpack.Arg("bundle", "Boot bundle file").Required().ExistingFile()
	unpackDir                 = unpack.Flag("tmpdir", "Directory to create the unpacked bundle in").String()
	unpackVerifyPublicKeyFile = unpack.Arg("public-key", "Path to the public key file").String()
)

func main() {
	kingpin.UsageTemplate(kingpin.CompactUsageTemplate).Version(goversion).Author(Author)
	kingpin.CommandLine.Help = HelpText

	var err error
	switch kingpin.Parse() {
	case "list":
		err = ListEntries()
	case "show":
		err = ShowEntry()
	case "cmdline":
		err = PrintCommandLine()
	case "genkeys":
		err = GenKeys()
	case "pack":
		err = PackBundle()
	case "unpack":
		err = UnpackBundle()
	default:
		log.Fatal("Command not found")
	}
	if err != nil {
		log.Fatalln(err.Error())
	}
}
