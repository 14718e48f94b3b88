package crypto

import (
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	tpm2 "github.com/google/go-tpm/legacy/tpm2"
	"github.com/google/go-tpm/tpm"
	"github.com/google/go-tpm/tpmutil"
)

const (
	// BlobPCR type in PCR 7
	BlobPCR uint32 = 7
	// BootConfigPCR type in PCR 8
	BootConfigPCR uint32 = 8
	// ConfigDataPCR type in PCR 8
	ConfigDataPCR uint32 = 8
	// NvramVarsPCR type in PCR 9
	NvramVarsPCR uint32 = 9
)

var (
	// TPMDevice is the character device of the TPM
	TPMDevice = "/dev/tpm0"
	// TPMVersionFile holds the TCG major version of TPMDevice
	TPMVersionFile = "/sys/class/tpm/tpm0/tpm_version_major"
)

func tpmVersion() (int, error) {
	data, err := os.ReadFile(TPMVersionFile)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// Measure extends pcr with the digest of data. TPM 1.2 devices get a SHA-1
// digest, TPM 2.0 devices a SHA-256 one.
func Measure(pcr uint32, data []byte) error {
	version, err := tpmVersion()
	if err != nil {
		return fmt.Errorf("cannot detect TPM version: %w", err)
	}
	switch version {
	case 1:
		rwc, err := tpm.OpenTPM(TPMDevice)
		if err != nil {
			return err
		}
		defer rwc.Close()
		_, err = tpm.PcrExtend(rwc, pcr, sha1.Sum(data))
		return err
	case 2:
		rwc, err := tpm2.OpenTPM(TPMDevice)
		if err != nil {
			return err
		}
		defer rwc.Close()
		return extendTPM2(rwc, pcr, data)
	}
	return fmt.Errorf("unsupported TPM version %d", version)
}

func extendTPM2(rw io.ReadWriter, pcr uint32, data []byte) error {
	digest := sha256.Sum256(data)
	return tpm2.PCRExtend(rw, tpmutil.Handle(pcr), tpm2.AlgSHA256, digest[:], "")
}

// TryMeasureData measures a byte array with additional information. Errors
// are logged, boot continues without a TPM.
func TryMeasureData(pcr uint32, data []byte, info string) {
	log.Printf("Measuring blob: %v", info)
	if err := Measure(pcr, data); err != nil {
		log.Printf("Cannot measure %v: %v", info, err)
	}
}

// TryMeasureFiles measures a variable amount of files
func TryMeasureFiles(files ...string) {
	for _, file := range files {
		if file == "" {
			continue
		}
		data, err := os.ReadFile(file)
		if err != nil {
			log.Printf("Cannot read %v for measurement: %v", file, err)
			continue
		}
		TryMeasureData(BlobPCR, data, file)
	}
}
