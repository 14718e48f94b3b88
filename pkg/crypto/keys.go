package crypto

import (
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ed25519"
)

var (
	// PubKeyIdentifier is the PEM public key identifier
	PubKeyIdentifier = "PUBLIC KEY"
	// PrivKeyIdentifier is the PEM private key identifier
	PrivKeyIdentifier = "PRIVATE KEY"
	// PEMCipher is the PEM encryption algorithm
	PEMCipher = x509.PEMCipherAES256
	// PubKeyFilePermissions are the public key file perms
	PubKeyFilePermissions os.FileMode = 0644
	// PrivKeyFilePermissions are the private key file perms
	PrivKeyFilePermissions os.FileMode = 0600
)

// GenerateED25519Key generates an ed25519 keypair and writes it PEM encoded.
// A non-empty password encrypts the private key.
func GenerateED25519Key(password []byte, privateKeyFilePath, publicKeyFilePath string) error {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return err
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return err
	}

	privBlock := &pem.Block{Type: PrivKeyIdentifier, Bytes: privDER}
	if len(password) > 0 {
		//nolint:staticcheck // legacy PEM encryption is what the bundle tooling reads
		privBlock, err = x509.EncryptPEMBlock(rand.Reader, PrivKeyIdentifier, privDER, password, PEMCipher)
		if err != nil {
			return err
		}
	}

	if err := os.WriteFile(privateKeyFilePath, pem.EncodeToMemory(privBlock), PrivKeyFilePermissions); err != nil {
		return err
	}
	return os.WriteFile(publicKeyFilePath, pem.EncodeToMemory(&pem.Block{Type: PubKeyIdentifier, Bytes: pubDER}), PubKeyFilePermissions)
}

// LoadPublicKeyFromFile loads a PKIX PEM encoded ed25519 public key.
func LoadPublicKeyFromFile(publicKeyPath string) (ed25519.PublicKey, error) {
	block, err := readPEM(publicKeyPath, PubKeyIdentifier)
	if err != nil {
		return nil, err
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%s: not an ed25519 public key", publicKeyPath)
	}
	return pub, nil
}

// LoadPrivateKeyFromFile loads a PKCS8 PEM encoded ed25519 private key,
// decrypting it with password if the block is encrypted.
func LoadPrivateKeyFromFile(privateKeyPath string, password []byte) (ed25519.PrivateKey, error) {
	block, err := readPEM(privateKeyPath, PrivKeyIdentifier)
	if err != nil {
		return nil, err
	}

	der := block.Bytes
	//nolint:staticcheck // see GenerateED25519Key
	if x509.IsEncryptedPEMBlock(block) {
		//nolint:staticcheck // see GenerateED25519Key
		der, err = x509.DecryptPEMBlock(block, password)
		if err != nil {
			return nil, err
		}
	}

	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%s: not an ed25519 private key", privateKeyPath)
	}
	return priv, nil
}

func readPEM(path, blockType string) (*pem.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != blockType {
		return nil, errors.New("Can't decode PEM file")
	}
	return block, nil
}
