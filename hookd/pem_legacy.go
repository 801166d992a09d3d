package hookd

import (
	"crypto/x509" //lint:ignore SA1019 legacy PKCS#1 encrypted PEM support, see decryptPEM
	"encoding/pem"
	"fmt"
)

// decryptPEM decrypts a passphrase-protected PEM-encoded private key
// block. This is the one place hookd reaches for a stdlib API with no
// equivalent in the corpus's third-party surface: legacy OpenSSL
// "Proc-Type: 4,ENCRYPTED" PEM encryption has no maintained third-party
// decoder among the examples, and crypto/x509's DecryptPEMBlock, though
// deprecated for its weak KDF, remains the only implementation available
// for keys produced by `openssl ... -des3` et al. (see §3 ServerConfig's
// secure.keyPassphrase).
func decryptPEM(keyPEM []byte, passphrase string) ([]byte, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if !x509.IsEncryptedPEMBlock(block) { //nolint:staticcheck
		return keyPEM, nil
	}
	der, err := x509.DecryptPEMBlock(block, []byte(passphrase)) //nolint:staticcheck
	if err != nil {
		return nil, fmt.Errorf("decrypt PEM block: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: der}), nil
}
