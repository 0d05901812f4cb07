package keys

import (
	"crypto/ecdsa"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"gowrapbridge/types"
)

// LoadPrivateKey reads the single hex private key held in path.
// Errors never include the key material.
func LoadPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapCause(types.ErrConfig, err, "read secret key file")
	}
	return ParsePrivateKey(string(raw))
}

func ParsePrivateKey(s string) (*ecdsa.PrivateKey, error) {
	hexKey := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if hexKey == "" {
		return nil, types.Wrapf(types.ErrConfig, "secret key file is empty")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, types.Wrapf(types.ErrConfig, "secret key is not a valid secp256k1 hex key")
	}
	return key, nil
}
