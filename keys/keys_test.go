package keys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gowrapbridge/types"
)

// well-known dev key, address 0x96216849c49358B10257cb55b28eA603c874b05E
const devKey = "fad9c8855b740a0b7ed4c221dbad0f33a83a49cad6b3fe8d5817ac83d38b6a19"

func TestLoadPrivateKeyTrimsWhitespaceAndPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret_key.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n  0x"+devKey+"  \n"), 0o600))

	key, err := LoadPrivateKey(path)
	require.NoError(t, err)
	assert.Equal(t, "0x96216849c49358B10257cb55b28eA603c874b05E", crypto.PubkeyToAddress(key.PublicKey).Hex())
}

func TestLoadPrivateKeyErrors(t *testing.T) {
	_, err := LoadPrivateKey(filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, errors.Is(err, types.ErrConfig))

	path := filepath.Join(t.TempDir(), "secret_key.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n"), 0o600))
	_, err = LoadPrivateKey(path)
	assert.True(t, errors.Is(err, types.ErrConfig))

	_, err = ParsePrivateKey("zz" + devKey[2:])
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrConfig))
	assert.NotContains(t, err.Error(), devKey[2:])
}
