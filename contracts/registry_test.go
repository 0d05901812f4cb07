package contracts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gowrapbridge/types"
)

const fixture = "testdata/contract_info.json"

func TestLoadContractInfoChecksumsAddresses(t *testing.T) {
	src, err := LoadContractInfo(fixture, types.ChainSource)
	require.NoError(t, err)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", src.Address.Hex())
	assert.Equal(t, types.ChainSource, src.Chain)
	assert.Contains(t, src.ABI.Events, "Deposit")
	assert.Contains(t, src.ABI.Methods, "withdraw")

	dst, err := LoadContractInfo(fixture, types.ChainDestination)
	require.NoError(t, err)
	assert.Equal(t, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359", dst.Address.Hex())
	assert.Contains(t, dst.ABI.Events, "Unwrap")
	assert.Contains(t, dst.ABI.Methods, "wrap")
}

func TestDescriptorKeepsSchemaOpaque(t *testing.T) {
	d, err := LoadDescriptor(fixture)
	require.NoError(t, err)

	info, err := d.Contract(types.ChainDestination)
	require.NoError(t, err)
	assert.Contains(t, string(info.Schema), `"underlying_token"`)
	assert.Equal(t, byte('['), info.Schema[0])
}

func TestLoadContractInfoErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadContractInfo(filepath.Join(dir, "absent.json"), types.ChainSource)
	assert.True(t, errors.Is(err, types.ErrConfig), "unreadable path")

	malformed := filepath.Join(dir, "malformed.json")
	require.NoError(t, os.WriteFile(malformed, []byte(`{"source":`), 0o600))
	_, err = LoadContractInfo(malformed, types.ChainSource)
	assert.True(t, errors.Is(err, types.ErrConfig), "malformed json")

	onlySource := filepath.Join(dir, "only_source.json")
	require.NoError(t, os.WriteFile(onlySource, []byte(`{"source":{"abi":[],"address":"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"}}`), 0o600))
	_, err = LoadContractInfo(onlySource, types.ChainDestination)
	assert.True(t, errors.Is(err, types.ErrConfig), "missing chain key")

	badAddress := filepath.Join(dir, "bad_address.json")
	require.NoError(t, os.WriteFile(badAddress, []byte(`{"source":{"abi":[],"address":"0x1234"}}`), 0o600))
	_, err = LoadContractInfo(badAddress, types.ChainSource)
	assert.True(t, errors.Is(err, types.ErrConfig), "short address")

	noAbi := filepath.Join(dir, "no_abi.json")
	require.NoError(t, os.WriteFile(noAbi, []byte(`{"source":{"address":"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"}}`), 0o600))
	_, err = LoadContractInfo(noAbi, types.ChainSource)
	assert.True(t, errors.Is(err, types.ErrConfig), "missing abi")
}

func TestChecksumAddress(t *testing.T) {
	for _, in := range []string{
		"0xdbf03b407c01e7cd3cbea99509d93f8dddc8c6fb",
		"0xDBF03B407C01E7CD3CBEA99509D93F8DDDC8C6FB",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
	} {
		addr, err := ChecksumAddress(in)
		require.NoError(t, err, in)
		assert.Equal(t, "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB", addr.Hex())
	}

	_, err := ChecksumAddress("not an address")
	assert.True(t, errors.Is(err, types.ErrConfig))
}
