package contracts

import (
	"bytes"
	"encoding/json"
	"os"

	ethav "github.com/KOREAN139/ethereum-address-validator"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"gowrapbridge/types"
)

type descriptorEntry struct {
	ABI     json.RawMessage `json:"abi"`
	Address string          `json:"address"`
}

// Descriptor is the contract_info.json file: one entry per chain identifier.
type Descriptor struct {
	Path    string
	entries map[string]descriptorEntry
}

// LoadDescriptor reads the descriptor once; entries are resolved lazily by Contract.
func LoadDescriptor(path string) (*Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapCause(types.ErrConfig, err, "read contract descriptor")
	}

	entries := make(map[string]descriptorEntry)
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, types.WrapCause(types.ErrConfig, err, "parse contract descriptor "+path)
	}

	return &Descriptor{Path: path, entries: entries}, nil
}

// Contract returns the ABI and checksummed address deployed on chain.
func (d *Descriptor) Contract(chain types.ChainID) (types.ContractInfo, error) {
	entry, ok := d.entries[chain.String()]
	if !ok {
		return types.ContractInfo{}, types.Wrapf(types.ErrConfig, "descriptor %s has no entry for chain %q", d.Path, chain.String())
	}

	address, err := ChecksumAddress(entry.Address)
	if err != nil {
		return types.ContractInfo{}, types.WrapCause(types.ErrConfig, err, "contract address for chain "+chain.String())
	}

	if len(bytes.TrimSpace(entry.ABI)) == 0 {
		return types.ContractInfo{}, types.Wrapf(types.ErrConfig, "descriptor %s has no abi for chain %q", d.Path, chain.String())
	}
	parsed, err := abi.JSON(bytes.NewReader(entry.ABI))
	if err != nil {
		return types.ContractInfo{}, types.WrapCause(types.ErrConfig, err, "parse abi for chain "+chain.String())
	}

	return types.ContractInfo{
		Chain:   chain,
		Schema:  types.InterfaceSchema(entry.ABI),
		ABI:     parsed,
		Address: address,
	}, nil
}

// LoadContractInfo reads path and returns the entry of a single chain.
func LoadContractInfo(path string, chain types.ChainID) (types.ContractInfo, error) {
	d, err := LoadDescriptor(path)
	if err != nil {
		return types.ContractInfo{}, err
	}
	return d.Contract(chain)
}

// ChecksumAddress normalizes any-case hex into the EIP-55 form.
func ChecksumAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, types.Wrapf(types.ErrConfig, "%q is not a 20-byte hex address", s)
	}

	address := common.HexToAddress(s)
	if err := ethav.Validate(address.Hex()); err != nil {
		return common.Address{}, types.WrapCause(types.ErrConfig, err, "validate address "+s)
	}
	return address, nil
}
