package config

import (
	"time"

	"gowrapbridge/types"
)

// Environment variables are prefixed with the section name,
// e.g. SERVER_REDIS_HOST, RELAY_LOOKBACK_BLOCKS, FEE_GAS_LIMIT.
type Configuration struct {
	// Server config
	Server struct {
		Port      int    `yaml:"port" envconfig:"PORT"`
		UseSSL    bool   `yaml:"ssl" envconfig:"SSL"`
		RedisPort int    `yaml:"redis_port" envconfig:"REDIS_PORT"`
		RedisHost string `yaml:"redis_host" envconfig:"REDIS_HOST"`
	} `yaml:"server"`
	// Relay-related config
	Relay struct {
		ContractInfoPath  string        `yaml:"contract_info" envconfig:"CONTRACT_INFO"`
		SecretKeyPath     string        `yaml:"secret_key" envconfig:"SECRET_KEY"`
		OutcomesPath      string        `yaml:"outcomes" envconfig:"OUTCOMES"` // empty disables the CSV outcome file
		LookbackBlocks    uint64        `yaml:"lookback_blocks" envconfig:"LOOKBACK_BLOCKS"`
		MaxBlocksPerCycle uint64        `yaml:"max_blocks_per_cycle" envconfig:"MAX_BLOCKS"`
		PollInterval      time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL"`
	} `yaml:"relay"`
	// Fee bid used for every relay transaction
	Fee struct {
		GasLimit        uint64 `yaml:"gas_limit" envconfig:"GAS_LIMIT"`
		GasPricePercent int64  `yaml:"gas_price_percent" envconfig:"GAS_PRICE_PERCENT"`
	} `yaml:"fee"`
	// RPC endpoints replacing the built-in ones, comma separated in the environment
	RPC struct {
		Source      []string `yaml:"source" envconfig:"SOURCE"`
		Destination []string `yaml:"destination" envconfig:"DESTINATION"`
	} `yaml:"rpc"`
}

var Config = Defaults()

// number of trailing blocks rescanned when no checkpoint is kept
const LOOKBACK_BLOCKS = 5

// ranges spanning more blocks than this are scanned block by block
const PER_BLOCK_THRESHOLD = 30

// gas limit ceiling of relay transactions
const RELAY_GAS_LIMIT = 500000

// EVM-chains configs
type ChainConfig struct {
	Name    string
	ChainID int64
	RPCList []string
	// block headers carry non-standard extra data (proof-of-authority)
	POA bool
}

var EVMChains = map[types.ChainID]ChainConfig{
	types.ChainSource: {
		Name:    "Avalanche Fuji",
		ChainID: 43113,
		RPCList: []string{"https://api.avax-test.network/ext/bc/C/rpc"},
		POA:     true,
	},
	types.ChainDestination: {
		Name:    "BSC testnet",
		ChainID: 97,
		RPCList: []string{"https://data-seed-prebsc-1-s1.binance.org:8545/"},
		POA:     true,
	},
}

func Defaults() Configuration {
	var cfg Configuration
	cfg.Server.Port = 8080
	cfg.Server.RedisHost = "127.0.0.1"
	cfg.Server.RedisPort = 6379
	cfg.Relay.ContractInfoPath = "contract_info.json"
	cfg.Relay.SecretKeyPath = "secret_key.txt"
	cfg.Relay.LookbackBlocks = LOOKBACK_BLOCKS
	cfg.Relay.MaxBlocksPerCycle = 512
	cfg.Relay.PollInterval = 10 * time.Second
	cfg.Fee.GasLimit = RELAY_GAS_LIMIT
	cfg.Fee.GasPricePercent = 100
	return cfg
}

// Chain returns the endpoint config of a recognized chain,
// with the RPC list from Config when one is set.
func Chain(chain types.ChainID) (ChainConfig, error) {
	cfg, ok := EVMChains[chain]
	if !ok {
		return ChainConfig{}, types.Wrapf(types.ErrConfig, "unknown chain %q", chain.String())
	}
	if urls := Config.rpcOverride(chain); len(urls) > 0 {
		cfg.RPCList = urls
	}
	if len(cfg.RPCList) == 0 {
		return ChainConfig{}, types.Wrapf(types.ErrConfig, "no RPC endpoint for chain %q", chain.String())
	}
	return cfg, nil
}

func (c Configuration) rpcOverride(chain types.ChainID) []string {
	switch chain {
	case types.ChainSource:
		return c.RPC.Source
	case types.ChainDestination:
		return c.RPC.Destination
	}
	return nil
}

var RedisStatusSets = map[string]string{
	types.StatusSent:    "relayops:sent",    // counterpart transaction broadcast
	types.StatusFailed:  "relayops:failed",  // submission rejected, needs an operator
	types.StatusSkipped: "relayops:skipped", // already relayed by an earlier cycle
}
