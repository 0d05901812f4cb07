package config

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	yaml "gopkg.in/yaml.v2"

	"gowrapbridge/types"
)

// reading config error is fatal, and exists main thread
func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}

func readFile(path string, cfg *Configuration) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		// built-in defaults are enough to run against the testnets
		return nil
	}
	if err != nil {
		return types.WrapCause(types.ErrConfig, err, "open config file")
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(cfg)
	if err != nil && err != io.EOF {
		return types.WrapCause(types.ErrConfig, err, "decode "+path)
	}
	return nil
}

func readEnv(cfg *Configuration) error {
	// .env is optional
	_ = godotenv.Load()

	err := envconfig.Process("", cfg)
	if err != nil {
		return types.WrapCause(types.ErrConfig, err, "read environment")
	}
	return nil
}

// Load builds a configuration from defaults, the yaml file at path and the environment.
func Load(path string) (Configuration, error) {
	cfg := Defaults()
	if err := readFile(path, &cfg); err != nil {
		return cfg, err
	}
	if err := readEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.Fee.GasLimit == 0 {
		return cfg, types.Wrapf(types.ErrConfig, "gas limit must be positive")
	}
	if cfg.Fee.GasPricePercent <= 0 {
		return cfg, types.Wrapf(types.ErrConfig, "gas price percent must be positive")
	}
	return cfg, nil
}

func Init() {
	cfg, err := Load("config.yml")
	if err != nil {
		processError(err)
	}
	Config = cfg
}
