package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"gowrapbridge/EVMRPC"
	"gowrapbridge/config"
	"gowrapbridge/contracts"
	"gowrapbridge/scanner"
	"gowrapbridge/sink"
	"gowrapbridge/types"
)

var (
	ChainFlag = &cli.StringFlag{
		Name:  "chain",
		Usage: "chain to scan, source (Deposit events) or destination (Unwrap events)",
		Value: types.ChainSource.String(),
	}
	FromFlag = &cli.Uint64Flag{
		Name:  "from",
		Usage: "first block to scan, defaults to --to, or the latest block when --to is not set",
	}
	ToFlag = &cli.Uint64Flag{
		Name:  "to",
		Usage: "last block to scan, defaults to the latest block",
	}
	OutFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "CSV file to write, replaced on every run",
		Value: "deposit_logs.csv",
	}
	ContractInfoFlag = &cli.StringFlag{
		Name:  "contract-info",
		Usage: "contract descriptor, defaults to relay.contract_info from config.yml",
	}
	ConfigFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML configuration file",
		Value: "config.yml",
	}
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "log level: panic, fatal, error, warn, info, debug, trace",
		Value: log.InfoLevel.String(),
	}
)

var app = &cli.App{
	Name:   "scanner",
	Usage:  "write bridge events of a block range to CSV",
	Flags:  []cli.Flag{ChainFlag, FromFlag, ToFlag, OutFlag, ContractInfoFlag, ConfigFileFlag, VerbosityFlag},
	Action: run,
}

func main() {
	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	lvl, err := log.ParseLevel(ctx.String(VerbosityFlag.Name))
	if err != nil {
		return err
	}
	log.SetLevel(lvl)

	cfg, err := config.Load(ctx.String(ConfigFileFlag.Name))
	if err != nil {
		return err
	}
	config.Config = cfg

	chain, err := types.ParseChainID(ctx.String(ChainFlag.Name))
	if err != nil {
		return err
	}
	kind, err := types.KindFor(chain)
	if err != nil {
		return err
	}

	descriptor := ctx.String(ContractInfoFlag.Name)
	if descriptor == "" {
		descriptor = cfg.Relay.ContractInfoPath
	}
	contract, err := contracts.LoadContractInfo(descriptor, chain)
	if err != nil {
		return err
	}

	h, err := EVMRPC.Connect(ctx.Context, chain)
	if err != nil {
		return err
	}
	defer h.Close()

	head, err := h.Head(ctx.Context)
	if err != nil {
		return err
	}

	var from, to *uint64
	if ctx.IsSet(FromFlag.Name) {
		v := ctx.Uint64(FromFlag.Name)
		from = &v
	}
	if ctx.IsSet(ToFlag.Name) {
		v := ctx.Uint64(ToFlag.Name)
		to = &v
	}
	rng, err := scanner.ResolveRange(head, from, to)
	if err != nil {
		return err
	}

	log.Printf("Scanning %s blocks %d to %d for %s events at %s", h.Name(), rng.From, rng.To, kind, contract.Address.Hex())

	it, err := scanner.Scan(ctx.Context, h, contract, kind, rng)
	if err != nil {
		return err
	}
	events, err := scanner.Collect(it)
	if err != nil {
		return err
	}

	out := ctx.String(OutFlag.Name)
	if err := sink.WriteEventsCSV(out, events); err != nil {
		return err
	}
	log.Printf("Wrote %d %s events to %s", len(events), kind, out)
	return nil
}
