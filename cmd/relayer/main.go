package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"

	"gowrapbridge/config"
	"gowrapbridge/keys"
	"gowrapbridge/relay"
	"gowrapbridge/sink"
	"gowrapbridge/workers"
)

// One pass in each direction over the trailing lookback window of both chains.
func main() {
	config.Init()

	if err := run(); err != nil {
		log.Errorf("Relay finished with errors: %s", err.Error())
		os.Exit(1)
	}
}

func run() error {
	key, err := keys.LoadPrivateKey(config.Config.Relay.SecretKeyPath)
	if err != nil {
		return err
	}

	r := relay.NewRelayer(workers.ConnectEVM, key)
	sinks := sink.Multi{sink.LogSink{}}
	if path := config.Config.Relay.OutcomesPath; path != "" {
		outcomes, err := sink.NewOutcomeCSV(path)
		if err != nil {
			return err
		}
		defer outcomes.Close()
		sinks = append(sinks, outcomes)
	}
	r.Sink = sinks

	_, err = r.RunAll(context.Background())
	return err
}
