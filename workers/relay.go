package workers

import (
	"context"
	"crypto/ecdsa"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"gowrapbridge/EVMRPC"
	"gowrapbridge/config"
	"gowrapbridge/redis"
	"gowrapbridge/relay"
	"gowrapbridge/sink"
	"gowrapbridge/types"
)

// WorkerShutdown is set once the HTTP server stops; workers exit on their next wakeup.
var WorkerShutdown atomic.Bool

// one cycle scans at most MaxBlocksPerCycle blocks, this bounds the slowest provider
const cycleTimeout = 5 * time.Minute

// ConnectEVM opens a relay chain over the configured RPC endpoints.
func ConnectEVM(ctx context.Context, chain types.ChainID) (relay.Chain, error) {
	h, err := EVMRPC.Connect(ctx, chain)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// NewDaemonRelayer keeps checkpoints and outcomes in redis, so cycles resume
// where the previous one stopped and already relayed events are skipped.
func NewDaemonRelayer(key *ecdsa.PrivateKey) *relay.Relayer {
	store := redis.Store{}

	r := relay.NewRelayer(ConnectEVM, key)
	r.Checkpoints = store
	r.Dedupe = store
	r.Sink = sink.Multi{store, sink.LogSink{}}
	return r
}

func Worker_relay(r *relay.Relayer) {
	for !WorkerShutdown.Load() {
		time.Sleep(config.Config.Relay.PollInterval)
		if WorkerShutdown.Load() {
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
		_, err := r.RunAll(ctx)
		cancel()

		// descriptor is reloaded every cycle, an operator can fix it without a restart
		if errors.Is(err, types.ErrConfig) {
			log.Errorf("Relay configuration error, check %s and the chain settings: %s", r.ContractInfoPath, err.Error())
		}
	}
	log.Print("Relay worker stopped")
}
