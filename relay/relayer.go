package relay

import (
	"context"
	"crypto/ecdsa"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"gowrapbridge/config"
	"gowrapbridge/contracts"
	"gowrapbridge/metrics"
	"gowrapbridge/scanner"
	"gowrapbridge/types"
)

// Chain is an open connection to one side of the bridge.
type Chain interface {
	scanner.LogFilterer
	TxBackend
	ID() types.ChainID
	Head(ctx context.Context) (types.HeadReading, error)
	Close()
}

// Connector opens a Chain for an identifier.
type Connector func(ctx context.Context, chain types.ChainID) (Chain, error)

// CheckpointStore keeps the last block whose events were all relayed,
// per chain and event kind.
type CheckpointStore interface {
	LastBlock(ctx context.Context, chain types.ChainID, kind types.EventKind) (block uint64, ok bool, err error)
	SetLastBlock(ctx context.Context, chain types.ChainID, kind types.EventKind, block uint64) error
}

// OutcomeSink records the outcome of every relay attempt.
type OutcomeSink interface {
	Record(ctx context.Context, op *types.RelayOperation) error
}

// Deduper reports source events that an earlier cycle already relayed.
type Deduper interface {
	Relayed(ctx context.Context, ev types.BridgeEvent) (bool, error)
}

// Relayer runs relay cycles. Without Checkpoints every cycle rescans the
// trailing Lookback window: events older than the window are missed and
// overlapping cycles relay the same event twice unless Dedupe is set.
type Relayer struct {
	Connect           Connector
	ContractInfoPath  string
	Key               *ecdsa.PrivateKey
	Submitter         *Submitter
	Lookback          uint64
	MaxBlocksPerCycle uint64

	Checkpoints CheckpointStore // optional
	Dedupe      Deduper         // optional
	Sink        OutcomeSink     // optional
}

// CycleReport summarizes one relay cycle.
type CycleReport struct {
	Chain   types.ChainID
	Target  types.ChainID
	Kind    types.EventKind
	Head    types.HeadReading
	Range   types.BlockRange
	Scanned bool // false when the checkpoint is already at head

	Events  int
	Relayed int
	Failed  int
	Skipped int
}

func NewRelayer(connect Connector, key *ecdsa.PrivateKey) *Relayer {
	return &Relayer{
		Connect:           connect,
		ContractInfoPath:  config.Config.Relay.ContractInfoPath,
		Key:               key,
		Submitter:         NewSubmitter(FixedFeeStrategy{GasLimit: config.Config.Fee.GasLimit, GasPricePercent: config.Config.Fee.GasPricePercent}),
		Lookback:          config.Config.Relay.LookbackBlocks,
		MaxBlocksPerCycle: config.Config.Relay.MaxBlocksPerCycle,
	}
}

// RunCycle relays the events of chain found in this cycle's window to its counterpart.
// Configuration, range and mapping errors abort the cycle; a rejected
// submission is recorded and the cycle moves on to the next event.
func (r *Relayer) RunCycle(ctx context.Context, chain types.ChainID) (*CycleReport, error) {
	counterpart, err := chain.Counterpart()
	if err != nil {
		return nil, err
	}
	kind, err := types.KindFor(chain)
	if err != nil {
		return nil, err
	}
	if r.Key == nil {
		return nil, types.Wrapf(types.ErrConfig, "no signing key loaded")
	}

	desc, err := contracts.LoadDescriptor(r.ContractInfoPath)
	if err != nil {
		return nil, err
	}
	current, err := desc.Contract(chain)
	if err != nil {
		return nil, err
	}
	counter, err := desc.Contract(counterpart)
	if err != nil {
		return nil, err
	}
	if fn := relayFunctions[kind]; !hasMethod(counter, fn) {
		return nil, types.Wrapf(types.ErrConfig, "%s contract has no %s function", counterpart.String(), fn)
	}

	src, err := r.Connect(ctx, chain)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	dst, err := r.Connect(ctx, counterpart)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	head, err := src.Head(ctx)
	if err != nil {
		return nil, err
	}
	metrics.HeadBlock.WithLabelValues(chain.String()).Set(float64(head.Block))

	report := &CycleReport{Chain: chain, Target: counterpart, Kind: kind, Head: head}

	rng, prev, ok, err := r.window(ctx, chain, kind, head)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Printf("No new %s blocks since %d", chain, head.Block)
		return report, nil
	}
	report.Range = rng
	report.Scanned = true

	log.Printf("Scanning %s blocks %d to %d for %s events (head read at %s)", chain, rng.From, rng.To, kind, head.ObservedAt.Format(time.RFC3339))

	it, err := scanner.Scan(ctx, src, current, kind, rng)
	if err != nil {
		return report, err
	}
	defer it.Close()

	var firstFailed *uint64
	markFailed := func(block uint64) {
		if firstFailed == nil {
			firstFailed = &block
		}
	}

	for it.Next() {
		ev := it.Event
		report.Events++
		evLog := log.WithFields(log.Fields{
			"chain":     ev.Chain,
			"block":     ev.BlockNumber,
			"tx":        ev.TxHash.Hex(),
			"token":     ev.Token.Hex(),
			"recipient": ev.Recipient.Hex(),
			"amount":    ev.Amount.String(),
		})
		evLog.Infof("Detected %s", ev.Kind)

		if r.Dedupe != nil {
			seen, err := r.Dedupe.Relayed(ctx, ev)
			if err != nil {
				// unknown state, don't risk a double relay
				evLog.Errorf("Cannot check previous relays, leaving event for the next cycle: %s", err.Error())
				report.Failed++
				markFailed(ev.BlockNumber)
				continue
			}
			if seen {
				evLog.Infof("Already relayed, skipping")
				report.Skipped++
				metrics.RelayedEvents.WithLabelValues(chain.String(), types.StatusSkipped).Inc()
				continue
			}
		}

		action, err := Map(ev)
		if err != nil {
			return report, err
		}

		op := newOperation(ev, action)
		txHash, err := r.Submitter.Submit(ctx, dst, counter, action, r.Key)
		if err != nil {
			op.Status = types.StatusFailed
			op.Message = err.Error()
			report.Failed++
			markFailed(ev.BlockNumber)
			evLog.Errorf("%s() failed on %s: %s", action.Function, counterpart, err.Error())
		} else {
			op.Status = types.StatusSent
			op.DestTxHash = txHash
			report.Relayed++
			evLog.Infof("%s() tx sent to %s: %s", action.Function, counterpart, txHash)
		}
		metrics.RelayedEvents.WithLabelValues(chain.String(), op.Status).Inc()

		if r.Sink != nil {
			if err := r.Sink.Record(ctx, op); err != nil {
				evLog.Errorf("Cannot record relay outcome %s: %s", op.ID, err.Error())
			}
		}
	}
	if err := it.Error(); err != nil {
		return report, err
	}

	r.advance(ctx, chain, kind, rng, prev, firstFailed)
	return report, nil
}

// RunAll runs one cycle per chain, source first. A failed cycle does not
// prevent the next one; the first error is returned.
func (r *Relayer) RunAll(ctx context.Context) ([]*CycleReport, error) {
	var (
		reports  []*CycleReport
		firstErr error
	)
	for _, chain := range types.Chains {
		report, err := r.RunCycle(ctx, chain)
		if err != nil {
			log.Printf("Relay cycle %s failed: %s", chain, err.Error())
			if firstErr == nil {
				firstErr = err
			}
		}
		if report != nil {
			reports = append(reports, report)
			log.Printf("Relay cycle %s -> %s: %d events, %d relayed, %d failed, %d skipped",
				report.Chain, report.Target, report.Events, report.Relayed, report.Failed, report.Skipped)
		}
	}
	return reports, firstErr
}

func (r *Relayer) window(ctx context.Context, chain types.ChainID, kind types.EventKind, head types.HeadReading) (rng types.BlockRange, prev *uint64, ok bool, err error) {
	if r.Checkpoints == nil {
		return scanner.TrailingWindow(head.Block, r.Lookback), nil, true, nil
	}

	last, found, err := r.Checkpoints.LastBlock(ctx, chain, kind)
	if err != nil {
		return rng, nil, false, err
	}
	if !found {
		// first run in this environment
		return scanner.TrailingWindow(head.Block, r.Lookback), nil, true, nil
	}

	rng, ok = scanner.CheckpointWindow(last, head.Block, r.MaxBlocksPerCycle)
	return rng, &last, ok, nil
}

// advance moves the checkpoint past every block whose events were all relayed.
func (r *Relayer) advance(ctx context.Context, chain types.ChainID, kind types.EventKind, rng types.BlockRange, prev *uint64, firstFailed *uint64) {
	if r.Checkpoints == nil {
		return
	}

	last := rng.To
	if firstFailed != nil {
		if *firstFailed == 0 {
			return
		}
		last = *firstFailed - 1
	}
	if prev != nil && last <= *prev {
		return
	}

	if err := r.Checkpoints.SetLastBlock(ctx, chain, kind, last); err != nil {
		log.Printf("Cannot store %s checkpoint %d: %s", chain, last, err.Error())
		return
	}
	metrics.CheckpointBlock.WithLabelValues(chain.String()).Set(float64(last))
}

func hasMethod(contract types.ContractInfo, name string) bool {
	_, ok := contract.ABI.Methods[name]
	return ok
}

func newOperation(ev types.BridgeEvent, action types.RelayAction) *types.RelayOperation {
	return &types.RelayOperation{
		ID:             uuid.New().String(),
		Kind:           ev.Kind,
		SourceChain:    ev.Chain,
		DestChain:      action.TargetChain,
		TsFound:        ev.ObservedAt.Unix(),
		Token:          ev.Token.Hex(),
		Recipient:      ev.Recipient.Hex(),
		Amount:         ev.Amount.String(),
		SourceTxHash:   ev.TxHash.Hex(),
		SourceLogIndex: ev.LogIndex,
		SourceBlock:    ev.BlockNumber,
		DestFunction:   action.Function,
	}
}
