package sink

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"gowrapbridge/types"
)

var OutcomeColumns = []string{
	"id", "status", "kind", "sourceChain", "destChain", "token", "recipient", "amount",
	"sourceTxHash", "sourceLogIndex", "sourceBlock", "destFunction", "destTxHash", "message",
}

// OutcomeCSV writes one row per relay attempt. The file is replaced when opened.
type OutcomeCSV struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

func NewOutcomeCSV(path string) (*OutcomeCSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	s := &OutcomeCSV{f: f, w: csv.NewWriter(f)}
	if err := s.write(OutcomeColumns); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *OutcomeCSV) Record(_ context.Context, op *types.RelayOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write([]string{
		op.ID,
		op.Status,
		string(op.Kind),
		op.SourceChain.String(),
		op.DestChain.String(),
		op.Token,
		op.Recipient,
		op.Amount,
		op.SourceTxHash,
		strconv.FormatUint(uint64(op.SourceLogIndex), 10),
		strconv.FormatUint(op.SourceBlock, 10),
		op.DestFunction,
		op.DestTxHash,
		op.Message,
	})
}

// rows are flushed one by one so a crash keeps everything recorded so far
func (s *OutcomeCSV) write(row []string) error {
	if err := s.w.Write(row); err != nil {
		return errors.Wrapf(err, "write %s", s.f.Name())
	}
	s.w.Flush()
	return errors.Wrapf(s.w.Error(), "flush %s", s.f.Name())
}

func (s *OutcomeCSV) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	return s.f.Close()
}

// LogSink logs outcomes and keeps nothing.
type LogSink struct{}

func (LogSink) Record(_ context.Context, op *types.RelayOperation) error {
	entry := log.WithFields(log.Fields{
		"id":     op.ID,
		"source": op.SourceTxHash,
		"dest":   op.DestTxHash,
	})
	if op.Status == types.StatusFailed {
		entry.Warnf("%s %s -> %s %s(): %s", op.Status, op.SourceChain, op.DestChain, op.DestFunction, op.Message)
		return nil
	}
	entry.Infof("%s %s -> %s %s()", op.Status, op.SourceChain, op.DestChain, op.DestFunction)
	return nil
}

// Recorder is anything outcomes can be recorded to.
type Recorder interface {
	Record(ctx context.Context, op *types.RelayOperation) error
}

// Multi records to every sink and returns the first error.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, op *types.RelayOperation) error {
	var first error
	for _, s := range m {
		if err := s.Record(ctx, op); err != nil && first == nil {
			first = err
		}
	}
	return first
}
