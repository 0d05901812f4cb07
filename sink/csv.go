package sink

import (
	"encoding/csv"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"gowrapbridge/contracts"
	"gowrapbridge/types"
)

// DateLayout is the layout of the date column, always UTC.
const DateLayout = "2006-01-02 15:04:05"

var EventColumns = []string{"chain", "token", "recipient", "amount", "transactionHash", "address", "date"}

// WriteEventsCSV replaces path with one row per event. The header is
// written even when events is empty.
func WriteEventsCSV(path string, events []types.BridgeEvent) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	if err := writeEvents(f, events); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return f.Close()
}

func writeEvents(out io.Writer, events []types.BridgeEvent) error {
	w := csv.NewWriter(out)
	if err := w.Write(EventColumns); err != nil {
		return err
	}
	for _, ev := range events {
		amount := ""
		if ev.Amount != nil {
			amount = ev.Amount.String()
		}
		row := []string{
			ev.Chain.String(),
			ev.Token.Hex(),
			ev.Recipient.Hex(),
			amount,
			ev.TxHash.Hex(),
			ev.Contract.Hex(),
			ev.ObservedAt.UTC().Format(DateLayout),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadEventsCSV parses a file written by WriteEventsCSV. Block numbers and
// log indexes are not part of the file and come back zero.
func ReadEventsCSV(path string) ([]types.BridgeEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(EventColumns)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if len(rows) == 0 {
		return nil, errors.Errorf("%s: missing header", path)
	}
	for i, col := range EventColumns {
		if rows[0][i] != col {
			return nil, errors.Errorf("%s: column %d is %q, expected %q", path, i+1, rows[0][i], col)
		}
	}

	events := make([]types.BridgeEvent, 0, len(rows)-1)
	for n, row := range rows[1:] {
		ev, err := parseEventRow(row)
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d", path, n+2)
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseEventRow(row []string) (types.BridgeEvent, error) {
	chain, err := types.ParseChainID(row[0])
	if err != nil {
		return types.BridgeEvent{}, err
	}
	kind, err := types.KindFor(chain)
	if err != nil {
		return types.BridgeEvent{}, err
	}

	token, err := contracts.ChecksumAddress(row[1])
	if err != nil {
		return types.BridgeEvent{}, errors.Wrap(err, "token")
	}
	recipient, err := contracts.ChecksumAddress(row[2])
	if err != nil {
		return types.BridgeEvent{}, errors.Wrap(err, "recipient")
	}
	amount, ok := new(big.Int).SetString(row[3], 10)
	if !ok {
		return types.BridgeEvent{}, errors.Errorf("bad amount %q", row[3])
	}
	contract, err := contracts.ChecksumAddress(row[5])
	if err != nil {
		return types.BridgeEvent{}, errors.Wrap(err, "address")
	}
	date, err := time.ParseInLocation(DateLayout, row[6], time.UTC)
	if err != nil {
		return types.BridgeEvent{}, errors.Wrap(err, "date")
	}

	return types.BridgeEvent{
		Kind:       kind,
		Chain:      chain,
		Token:      token,
		Recipient:  recipient,
		Amount:     amount,
		TxHash:     common.HexToHash(row[4]),
		Contract:   contract,
		ObservedAt: date,
	}, nil
}
