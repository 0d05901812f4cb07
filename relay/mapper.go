package relay

import (
	"gowrapbridge/types"
)

// mirror call per source event kind; arguments are (token, recipient, amount)
var relayFunctions = map[types.EventKind]string{
	types.KindDeposit: "wrap",     // wrap(token, recipient, amount) on destination
	types.KindUnwrap:  "withdraw", // withdraw(underlying_token, to, amount) on source
}

// Map returns the counterpart-chain call that mirrors ev.
func Map(ev types.BridgeEvent) (types.RelayAction, error) {
	function, ok := relayFunctions[ev.Kind]
	if !ok {
		return types.RelayAction{}, types.Wrapf(types.ErrMapping, "no relay call for %q event %s", string(ev.Kind), ev.TxHash.Hex())
	}

	target, err := ev.Chain.Counterpart()
	if err != nil {
		return types.RelayAction{}, types.Wrapf(types.ErrMapping, "event %s from unknown chain %q", ev.TxHash.Hex(), ev.Chain.String())
	}

	return types.RelayAction{
		TargetChain: target,
		Function:    function,
		Args:        []interface{}{ev.Token, ev.Recipient, ev.Amount},
		Source:      ev,
	}, nil
}
