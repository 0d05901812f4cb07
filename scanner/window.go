package scanner

import (
	"gowrapbridge/types"
)

// TrailingWindow is [head-lookback, head], floored at block 0.
func TrailingWindow(head, lookback uint64) types.BlockRange {
	from := uint64(0)
	if head > lookback {
		from = head - lookback
	}
	return types.BlockRange{From: from, To: head}
}

// CheckpointWindow continues after the last processed block, at most max blocks.
// ok is false when the chain has not moved past last.
func CheckpointWindow(last, head, max uint64) (rng types.BlockRange, ok bool) {
	if last >= head {
		return types.BlockRange{}, false
	}
	rng = types.BlockRange{From: last + 1, To: head}
	if max > 0 && rng.Span() > max {
		rng.To = rng.From + max - 1
	}
	return rng, true
}

// ResolveRange fills the "latest" sentinels (nil) with head.
// A to without a from selects the single block to.
func ResolveRange(head types.HeadReading, from, to *uint64) (types.BlockRange, error) {
	rng := types.BlockRange{From: head.Block, To: head.Block}
	if to != nil {
		rng.To = *to
		rng.From = *to
	}
	if from != nil {
		rng.From = *from
	}
	return rng, rng.Validate()
}
