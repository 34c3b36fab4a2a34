package ledger

import (
	"github.com/shopspring/decimal"
)

// apyPlaces is the precision of the reported weighted APY.
const apyPlaces = 4

// Summarize aggregates positions into a StakingSummary. Only active positions
// count toward the staked balance and the weighted APY; earnings of every
// position count toward the earned total.
func Summarize(positions []StakingPosition) StakingSummary {
	staked := decimal.Zero
	earned := decimal.Zero
	weighted := decimal.Zero

	for _, pos := range positions {
		if pos.Status == PositionActive {
			staked = staked.Add(pos.Amount)
			weighted = weighted.Add(pos.APY.Mul(pos.Amount))
		}
		earned = earned.Add(pos.Earned)
	}

	apy := decimal.Zero
	if staked.IsPositive() {
		apy = weighted.DivRound(staked, apyPlaces)
	}

	if positions == nil {
		positions = []StakingPosition{}
	}
	return StakingSummary{
		StakedBalance: staked,
		EarnedTotal:   earned,
		WeightedAPY:   apy,
		Positions:     positions,
	}
}
