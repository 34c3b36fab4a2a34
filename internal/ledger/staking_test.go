package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func position(amount, apy, earned string, status PositionStatus) StakingPosition {
	return StakingPosition{
		Amount: decimal.RequireFromString(amount),
		APY:    decimal.RequireFromString(apy),
		Earned: decimal.RequireFromString(earned),
		Status: status,
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		positions []StakingPosition
		staked    string
		earned    string
		apy       string
	}{
		{
			name:   "no positions",
			staked: "0", earned: "0", apy: "0",
		},
		{
			name: "weighted by amount",
			positions: []StakingPosition{
				position("5000", "5.2", "43.33", PositionActive),
				position("2500", "7.8", "16.25", PositionActive),
			},
			staked: "7500", earned: "59.58", apy: "6.0667",
		},
		{
			name: "small and large position",
			positions: []StakingPosition{
				position("100", "10", "0", PositionActive),
				position("900", "5", "0", PositionActive),
			},
			staked: "1000", earned: "0", apy: "5.5",
		},
		{
			name: "completed positions only add earnings",
			positions: []StakingPosition{
				position("1000", "4", "10", PositionActive),
				position("9000", "20", "90", PositionCompleted),
			},
			staked: "1000", earned: "100", apy: "4",
		},
		{
			name: "all completed",
			positions: []StakingPosition{
				position("100", "3", "1.5", PositionCompleted),
			},
			staked: "0", earned: "1.5", apy: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := Summarize(tt.positions)
			assert.Equal(t, tt.staked, sum.StakedBalance.String())
			assert.Equal(t, tt.earned, sum.EarnedTotal.String())
			assert.Equal(t, tt.apy, sum.WeightedAPY.String())
			assert.NotNil(t, sum.Positions)
			assert.Len(t, sum.Positions, len(tt.positions))
		})
	}
}
