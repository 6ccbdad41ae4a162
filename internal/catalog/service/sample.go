package service

import (
	"time"

	"github.com/huntu09/airdropshunter-sub001/internal/catalog/model"
)

// sampleAirdrops is the built-in fallback listing served when the database
// is unreachable. Keeps the public pages rendering instead of erroring.
func sampleAirdrops(q *model.AirdropQuery) []model.Airdrop {
	base := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	all := []model.Airdrop{
		{
			ID:           "sample-1",
			Title:        "LayerZero Airdrop",
			Slug:         "layerzero",
			Description:  "Bridge assets across chains to qualify for the upcoming ZRO distribution.",
			Category:     "defi",
			Status:       model.StatusActive,
			RewardAmount: "Up to 500 ZRO",
			CreatedAt:    base,
			UpdatedAt:    base,
		},
		{
			ID:           "sample-2",
			Title:        "zkSync Era Quest",
			Slug:         "zksync-era",
			Description:  "Complete swaps and liquidity tasks on zkSync Era mainnet.",
			Category:     "layer2",
			Status:       model.StatusActive,
			RewardAmount: "TBA",
			CreatedAt:    base.Add(24 * time.Hour),
			UpdatedAt:    base.Add(24 * time.Hour),
		},
		{
			ID:           "sample-3",
			Title:        "Monad Testnet Campaign",
			Slug:         "monad-testnet",
			Description:  "Run testnet transactions and report bugs before mainnet launch.",
			Category:     "testnet",
			Status:       model.StatusUpcoming,
			RewardAmount: "Points program",
			CreatedAt:    base.Add(48 * time.Hour),
			UpdatedAt:    base.Add(48 * time.Hour),
		},
	}

	out := make([]model.Airdrop, 0, len(all))
	for _, a := range all {
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		if q.Category != "" && a.Category != q.Category {
			continue
		}
		out = append(out, a)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}
