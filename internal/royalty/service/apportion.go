package service

import (
	"math"
	"sort"

	"attribune/internal/royalty/models"
	id "attribune/pkg/domain"
)

// Stake is one work's claim on the payout: its influence weight and the
// rights holder it pays.
type Stake struct {
	WorkID         id.WorkID
	RightsHolderID id.RightsHolderID
	Weight         float64
}

// WorkShare is one work's exact-cent share of a settlement.
type WorkShare struct {
	WorkID         id.WorkID
	RightsHolderID id.RightsHolderID
	AmountCents    int64
}

// Apportion distributes totalCents across stakes by largest-remainder
// apportionment and aggregates the result per rights holder, ordered by
// ascending holder id. The splits always sum to exactly totalCents.
func Apportion(totalCents int64, stakes []Stake) []models.Split {
	shares := ApportionByWork(totalCents, stakes)
	if shares == nil {
		return nil
	}

	perHolder := make(map[id.RightsHolderID]int64)
	for _, share := range shares {
		perHolder[share.RightsHolderID] += share.AmountCents
	}

	holders := make([]id.RightsHolderID, 0, len(perHolder))
	for holder := range perHolder {
		holders = append(holders, holder)
	}
	sort.Slice(holders, func(i, j int) bool { return holders[i] < holders[j] })

	splits := make([]models.Split, 0, len(holders))
	for _, holder := range holders {
		splits = append(splits, models.Split{
			RightsHolderID: holder,
			AmountCents:    perHolder[holder],
		})
	}
	return splits
}

// ApportionByWork distributes totalCents across stakes by largest-remainder
// apportionment: each stake gets the floor of its exact proportional share,
// then the leftover cents go one each to the stakes with the largest
// fractional remainders, ties broken by ascending work id. Shares come back
// in ascending work id order and always sum to exactly totalCents.
func ApportionByWork(totalCents int64, stakes []Stake) []WorkShare {
	if totalCents <= 0 || len(stakes) == 0 {
		return nil
	}

	var weightSum float64
	for _, s := range stakes {
		weightSum += s.Weight
	}
	if weightSum <= 0 {
		return nil
	}

	ordered := make([]Stake, len(stakes))
	copy(ordered, stakes)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].WorkID < ordered[j].WorkID })

	type quota struct {
		stake     Stake
		floor     int64
		remainder float64
	}
	quotas := make([]quota, len(ordered))
	var distributed int64
	for i, s := range ordered {
		exact := float64(totalCents) * s.Weight / weightSum
		floor := int64(math.Floor(exact))
		quotas[i] = quota{stake: s, floor: floor, remainder: exact - float64(floor)}
		distributed += floor
	}

	// Hand the leftover cents to the largest remainders; the earlier sort
	// makes work id the tie-breaker under a stable re-sort.
	leftover := totalCents - distributed
	byRemainder := make([]*quota, len(quotas))
	for i := range quotas {
		byRemainder[i] = &quotas[i]
	}
	sort.SliceStable(byRemainder, func(i, j int) bool {
		return byRemainder[i].remainder > byRemainder[j].remainder
	})
	for i := int64(0); i < leftover; i++ {
		byRemainder[i%int64(len(byRemainder))].floor++
	}

	shares := make([]WorkShare, 0, len(quotas))
	for _, q := range quotas {
		shares = append(shares, WorkShare{
			WorkID:         q.stake.WorkID,
			RightsHolderID: q.stake.RightsHolderID,
			AmountCents:    q.floor,
		})
	}
	return shares
}
