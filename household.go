package quartermaster

import "github.com/shopspring/decimal"

// Ration shares relative to an adult male.
var (
	WeightAdultMale   = decimal.RequireFromString("1.0")
	WeightAdultFemale = decimal.RequireFromString("0.75")
	WeightChild1to3   = decimal.RequireFromString("0.3")
	WeightChild4to6   = decimal.RequireFromString("0.5")
	WeightChild7to9   = decimal.RequireFromString("0.75")
)

// Household describes who the stockpile feeds and for how many months.
type Household struct {
	AdultMales   int
	AdultFemales int
	Children1to3 int
	Children4to6 int
	Children7to9 int
	// Months of supply; zero means one.
	Months int
}

// Shares sums the ration weights of every member.
func (h Household) Shares() decimal.Decimal {
	return decimal.Sum(
		WeightAdultMale.Mul(decimal.NewFromInt(int64(h.AdultMales))),
		WeightAdultFemale.Mul(decimal.NewFromInt(int64(h.AdultFemales))),
		WeightChild1to3.Mul(decimal.NewFromInt(int64(h.Children1to3))),
		WeightChild4to6.Mul(decimal.NewFromInt(int64(h.Children4to6))),
		WeightChild7to9.Mul(decimal.NewFromInt(int64(h.Children7to9))),
	)
}

// Multiplier is the factor applied to the per-adult-male goal rules.
func (h Household) Multiplier() float64 {
	months := h.Months
	if months <= 0 {
		months = 1
	}
	m, _ := h.Shares().Mul(decimal.NewFromInt(int64(months))).Float64()
	return m
}
