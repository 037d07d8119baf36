package quartermaster

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GoalRuleSource yields the goal records for a ration multiplier. It is
// called inside the goal replacement transaction, with q bound to it.
// Quantities must come back as whole numbers, rounded half away from zero;
// scaleAmount does that.
type GoalRuleSource interface {
	GoalRows(ctx context.Context, q sqlx.QueryerContext, multiplier float64) ([]Item, error)
}

// TableRules scales the goal_rule table of the inventory file.
type TableRules struct{}

const goalRulesSQL = `SELECT c.description AS condition,
	r.item AS description,
	r.base_amount AS base_amount,
	au.unit AS weight_unit,
	r.life AS life,
	lu.unit AS life_unit
FROM goal_rule r
INNER JOIN condition c ON r.condition_id = c.id
INNER JOIN unit au ON r.amount_unit_id = au.id
INNER JOIN unit lu ON r.life_unit_id = lu.id
ORDER BY r.id`

type goalRuleRow struct {
	Condition   string  `db:"condition"`
	Description string  `db:"description"`
	BaseAmount  float64 `db:"base_amount"`
	WeightUnit  string  `db:"weight_unit"`
	Life        int     `db:"life"`
	LifeUnit    string  `db:"life_unit"`
}

// scaleAmount rounds base x multiplier half away from zero. The multiplier
// is taken at its shortest decimal form, so 25 x 2.3 is 57.5 and gives 58.
func scaleAmount(base decimal.Decimal, multiplier float64) int {
	return int(base.Mul(decimal.NewFromFloat(multiplier)).Round(0).IntPart())
}

func (TableRules) GoalRows(ctx context.Context, q sqlx.QueryerContext, multiplier float64) ([]Item, error) {
	var rows []goalRuleRow
	if err := sqlx.SelectContext(ctx, q, &rows, goalRulesSQL); err != nil {
		return nil, err
	}
	goals := make([]Item, 0, len(rows))
	for _, r := range rows {
		goals = append(goals, Item{
			RecordType:  RecordGoal,
			Condition:   r.Condition,
			Description: r.Description,
			Amount:      NewMeasurement(scaleAmount(decimal.NewFromFloat(r.BaseAmount), multiplier), r.WeightUnit),
			Life:        NewMeasurement(r.Life, r.LifeUnit),
		})
	}
	return goals, nil
}

// GoalRule is a baseline goal for one adult male.
type GoalRule struct {
	Condition   string
	Description string
	BaseAmount  decimal.Decimal
	Unit        string
	Life        Measurement
}

// StaticRules is a fixed rule list kept outside the inventory file.
type StaticRules []GoalRule

func (r StaticRules) GoalRows(_ context.Context, _ sqlx.QueryerContext, multiplier float64) ([]Item, error) {
	goals := make([]Item, 0, len(r))
	for _, rule := range r {
		goals = append(goals, Item{
			RecordType:  RecordGoal,
			Condition:   rule.Condition,
			Description: rule.Description,
			Amount:      NewMeasurement(scaleAmount(rule.BaseAmount, multiplier), rule.Unit),
			Life:        rule.Life,
		})
	}
	return goals, nil
}

// GoalStore is the part of Store the goal engine needs.
type GoalStore interface {
	ReplaceGoals(ctx context.Context, multiplier float64) (int, error)
}

// GoalEngine regenerates the goal record set from a household multiplier.
type GoalEngine struct {
	store  GoalStore
	logger *zap.Logger
}

func NewGoalEngine(store GoalStore, logger *zap.Logger) *GoalEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoalEngine{store: store, logger: logger}
}

// SetGoals replaces all goals with the rules scaled by multiplier. A zero or
// negative multiplier means the household was never given; nothing is
// touched and SetGoals reports false.
func (e *GoalEngine) SetGoals(ctx context.Context, multiplier float64) (bool, error) {
	if !(multiplier > 0) {
		e.logger.Info("goals not set, no ration multiplier")
		return false, nil
	}
	n, err := e.store.ReplaceGoals(ctx, multiplier)
	if err != nil {
		e.logger.Error("failed to replace goals", zap.Float64("multiplier", multiplier), zap.Error(err))
		return false, err
	}
	e.logger.Debug("goals set", zap.Float64("multiplier", multiplier), zap.Int("goals", n))
	return true, nil
}

// SetHouseholdGoals is SetGoals for a household's multiplier.
func (e *GoalEngine) SetHouseholdGoals(ctx context.Context, h Household) (bool, error) {
	return e.SetGoals(ctx, h.Multiplier())
}
