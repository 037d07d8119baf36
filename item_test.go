package quartermaster

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestExpiration(t *testing.T) {
	tests := []struct {
		name      string
		purchased *time.Time
		life      Measurement
		want      *time.Time
		wantErr   error
	}{
		{"years", date(2020, 1, 15), NewMeasurement(2, UnitYear), date(2022, 1, 15), nil},
		{"months within year", date(2020, 1, 15), NewMeasurement(6, UnitMonth), date(2020, 7, 15), nil},
		{"months roll into next year", date(2020, 1, 15), NewMeasurement(13, UnitMonth), date(2021, 2, 15), nil},
		{"month past december", date(2020, 11, 15), NewMeasurement(3, UnitMonth), date(2021, 2, 15), nil},
		{"whole years of months", date(2020, 3, 1), NewMeasurement(24, UnitMonth), date(2022, 3, 1), nil},
		{"exactly twelve months", date(2020, 1, 15), NewMeasurement(12, UnitMonth), date(2021, 1, 15), nil},
		{"twelve months from december", date(2020, 12, 15), NewMeasurement(12, UnitMonth), date(2021, 12, 15), nil},
		{"eleven months from december", date(2020, 12, 15), NewMeasurement(11, UnitMonth), date(2021, 11, 15), nil},
		{"three hundred months", date(2020, 1, 15), NewMeasurement(300, UnitMonth), date(2045, 1, 15), nil},
		{"three hundred and seven months", date(2020, 8, 15), NewMeasurement(307, UnitMonth), date(2046, 3, 15), nil},
		{"negative month", date(2020, 1, 15), NewMeasurement(-1, UnitMonth), date(2019, 12, 15), nil},
		{"negative thirteen months", date(2020, 1, 15), NewMeasurement(-13, UnitMonth), date(2018, 12, 15), nil},
		{"negative twelve months", date(2020, 5, 15), NewMeasurement(-12, UnitMonth), date(2019, 5, 15), nil},
		{"days", date(2020, 6, 10), NewMeasurement(40, UnitDay), date(2020, 7, 20), nil},
		{"days across leap day", date(2020, 2, 28), NewMeasurement(2, UnitDay), date(2020, 3, 1), nil},
		{"zero life", date(2020, 6, 10), NewMeasurement(0, UnitYear), date(2020, 6, 10), nil},
		{"jan 31 plus a month", date(2020, 1, 31), NewMeasurement(1, UnitMonth), nil, ErrInvalidDate},
		{"leap day plus a year", date(2020, 2, 29), NewMeasurement(1, UnitYear), nil, ErrInvalidDate},
		{"leap day plus four years", date(2020, 2, 29), NewMeasurement(4, UnitYear), date(2024, 2, 29), nil},
		{"unknown unit", date(2020, 1, 1), NewMeasurement(1, "fortnight"), nil, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expiration(*tt.purchased, tt.life)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestExpirationInvalidDateDetail(t *testing.T) {
	_, err := Expiration(*date(2020, 1, 31), NewMeasurement(1, UnitMonth))
	var de *InvalidDateError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, InvalidDateError{Year: 2020, Month: 2, Day: 31}, *de)
}

func TestItemExpirationDate(t *testing.T) {
	it := Item{Life: NewMeasurement(2, UnitYear)}
	exp, err := it.ExpirationDate()
	require.NoError(t, err)
	assert.Nil(t, exp)

	it.PurchaseDate = date(2021, 5, 5)
	exp, err = it.ExpirationDate()
	require.NoError(t, err)
	assert.True(t, date(2023, 5, 5).Equal(*exp))

	// recomputed from the current fields
	it.Life = NewMeasurement(10, UnitDay)
	exp, err = it.ExpirationDate()
	require.NoError(t, err)
	assert.True(t, date(2021, 5, 15).Equal(*exp))
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("test", -7*3600)
	got := DateOf(time.Date(2022, 8, 9, 23, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2022, 8, 9, 0, 0, 0, 0, time.UTC), got)
}

func TestClone(t *testing.T) {
	id := int64(7)
	goal := Item{
		ID:          &id,
		UUID:        "goal-uuid",
		RecordType:  RecordGoal,
		Condition:   "Dry",
		Description: "Wheat",
		Amount:      NewMeasurement(25, UnitPound),
		Life:        NewMeasurement(30, UnitYear),
	}
	now := time.Date(2024, 3, 4, 15, 4, 5, 0, time.UTC)

	c := goal.cloneAt(now)
	assert.Nil(t, c.ID)
	assert.NotEmpty(t, c.UUID)
	assert.NotEqual(t, goal.UUID, c.UUID)
	assert.Equal(t, RecordInventory, c.RecordType)
	assert.Equal(t, goal.Condition, c.Condition)
	assert.Equal(t, goal.Description, c.Description)
	assert.Equal(t, goal.Amount, c.Amount)
	assert.Equal(t, goal.Life, c.Life)
	require.NotNil(t, c.PurchaseDate)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), *c.PurchaseDate)

	// the source is untouched
	assert.Equal(t, RecordGoal, goal.RecordType)
	assert.Nil(t, goal.PurchaseDate)
}

func TestItemLabels(t *testing.T) {
	it := Item{Condition: "Canned", Description: "Peaches", Amount: NewMeasurement(12, UnitEach)}
	assert.Equal(t, "Peaches (Canned), 12 each", it.String())
	assert.Equal(t, "Peaches (Canned)", it.GoalLabel())

	it.Condition = ""
	assert.Equal(t, "Peaches", it.GoalLabel())
}
