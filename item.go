package quartermaster

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RecordInventory = "inventory"
	RecordGoal      = "goal"
)

const dateLayout = "2006-01-02"

// Item is one row of the item table: a stock entry, a goal, or another
// recommendation class, depending on RecordType.
type Item struct {
	ID           *int64
	UUID         string
	RecordType   string
	Condition    string
	Description  string
	Amount       Measurement
	Life         Measurement
	PurchaseDate *time.Time
}

// DateOf drops the clock part of t, keeping t's calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func (it Item) Persisted() bool {
	return it.ID != nil
}

// ExpirationDate derives the expiration from the purchase date and shelf
// life. It is recomputed on every call. A nil purchase date yields nil.
func (it Item) ExpirationDate() (*time.Time, error) {
	if it.PurchaseDate == nil {
		return nil, nil
	}
	return Expiration(*it.PurchaseDate, it.Life)
}

// Expiration adds life to purchased. Year and month lives keep the day of
// month and fail with ErrInvalidDate instead of rolling into the next month
// (Jan 31 + 1 month is an error, not Mar 2).
func Expiration(purchased time.Time, life Measurement) (*time.Time, error) {
	y, m, d := purchased.Date()
	n := life.Number
	switch life.Unit {
	case UnitYear:
		return calendarDate(y+n, int(m), d)
	case UnitMonth:
		// floored, so a negative life steps back across year ends
		q, r := n/12, n%12
		if r < 0 {
			q--
			r += 12
		}
		years := q + y
		months := r + int(m)
		for months > 12 {
			years++
			months -= 12
		}
		return calendarDate(years, months, d)
	case UnitDay:
		t := DateOf(purchased).AddDate(0, 0, n)
		return &t, nil
	}
	return nil, &UnknownValueError{Kind: "time unit", Value: life.Unit}
}

func calendarDate(year, month, day int) (*time.Time, error) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return nil, &InvalidDateError{Year: year, Month: month, Day: day}
	}
	return &t, nil
}

// Clone starts a new inventory record from it, purchased today. Used to
// fulfil a goal by buying stock.
func (it Item) Clone() Item {
	return it.cloneAt(time.Now())
}

func (it Item) cloneAt(now time.Time) Item {
	today := DateOf(now)
	return Item{
		UUID:         uuid.NewString(),
		RecordType:   RecordInventory,
		Condition:    it.Condition,
		Description:  it.Description,
		Amount:       it.Amount,
		Life:         it.Life,
		PurchaseDate: &today,
	}
}

func (it Item) String() string {
	return fmt.Sprintf("%s (%s), %s", it.Description, it.Condition, it.Amount)
}

// GoalLabel is how a goal is offered when choosing what a purchase fulfils.
func (it Item) GoalLabel() string {
	if it.Condition == "" {
		return it.Description
	}
	return fmt.Sprintf("%s (%s)", it.Description, it.Condition)
}
