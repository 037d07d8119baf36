package quartermaster

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Displayable is anything a table cell can show.
type Displayable interface {
	FormatForDisplay() string
}

type Text string

func (t Text) FormatForDisplay() string { return string(t) }

const displayDateLayout = "January 02, 2006"

// Date is an optional calendar date; the zero value displays as empty.
type Date struct {
	Time *time.Time
}

func (d Date) FormatForDisplay() string {
	if d.Time == nil {
		return ""
	}
	return d.Time.Format(displayDateLayout)
}

type Column string

const (
	ColumnID             Column = "id"
	ColumnCondition      Column = "condition"
	ColumnDescription    Column = "description"
	ColumnAmount         Column = "amount"
	ColumnLife           Column = "life"
	ColumnPurchaseDate   Column = "purchase_date"
	ColumnExpirationDate Column = "expiration_date"
)

var Columns = []Column{
	ColumnID,
	ColumnCondition,
	ColumnDescription,
	ColumnAmount,
	ColumnLife,
	ColumnPurchaseDate,
	ColumnExpirationDate,
}

// Title turns "purchase_date" into "Purchase Date".
func (c Column) Title() string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Field returns the value shown in column c.
func (it Item) Field(c Column) Displayable {
	switch c {
	case ColumnID:
		if it.ID == nil {
			return Text("")
		}
		return Text(strconv.FormatInt(*it.ID, 10))
	case ColumnCondition:
		return Text(it.Condition)
	case ColumnDescription:
		return Text(it.Description)
	case ColumnAmount:
		return it.Amount
	case ColumnLife:
		return it.Life
	case ColumnPurchaseDate:
		return Date{Time: it.PurchaseDate}
	case ColumnExpirationDate:
		exp, err := it.ExpirationDate()
		if err != nil {
			return Text("invalid date")
		}
		return Date{Time: exp}
	}
	return Text("")
}

// Filter keeps the items whose condition or description contains every
// word of text, ignoring case. A blank filter keeps everything.
func Filter(items []Item, text string) []Item {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return items
	}
	var out []Item
	for _, it := range items {
		if containsAll(it, words) {
			out = append(out, it)
		}
	}
	return out
}

func containsAll(it Item, words []string) bool {
	cond := strings.ToLower(it.Condition)
	desc := strings.ToLower(it.Description)
	for _, w := range words {
		if !strings.Contains(cond, w) && !strings.Contains(desc, w) {
			return false
		}
	}
	return true
}

// SortItems orders items in place by column c.
func SortItems(items []Item, c Column, descending bool) {
	sort.SliceStable(items, func(i, j int) bool {
		cmp := compareField(items[i], items[j], c)
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})
}

// SortGoals orders goals by their label, the way they are offered for fulfilment.
func SortGoals(goals []Item) {
	sort.SliceStable(goals, func(i, j int) bool {
		return goals[i].GoalLabel() < goals[j].GoalLabel()
	})
}

func compareField(a, b Item, c Column) int {
	switch c {
	case ColumnID:
		return compareIDs(a.ID, b.ID)
	case ColumnCondition:
		return strings.Compare(a.Condition, b.Condition)
	case ColumnDescription:
		return strings.Compare(a.Description, b.Description)
	case ColumnAmount:
		return a.Amount.Compare(b.Amount)
	case ColumnLife:
		return a.Life.Compare(b.Life)
	case ColumnPurchaseDate:
		return compareDates(a.PurchaseDate, b.PurchaseDate)
	case ColumnExpirationDate:
		ea, _ := a.ExpirationDate()
		eb, _ := b.ExpirationDate()
		return compareDates(ea, eb)
	}
	return 0
}

func compareIDs(a, b *int64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

// compareDates puts missing dates first.
func compareDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
