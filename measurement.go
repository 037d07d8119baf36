package quartermaster

import (
	"fmt"
	"strings"
)

const (
	UnitPound  = "pound"
	UnitOunce  = "ounce"
	UnitGallon = "gallon"
	UnitEach   = "each"

	UnitYear  = "year"
	UnitMonth = "month"
	UnitDay   = "day"
)

// Measurement is a whole-number quantity tagged with a unit, e.g. 20 pounds
// or 5 years. Units are not validated here; the store rejects unknown ones.
type Measurement struct {
	Number int
	Unit   string
}

func NewMeasurement(number int, unit string) Measurement {
	return Measurement{Number: number, Unit: unit}
}

// String renders "1 pound", "20 pounds", "3 each".
func (m Measurement) String() string {
	if m.Number == 1 || m.Unit == UnitEach {
		return fmt.Sprintf("%d %s", m.Number, m.Unit)
	}
	return fmt.Sprintf("%d %ss", m.Number, m.Unit)
}

func (m Measurement) FormatForDisplay() string {
	return m.String()
}

func (m Measurement) Equal(o Measurement) bool {
	return m.Unit == o.Unit && m.Number == o.Number
}

// Compare orders by Number when the units match. Otherwise it falls back to
// comparing the unit names, so 100 day sorts before 1 year. No dimensional
// conversion is attempted; callers sorting mixed units get them grouped by
// unit name.
func (m Measurement) Compare(o Measurement) int {
	if m.Unit != o.Unit {
		return strings.Compare(m.Unit, o.Unit)
	}
	switch {
	case m.Number < o.Number:
		return -1
	case m.Number > o.Number:
		return 1
	}
	return 0
}

func (m Measurement) Less(o Measurement) bool {
	return m.Compare(o) < 0
}
