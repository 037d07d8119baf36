package quartermaster

// LookupKind names one of the enumerations the store owns.
type LookupKind int

const (
	LookupRecordType LookupKind = iota
	LookupCondition
	LookupAmountUnit
	LookupTimeUnit
)

var lookupKinds = []LookupKind{LookupRecordType, LookupCondition, LookupAmountUnit, LookupTimeUnit}

func (k LookupKind) String() string {
	switch k {
	case LookupRecordType:
		return "record type"
	case LookupCondition:
		return "condition"
	case LookupAmountUnit:
		return "amount unit"
	case LookupTimeUnit:
		return "time unit"
	default:
		return "unknown"
	}
}

func (k LookupKind) query() string {
	switch k {
	case LookupRecordType:
		return `SELECT id, description AS name FROM recordtype ORDER BY id`
	case LookupCondition:
		return `SELECT id, description AS name FROM condition ORDER BY id`
	case LookupAmountUnit:
		return `SELECT id, unit AS name FROM unit WHERE dimension = 'amount' ORDER BY id`
	case LookupTimeUnit:
		return `SELECT id, unit AS name FROM unit WHERE dimension = 'time' ORDER BY id`
	}
	return ""
}

type lookupRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// lookupTable keeps one enumeration in id order plus its reverse index.
type lookupTable struct {
	names []string
	ids   map[string]int64
}

func newLookupTable(rows []lookupRow) lookupTable {
	t := lookupTable{
		names: make([]string, 0, len(rows)),
		ids:   make(map[string]int64, len(rows)),
	}
	for _, r := range rows {
		t.names = append(t.names, r.Name)
		t.ids[r.Name] = r.ID
	}
	return t
}
