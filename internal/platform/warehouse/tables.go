package warehouse

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pharmassist/synthdata/internal/domain/simulation"
	"github.com/pharmassist/synthdata/internal/platform/sink"
)

// Dialect names a SQL backend.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
	MySQL    Dialect = "mysql"
)

type kind int

const (
	kindKey kind = iota
	kindText
	kindJSON
	kindInt
	kindReal
	kindBool
	kindDate
)

// Column maps a dotted record path onto a table column.
type Column struct {
	Name string
	Path string
	kind kind
	ref  string
}

// Table is one loaded stream.
type Table struct {
	Name    string
	Stream  string
	Columns []Column
}

// Tables lists every table in load order. Referenced tables come first.
var Tables = []Table{
	{
		Name:   "inventory",
		Stream: simulation.StreamInventory,
		Columns: []Column{
			{Name: "sku", Path: "sku", kind: kindKey},
			{Name: "name", Path: "name", kind: kindText},
			{Name: "brand", Path: "brand", kind: kindText},
			{Name: "category", Path: "category", kind: kindText},
			{Name: "ingredients", Path: "ingredients", kind: kindJSON},
			{Name: "contraindication_tags", Path: "contraindication_tags", kind: kindJSON},
			{Name: "price_eur", Path: "price_eur", kind: kindReal},
			{Name: "in_stock", Path: "in_stock", kind: kindBool},
			{Name: "stock_qty", Path: "stock_qty", kind: kindInt},
		},
	},
	{
		Name:   "patients",
		Stream: simulation.StreamPatients,
		Columns: []Column{
			{Name: "patient_ref", Path: "patient_ref", kind: kindKey},
			{Name: "age_years", Path: "llm_context.demographics.age_years", kind: kindInt},
			{Name: "sex", Path: "llm_context.demographics.sex", kind: kindText},
			{Name: "llm_context", Path: "llm_context", kind: kindJSON},
		},
	},
	{
		Name:   "visits",
		Stream: simulation.StreamVisits,
		Columns: []Column{
			{Name: "visit_ref", Path: "visit_ref", kind: kindKey},
			{Name: "patient_ref", Path: "patient_ref", kind: kindKey, ref: "patients(patient_ref)"},
			{Name: "occurred_at", Path: "occurred_at", kind: kindDate},
			{Name: "primary_domain", Path: "primary_domain", kind: kindText},
			{Name: "intents", Path: "intents", kind: kindJSON},
			{Name: "intake_extracted", Path: "intake_extracted", kind: kindJSON},
		},
	},
	{
		Name:   "events",
		Stream: simulation.StreamEvents,
		Columns: []Column{
			{Name: "event_ref", Path: "event_ref", kind: kindKey},
			{Name: "visit_ref", Path: "visit_ref", kind: kindKey, ref: "visits(visit_ref)"},
			{Name: "patient_ref", Path: "patient_ref", kind: kindKey, ref: "patients(patient_ref)"},
			{Name: "occurred_at", Path: "occurred_at", kind: kindDate},
			{Name: "event_type", Path: "event_type", kind: kindText},
			{Name: "payload", Path: "payload", kind: kindJSON},
		},
	},
}

// ColumnNames returns the table's column names in order.
func (t Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

var columnTypes = map[Dialect]map[kind]string{
	Postgres: {
		kindKey: "TEXT", kindText: "TEXT", kindJSON: "JSONB", kindInt: "BIGINT",
		kindReal: "DOUBLE PRECISION", kindBool: "BOOLEAN", kindDate: "DATE",
	},
	SQLite: {
		kindKey: "TEXT", kindText: "TEXT", kindJSON: "TEXT", kindInt: "INTEGER",
		kindReal: "REAL", kindBool: "INTEGER", kindDate: "TEXT",
	},
	MySQL: {
		kindKey: "VARCHAR(64)", kindText: "TEXT", kindJSON: "JSON", kindInt: "BIGINT",
		kindReal: "DOUBLE", kindBool: "BOOLEAN", kindDate: "DATE",
	},
}

// CreateStatement renders the CREATE TABLE statement for d. The first
// column is the primary key.
func (t Table) CreateStatement(d Dialect) string {
	types := columnTypes[d]
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", t.Name)
	var refs []string
	for i, c := range t.Columns {
		fmt.Fprintf(&b, "\t%s %s NOT NULL", c.Name, types[c.kind])
		if i == 0 {
			b.WriteString(" PRIMARY KEY")
		}
		if c.ref != "" {
			refs = append(refs, fmt.Sprintf("\tFOREIGN KEY (%s) REFERENCES %s", c.Name, c.ref))
		}
		if i < len(t.Columns)-1 || len(refs) > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(strings.Join(refs, ",\n"))
	if len(refs) > 0 {
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String()
}

// Row converts one decoded stream record into column values for d.
func (t Table) Row(rec map[string]any, d Dialect) ([]any, error) {
	row := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		raw, ok := lookup(rec, c.Path)
		if !ok {
			return nil, fmt.Errorf("%s: missing %s", t.Name, c.Path)
		}
		v, err := convert(raw, c.kind, d)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, c.Name, err)
		}
		row[i] = v
	}
	return row, nil
}

func lookup(rec map[string]any, path string) (any, bool) {
	var cur any = rec
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func convert(v any, k kind, d Dialect) (any, error) {
	switch k {
	case kindKey, kindText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", v)
		}
		return s, nil
	case kindJSON:
		b, err := sink.Canonical(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case kindInt:
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("want number, got %T", v)
		}
		return n.Int64()
	case kindReal:
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("want number, got %T", v)
		}
		return n.Float64()
	case kindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("want bool, got %T", v)
		}
		return b, nil
	case kindDate:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want date string, got %T", v)
		}
		day, err := time.Parse(simulation.DateLayout, s)
		if err != nil {
			return nil, err
		}
		if d == SQLite {
			return s, nil
		}
		return day, nil
	}
	return nil, fmt.Errorf("unsupported column kind %d", k)
}
