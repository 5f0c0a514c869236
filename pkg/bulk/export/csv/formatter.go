// Package csv renders exported rows as RFC-4180 CSV text. The formatter is
// driven by an ordered field list so callers control column order, header
// labels, and per-column value shaping without touching the writer itself.
package csv

import (
	"fmt"
	"strings"
	"time"

	exception "github.com/callscope/callscope/pkg/bulk/support/util/exception"
)

// TransformFunc shapes one raw cell value into its exported string. The full
// row is available for transforms that combine fields.
type TransformFunc func(value interface{}, row map[string]interface{}) string

// FieldSpec describes one exported column.
type FieldSpec struct {
	// Key selects the value from each row map.
	Key string
	// Label is the header cell; falls back to Key when empty.
	Label string
	// Transform overrides the default stringification when set.
	Transform TransformFunc
}

// Formatter renders row maps into CSV using a fixed column layout.
type Formatter struct {
	fields []FieldSpec
}

// NewFormatter builds a Formatter over the given columns. At least one
// column is required and keys must be unique.
func NewFormatter(fields []FieldSpec) (*Formatter, error) {
	if len(fields) == 0 {
		return nil, exception.NewBulkErrorf("export", "CSV formatter requires at least one field")
	}
	seen := map[string]bool{}
	for _, f := range fields {
		if f.Key == "" {
			return nil, exception.NewBulkErrorf("export", "CSV field with empty key")
		}
		if seen[f.Key] {
			return nil, exception.NewBulkErrorf("export", "duplicate CSV field key '%s'", f.Key)
		}
		seen[f.Key] = true
	}
	return &Formatter{fields: fields}, nil
}

// Format renders the header row followed by one line per row map, in a
// single linear pass. Missing keys render as empty cells.
func (f *Formatter) Format(rows []map[string]interface{}) string {
	var b strings.Builder

	cells := make([]string, len(f.fields))
	for i, field := range f.fields {
		label := field.Label
		if label == "" {
			label = field.Key
		}
		cells[i] = escape(label)
	}
	b.WriteString(strings.Join(cells, ","))
	b.WriteString("\n")

	for _, row := range rows {
		for i, field := range f.fields {
			cells[i] = escape(f.render(field, row))
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteString("\n")
	}
	return b.String()
}

func (f *Formatter) render(field FieldSpec, row map[string]interface{}) string {
	value := row[field.Key]
	if field.Transform != nil {
		return field.Transform(value, row)
	}
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%v", value)
}

// escape applies RFC-4180 quoting: a cell containing a comma, a double
// quote, or a line break is wrapped in quotes with internal quotes doubled.
func escape(cell string) string {
	if !strings.ContainsAny(cell, ",\"\n\r") {
		return cell
	}
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

// Filename builds the conventional export filename for an entity:
// {entity}_export_{YYYY-MM-DD}.csv.
func Filename(entity string, at time.Time) string {
	return fmt.Sprintf("%s_export_%s.csv", entity, at.Format("2006-01-02"))
}

// Percentage renders a numeric cell as a whole percentage ("87%").
func Percentage(value interface{}, _ map[string]interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%.0f%%", v)
	case float32:
		return fmt.Sprintf("%.0f%%", v)
	case int:
		return fmt.Sprintf("%d%%", v)
	default:
		return fmt.Sprintf("%v%%", v)
	}
}

// DateOnly renders a time.Time cell as its ISO date.
func DateOnly(value interface{}, _ map[string]interface{}) string {
	if t, ok := value.(time.Time); ok {
		return t.Format("2006-01-02")
	}
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%v", value)
}

// Nested returns a transform that digs into a nested map cell by path.
func Nested(path ...string) TransformFunc {
	return func(value interface{}, _ map[string]interface{}) string {
		cur := value
		for _, key := range path {
			m, ok := cur.(map[string]interface{})
			if !ok {
				return ""
			}
			cur = m[key]
		}
		if cur == nil {
			return ""
		}
		return fmt.Sprintf("%v", cur)
	}
}
