// Package query turns parsed filters into SQL predicates, ordering and
// pagination. Rendered SQL uses numbered placeholders ($1, $2, ...) which
// both sqlite3 and postgres accept.
package query

import (
	"fmt"
	"strings"
)

// Builder accumulates positional arguments while a predicate renders.
// Placeholders are numbered in the order they appear in the text.
type Builder struct {
	args []interface{}
}

// Arg registers v and returns its placeholder.
func (b *Builder) Arg(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *Builder) Args() []interface{} {
	return b.args
}

// Predicate is an immutable boolean SQL expression.
type Predicate interface {
	Render(b *Builder) string
}

// Raw is a literal expression without arguments.
type Raw string

func (r Raw) Render(*Builder) string {
	return string(r)
}

// True matches everything.
const True = Raw("1 = 1")

type Compare struct {
	Column string
	Op     string
	Value  interface{}
}

func Eq(column string, v interface{}) Compare  { return Compare{Column: column, Op: "=", Value: v} }
func Neq(column string, v interface{}) Compare { return Compare{Column: column, Op: "<>", Value: v} }
func Gte(column string, v interface{}) Compare { return Compare{Column: column, Op: ">=", Value: v} }
func Lte(column string, v interface{}) Compare { return Compare{Column: column, Op: "<=", Value: v} }
func Lt(column string, v interface{}) Compare  { return Compare{Column: column, Op: "<", Value: v} }
func Gt(column string, v interface{}) Compare  { return Compare{Column: column, Op: ">", Value: v} }

func (c Compare) Render(b *Builder) string {
	return fmt.Sprintf("%s %s %s", c.Column, c.Op, b.Arg(c.Value))
}

// In matches any of Values. An empty list matches nothing. With Fold set,
// string values compare case-insensitively.
type In struct {
	Column string
	Values []interface{}
	Fold   bool
}

func (in In) Render(b *Builder) string {
	if len(in.Values) == 0 {
		return "1 = 0"
	}
	placeholders := make([]string, len(in.Values))
	for i, v := range in.Values {
		if s, ok := v.(string); ok && in.Fold {
			v = strings.ToLower(s)
		}
		placeholders[i] = b.Arg(v)
	}
	column := in.Column
	if in.Fold {
		column = "LOWER(" + column + ")"
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", "))
}

// AnyLike is a case-insensitive substring match on at least one column.
type AnyLike struct {
	Columns []string
	Term    string
}

func (l AnyLike) Render(b *Builder) string {
	if len(l.Columns) == 0 {
		return "1 = 0"
	}
	ph := b.Arg("%" + escapeLike(strings.ToLower(l.Term)) + "%")
	parts := make([]string, len(l.Columns))
	for i, col := range l.Columns {
		parts[i] = fmt.Sprintf(`LOWER(%s) LIKE %s ESCAPE '\'`, col, ph)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ContainsAll requires the owner row to have every value in a normalized
// (owner, value) join table, by counting the intersection.
type ContainsAll struct {
	OwnerColumn string // e.g. p.id
	Table       string // e.g. property_features
	KeyColumn   string // e.g. property_id
	ValueColumn string // e.g. feature
	Values      []string
}

func (c ContainsAll) Render(b *Builder) string {
	if len(c.Values) == 0 {
		return True.Render(b)
	}
	placeholders := make([]string, len(c.Values))
	for i, v := range c.Values {
		placeholders[i] = b.Arg(v)
	}
	return fmt.Sprintf(
		"%s IN (SELECT %s FROM %s WHERE %s IN (%s) GROUP BY %s HAVING COUNT(DISTINCT %s) = %s)",
		c.OwnerColumn, c.KeyColumn, c.Table, c.ValueColumn, strings.Join(placeholders, ", "),
		c.KeyColumn, c.ValueColumn, b.Arg(len(c.Values)),
	)
}

type and []Predicate
type or []Predicate

// And joins predicates, skipping nils. With nothing left it matches all.
func And(preds ...Predicate) Predicate {
	return and(compact(preds))
}

// Or joins predicates, skipping nils. With nothing left it matches none.
func Or(preds ...Predicate) Predicate {
	return or(compact(preds))
}

func (a and) Render(b *Builder) string {
	return join(b, a, " AND ", "1 = 1")
}

func (o or) Render(b *Builder) string {
	return join(b, o, " OR ", "1 = 0")
}

func join(b *Builder, preds []Predicate, sep, empty string) string {
	switch len(preds) {
	case 0:
		return empty
	case 1:
		return preds[0].Render(b)
	}
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = p.Render(b)
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func compact(preds []Predicate) []Predicate {
	out := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Where renders p into a WHERE clause body and its arguments.
func Where(p Predicate) (string, []interface{}) {
	b := &Builder{}
	if p == nil {
		p = True
	}
	return p.Render(b), b.Args()
}
