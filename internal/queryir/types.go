package queryir

import (
	"fmt"
	"strings"
)

const (
	// DefaultClassifyingProperty is "instance of", used when a table has no
	// property prefix.
	DefaultClassifyingProperty EntityRef = "P31"

	// DefaultAlias names the primary table when the query gives it no alias.
	DefaultAlias = "item"

	// DefaultLanguage is the label language used when the caller supplies none.
	DefaultLanguage = "en"
)

// EntityRef is a Wikidata entity identifier: "Q" or "P" followed by digits.
// It is case-sensitive and the digits are treated as an opaque string.
type EntityRef string

// IsItem reports whether r has the item form Q<digits>.
func (r EntityRef) IsItem() bool {
	return isEntityRef(string(r), 'Q')
}

// IsProperty reports whether r has the property form P<digits>.
func (r EntityRef) IsProperty() bool {
	return isEntityRef(string(r), 'P')
}

func (r EntityRef) String() string {
	return string(r)
}

// ParseItemRef returns s as an item reference if it matches Q<digits>.
func ParseItemRef(s string) (EntityRef, bool) {
	if !isEntityRef(s, 'Q') {
		return "", false
	}
	return EntityRef(s), true
}

// ParsePropertyRef returns s as a property reference if it matches P<digits>.
func ParsePropertyRef(s string) (EntityRef, bool) {
	if !isEntityRef(s, 'P') {
		return "", false
	}
	return EntityRef(s), true
}

func isEntityRef(s string, letter byte) bool {
	if len(s) < 2 || s[0] != letter {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Table is a virtual table: every entity linked to ClassID through
// ClassifyingProperty.
type Table struct {
	ClassifyingProperty EntityRef // defaults to P31
	ClassID             EntityRef // the class Q-ID
	Alias               string    // empty = DefaultAlias (primary table only)
}

// Name returns the alias the query text uses for this table.
func (t Table) Name() string {
	if t.Alias == "" {
		return DefaultAlias
	}
	return t.Alias
}

func (t Table) String() string {
	s := string(t.ClassifyingProperty) + ":" + string(t.ClassID)
	if t.Alias != "" {
		s += " " + t.Alias
	}
	return s
}

// Form selects how a subject or property value is projected.
type Form int

const (
	// LabelForm projects the human-readable label (no suffix).
	LabelForm Form = iota
	// IdentifierForm projects the raw entity reference ("_qid" suffix).
	IdentifierForm
)

// IdentifierSuffix marks a column as IdentifierForm.
const IdentifierSuffix = "_qid"

func (f Form) String() string {
	switch f {
	case LabelForm:
		return "label"
	case IdentifierForm:
		return "identifier"
	default:
		return fmt.Sprintf("Form(%d)", int(f))
	}
}

func (f Form) suffix() string {
	if f == IdentifierForm {
		return IdentifierSuffix
	}
	return ""
}

// Column is a column specification in SELECT or WHERE.
//
// This is a sealed interface - only Wildcard, SubjectColumn and
// PropertyColumn implement it.
type Column interface {
	columnNode() // Marker method - seals interface to this package
	String() string
}

// Wildcard is "*": the subject id and label of every table.
type Wildcard struct{}

func (Wildcard) columnNode() {}

func (Wildcard) String() string { return "*" }

// SubjectColumn is "item" or "item_qid": the table's own entity.
type SubjectColumn struct {
	Table string // alias qualifier; empty = primary table
	Form  Form
}

func (SubjectColumn) columnNode() {}

func (c SubjectColumn) String() string {
	return qualify(c.Table, DefaultAlias+c.Form.suffix())
}

// PropertyColumn is "Pxxx" or "Pxxx_qid": the value of one property.
type PropertyColumn struct {
	Table    string // alias qualifier; empty = primary table
	Property EntityRef
	Form     Form
}

func (PropertyColumn) columnNode() {}

func (c PropertyColumn) String() string {
	return qualify(c.Table, string(c.Property)+c.Form.suffix())
}

func qualify(table, name string) string {
	if table == "" {
		return name
	}
	return table + "." + name
}

// MatchMode selects how a predicate literal is compared.
type MatchMode int

const (
	// LabelMatch compares the literal to the column's label string.
	LabelMatch MatchMode = iota
	// IdentityMatch compares the literal to the raw entity reference.
	IdentityMatch
)

func (m MatchMode) String() string {
	switch m {
	case LabelMatch:
		return "label"
	case IdentityMatch:
		return "identity"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

// Literal is the right-hand side of a predicate.
type Literal struct {
	Mode  MatchMode
	Value string // label text, or a Q-ID when Mode is IdentityMatch
}

func (l Literal) String() string {
	if l.Mode == IdentityMatch {
		return l.Value
	}
	return "'" + strings.ReplaceAll(l.Value, "'", `\'`) + "'"
}

// Predicate is a WHERE equality: Column = Literal. Column is a
// SubjectColumn or a PropertyColumn.
type Predicate struct {
	Column  Column
	Literal Literal
}

func (p Predicate) String() string {
	return p.Column.String() + " = " + p.Literal.String()
}

// JoinCondition equates one property of each table. Left and Right are
// as written in the query text; use Query.JoinSides for a role-ordered pair.
type JoinCondition struct {
	Left  PropertyColumn
	Right PropertyColumn
}

// Join binds a secondary table to the primary one.
type Join struct {
	Table Table
	On    JoinCondition
}

// Query is the parsed representation of one SQL-subset statement.
//
// Semantics:
//
//	SELECT <Columns> FROM <From> [JOIN <Join>] [WHERE <Where...>] [LIMIT <Limit>]
//
// Columns keeps the order of the SELECT list, which is also the projection
// order of the generated query. Where predicates are ANDed.
type Query struct {
	From     Table
	Join     *Join // nil = single table
	Columns  []Column
	Where    []Predicate
	Limit    *int   // nil = unbounded
	Language string // label language; DefaultLanguage when empty
}

// LabelLanguage returns the query's label language, defaulting to English.
func (q *Query) LabelLanguage() string {
	if q.Language == "" {
		return DefaultLanguage
	}
	return q.Language
}

// TableRole identifies which table of a query a column belongs to.
type TableRole int

const (
	// PrimaryTable is the FROM table.
	PrimaryTable TableRole = iota
	// SecondaryTable is the JOIN table.
	SecondaryTable
)

func (r TableRole) String() string {
	if r == SecondaryTable {
		return "secondary"
	}
	return "primary"
}

// Role resolves an alias qualifier. The empty qualifier is the primary table.
func (q *Query) Role(qualifier string) (TableRole, bool) {
	if qualifier == "" || qualifier == q.From.Name() {
		return PrimaryTable, true
	}
	if q.Join != nil && qualifier == q.Join.Table.Alias {
		return SecondaryTable, true
	}
	return PrimaryTable, false
}

// Table returns the table for a role.
func (q *Query) Table(role TableRole) Table {
	if role == SecondaryTable && q.Join != nil {
		return q.Join.Table
	}
	return q.From
}

// Roles lists the query's tables in FROM/JOIN order.
func (q *Query) Roles() []TableRole {
	if q.Join != nil {
		return []TableRole{PrimaryTable, SecondaryTable}
	}
	return []TableRole{PrimaryTable}
}

// JoinSides returns the join columns ordered (primary, secondary).
// ok is false when the query has no join or the condition does not name one
// column of each table.
func (q *Query) JoinSides() (primary, secondary PropertyColumn, ok bool) {
	if q.Join == nil {
		return PropertyColumn{}, PropertyColumn{}, false
	}
	left, lok := q.Role(q.Join.On.Left.Table)
	right, rok := q.Role(q.Join.On.Right.Table)
	if !lok || !rok || left == right {
		return PropertyColumn{}, PropertyColumn{}, false
	}
	if left == PrimaryTable {
		return q.Join.On.Left, q.Join.On.Right, true
	}
	return q.Join.On.Right, q.Join.On.Left, true
}

// Binding identifies the value a column reads: the subject of a table
// (Property empty) or one property of a table.
type Binding struct {
	Role     TableRole
	Property EntityRef
}

// IsSubject reports whether the binding is a table's own entity.
func (b Binding) IsSubject() bool {
	return b.Property == ""
}

// BindingOf resolves a subject or property column to its Binding.
// The secondary table's join column resolves to the primary join column,
// since both sides of a join share one value. ok is false for a wildcard or
// an undeclared qualifier.
func (q *Query) BindingOf(c Column) (Binding, bool) {
	switch col := c.(type) {
	case SubjectColumn:
		role, ok := q.Role(col.Table)
		return Binding{Role: role}, ok
	case PropertyColumn:
		role, ok := q.Role(col.Table)
		if !ok {
			return Binding{}, false
		}
		if role == SecondaryTable {
			if primary, secondary, joined := q.JoinSides(); joined && secondary.Property == col.Property {
				return Binding{Role: PrimaryTable, Property: primary.Property}, true
			}
		}
		return Binding{Role: role, Property: col.Property}, true
	default:
		return Binding{}, false
	}
}

// FormOf returns the Form of a subject or property column.
func FormOf(c Column) (Form, bool) {
	switch col := c.(type) {
	case SubjectColumn:
		return col.Form, true
	case PropertyColumn:
		return col.Form, true
	default:
		return LabelForm, false
	}
}
