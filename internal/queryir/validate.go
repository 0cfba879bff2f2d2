package queryir

import (
	"strings"
)

// Validate checks the semantic rules the grammar alone cannot express.
//
// Rules:
//  1. Tables name a class Q-ID and a classifying P-ID.
//  2. A joined table has an alias distinct from the primary table's name and
//     from DefaultAlias. No alias looks like an entity reference or ends
//     in "Label" (those shapes are reserved for generated variables).
//  3. The join condition names one property column of each table.
//  4. Every column qualifier names a declared table.
//  5. No two columns project the same value in the same form.
//  6. Every WHERE column reads a value that SELECT also requests.
//  7. Identity predicates use a Q-ID, and one value is never pinned to two
//     different Q-IDs.
//  8. LIMIT is non-negative.
//  9. The label language, when set, is a well-formed BCP 47 tag.
//
// Validate returns the first violation as a *SyntaxError, or nil.
// Validate is a pure function with no side effects.
func Validate(q *Query) error {
	if q == nil {
		return NewSyntaxError(ErrCodeMalformed, ClauseQuery, 0, "empty query")
	}
	v := &validator{q: q}
	v.validateTables()
	v.validateColumns()
	v.validatePredicates()
	v.validateLimit()
	v.validateLanguage()
	if v.err != nil {
		return v.err
	}
	return nil
}

// validator keeps the first violation found during traversal.
type validator struct {
	q   *Query
	err *SyntaxError
}

func (v *validator) fail(code SyntaxErrorCode, clause Clause, format string, args ...any) {
	if v.err != nil {
		return
	}
	v.err = NewSyntaxError(code, clause, 0, format, args...)
}

func (v *validator) validateTables() {
	v.validateTable(v.q.From, ClauseFrom)
	if v.q.From.Alias != "" {
		v.validateAlias(v.q.From.Alias, ClauseFrom)
	}

	if v.q.Join == nil {
		return
	}
	join := v.q.Join
	v.validateTable(join.Table, ClauseJoin)
	switch {
	case join.Table.Alias == "":
		v.fail(ErrCodeInvalidReference, ClauseJoin, "joined table %s needs an alias", join.Table.ClassID)
	case join.Table.Alias == v.q.From.Name():
		v.fail(ErrCodeInvalidReference, ClauseJoin, "alias %q is already used by the FROM table", join.Table.Alias)
	case join.Table.Alias == DefaultAlias:
		v.fail(ErrCodeInvalidReference, ClauseJoin, "alias %q is reserved for the FROM table", DefaultAlias)
	default:
		v.validateAlias(join.Table.Alias, ClauseJoin)
	}

	if _, _, ok := v.q.JoinSides(); !ok {
		v.fail(ErrCodeInvalidReference, ClauseJoin,
			"join condition %s = %s must compare one column of each table",
			join.On.Left, join.On.Right)
	}
	for _, side := range []PropertyColumn{join.On.Left, join.On.Right} {
		if !side.Property.IsProperty() {
			v.fail(ErrCodeInvalidReference, ClauseJoin, "join column %s is not a property", side)
		}
	}
}

func (v *validator) validateTable(t Table, clause Clause) {
	if !t.ClassID.IsItem() {
		v.fail(ErrCodeInvalidReference, clause, "invalid table reference %q: expected a Q-ID such as Q845945", t.ClassID)
	}
	if !t.ClassifyingProperty.IsProperty() {
		v.fail(ErrCodeInvalidReference, clause, "invalid classifying property %q: expected a P-ID such as P31", t.ClassifyingProperty)
	}
}

func (v *validator) validateAlias(alias string, clause Clause) {
	if looksLikeEntity(alias) {
		v.fail(ErrCodeInvalidReference, clause, "alias %q looks like an entity reference", alias)
		return
	}
	if strings.HasSuffix(alias, "Label") {
		v.fail(ErrCodeInvalidReference, clause, "alias %q must not end in \"Label\"", alias)
	}
}

// looksLikeEntity reports whether s starts with P/Q (any case) and a digit.
func looksLikeEntity(s string) bool {
	if len(s) < 2 {
		return false
	}
	switch s[0] {
	case 'P', 'p', 'Q', 'q':
		return s[1] >= '0' && s[1] <= '9'
	}
	return false
}

// projection is a value and the form it is projected in.
type projection struct {
	binding Binding
	form    Form
}

func (v *validator) validateColumns() {
	if len(v.q.Columns) == 0 {
		v.fail(ErrCodeMalformed, ClauseSelect, "no columns selected")
		return
	}

	// seen maps a projection to the column that first requested it;
	// nil stands for the wildcard.
	seen := make(map[projection]Column)
	add := func(p projection, col Column) {
		prev, dup := seen[p]
		if !dup {
			seen[p] = col
			return
		}
		if v.joinedPair(prev, col) {
			v.fail(ErrCodeMalformed, ClauseSelect,
				"columns %s and %s are joined and share one value; select only one of them", prev, col)
			return
		}
		v.fail(ErrCodeMalformed, ClauseSelect, "column %s duplicates %s", columnName(col), columnName(prev))
	}

	for _, col := range v.q.Columns {
		if _, ok := col.(Wildcard); ok {
			for _, role := range v.q.Roles() {
				add(projection{Binding{Role: role}, IdentifierForm}, nil)
				add(projection{Binding{Role: role}, LabelForm}, nil)
			}
			continue
		}
		binding, ok := v.q.BindingOf(col)
		if !ok {
			v.fail(ErrCodeInvalidReference, ClauseSelect, "column %s references an undeclared table", col)
			continue
		}
		form, _ := FormOf(col)
		add(projection{binding, form}, col)
	}
}

// joinedPair reports whether a and b are property columns of different
// tables, which can only share a value through the join condition.
func (v *validator) joinedPair(a, b Column) bool {
	pa, aok := a.(PropertyColumn)
	pb, bok := b.(PropertyColumn)
	if !aok || !bok {
		return false
	}
	ra, _ := v.q.Role(pa.Table)
	rb, _ := v.q.Role(pb.Table)
	return ra != rb
}

func columnName(c Column) string {
	if c == nil {
		return "*"
	}
	return c.String()
}

// selected returns every Binding SELECT requests, in any form.
func (v *validator) selected() map[Binding]bool {
	out := make(map[Binding]bool)
	for _, col := range v.q.Columns {
		if _, ok := col.(Wildcard); ok {
			for _, role := range v.q.Roles() {
				out[Binding{Role: role}] = true
			}
			continue
		}
		if b, ok := v.q.BindingOf(col); ok {
			out[b] = true
		}
	}
	return out
}

func (v *validator) validatePredicates() {
	if len(v.q.Where) == 0 {
		return
	}
	selected := v.selected()
	pinned := make(map[Binding]string)

	for _, pred := range v.q.Where {
		if _, ok := pred.Column.(Wildcard); ok || pred.Column == nil {
			v.fail(ErrCodeMalformed, ClauseWhere, "predicate needs a column, not *")
			continue
		}
		binding, ok := v.q.BindingOf(pred.Column)
		if !ok {
			v.fail(ErrCodeInvalidReference, ClauseWhere, "column %s references an undeclared table", pred.Column)
			continue
		}
		if !selected[binding] {
			v.fail(ErrCodeInvalidReference, ClauseWhere,
				"column %s is filtered but not selected; add it to the SELECT list", pred.Column)
			continue
		}

		if pred.Literal.Mode != IdentityMatch {
			continue
		}
		if !EntityRef(pred.Literal.Value).IsItem() {
			v.fail(ErrCodeInvalidReference, ClauseWhere, "%s must be compared to a Q-ID, got %q", pred.Column, pred.Literal.Value)
			continue
		}
		if prev, dup := pinned[binding]; dup && prev != pred.Literal.Value {
			v.fail(ErrCodeMalformed, ClauseWhere, "%s cannot equal both %s and %s", pred.Column, prev, pred.Literal.Value)
			continue
		}
		pinned[binding] = pred.Literal.Value
	}
}

func (v *validator) validateLimit() {
	if v.q.Limit != nil && *v.q.Limit < 0 {
		v.fail(ErrCodeMalformed, ClauseLimit, "LIMIT must be non-negative, got %d", *v.q.Limit)
	}
}

func (v *validator) validateLanguage() {
	if v.q.Language == "" {
		return
	}
	if _, err := NormalizeLanguage(v.q.Language); err != nil {
		v.fail(ErrCodeMalformed, ClauseQuery, "%v", err)
	}
}
