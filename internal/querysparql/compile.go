// Package querysparql compiles a validated queryir.Query into SPARQL 1.1
// text for the Wikidata Query Service.
//
// Variable naming:
//
//	?item            primary table subject
//	?<alias>         joined table subject
//	?P17             primary table property value (raw entity)
//	?<alias>_P27     joined table property value
//	?<var>Label      label of any of the above, from the label service
//
// The secondary join column reuses the primary join column's variable, so the
// equi-join is a shared binding rather than a FILTER.
package querysparql

import (
	"fmt"
	"strings"

	"github.com/roach88/wikisql/internal/queryir"
)

// Prefixes are the namespace declarations emitted at the top of every query.
var Prefixes = []struct{ Name, IRI string }{
	{"bd", "http://www.bigdata.com/rdf#"},
	{"wd", "http://www.wikidata.org/entity/"},
	{"wdt", "http://www.wikidata.org/prop/direct/"},
	{"wikibase", "http://wikiba.se/ontology#"},
}

// Compiler compiles queryir.Query values to SPARQL.
//
// CRITICAL: output is byte-for-byte deterministic for a given query. Nothing
// here iterates a map while writing.
type Compiler struct {
	// Indent is prepended to each line inside the WHERE block.
	Indent string
}

// NewCompiler creates a Compiler with two-space indentation.
func NewCompiler() *Compiler {
	return &Compiler{Indent: "  "}
}

// Compile converts a validated query to SPARQL text. It never fails: every
// rejection happens in parser.Parse / queryir.Validate.
func (c *Compiler) Compile(q *queryir.Query) string {
	p := newPlan(q)

	var sb strings.Builder
	for _, prefix := range Prefixes {
		fmt.Fprintf(&sb, "PREFIX %s: <%s>\n", prefix.Name, prefix.IRI)
	}
	sb.WriteString("\n")

	sb.WriteString("SELECT")
	for _, v := range p.projection {
		sb.WriteString(" ?")
		sb.WriteString(v)
	}
	sb.WriteString(" WHERE {\n")

	for _, line := range p.body() {
		sb.WriteString(c.Indent)
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("}")

	if q.Limit != nil {
		fmt.Fprintf(&sb, "\nLIMIT %d", *q.Limit)
	}
	sb.WriteString("\n")
	return sb.String()
}

// Variables returns the projected variable names (without "?") in SELECT
// order. They match the head.vars of the endpoint's JSON response.
func Variables(q *queryir.Query) []string {
	return newPlan(q).projection
}

// plan is the compiled shape of one query, computed before any text is
// written.
type plan struct {
	q *queryir.Query

	// pins holds the Q-ID each identity predicate fixes a binding to.
	pins map[queryir.Binding]queryir.EntityRef

	// properties lists non-join property bindings in first-appearance order
	// across SELECT then WHERE.
	properties []queryir.Binding

	projection []string
	labelsUsed bool
}

func newPlan(q *queryir.Query) *plan {
	p := &plan{
		q:    q,
		pins: make(map[queryir.Binding]queryir.EntityRef),
	}

	for _, pred := range q.Where {
		if pred.Literal.Mode != queryir.IdentityMatch {
			continue
		}
		if b, ok := q.BindingOf(pred.Column); ok {
			p.pins[b] = queryir.EntityRef(pred.Literal.Value)
		}
	}

	joinBinding, joined := p.joinBinding()
	seen := make(map[queryir.Binding]bool)
	addProperty := func(col queryir.Column) {
		b, ok := q.BindingOf(col)
		if !ok || b.IsSubject() || seen[b] || (joined && b == joinBinding) {
			return
		}
		seen[b] = true
		p.properties = append(p.properties, b)
	}

	for _, col := range q.Columns {
		if _, ok := col.(queryir.Wildcard); ok {
			for _, role := range q.Roles() {
				b := queryir.Binding{Role: role}
				p.projection = append(p.projection, p.variable(b), p.variable(b)+"Label")
			}
			p.labelsUsed = true
			continue
		}
		addProperty(col)
		b, _ := q.BindingOf(col)
		form, _ := queryir.FormOf(col)
		if form == queryir.LabelForm {
			p.projection = append(p.projection, p.variable(b)+"Label")
			p.labelsUsed = true
		} else {
			p.projection = append(p.projection, p.variable(b))
		}
	}
	for _, pred := range q.Where {
		addProperty(pred.Column)
		if pred.Literal.Mode == queryir.LabelMatch {
			p.labelsUsed = true
		}
	}
	return p
}

// joinBinding returns the binding both join columns share.
func (p *plan) joinBinding() (queryir.Binding, bool) {
	primary, _, ok := p.q.JoinSides()
	if !ok {
		return queryir.Binding{}, false
	}
	return queryir.Binding{Role: queryir.PrimaryTable, Property: primary.Property}, true
}

// variable returns the SPARQL variable name (without "?") for a binding.
func (p *plan) variable(b queryir.Binding) string {
	subject := queryir.DefaultAlias
	if b.Role == queryir.SecondaryTable {
		subject = p.q.Table(queryir.SecondaryTable).Alias
	}
	if b.IsSubject() {
		return subject
	}
	if b.Role == queryir.SecondaryTable {
		return subject + "_" + string(b.Property)
	}
	return string(b.Property)
}

// term returns the triple term for a binding: the pinned constant if an
// identity predicate fixes it, otherwise its variable.
func (p *plan) term(b queryir.Binding) string {
	if qid, ok := p.pins[b]; ok {
		return "wd:" + string(qid)
	}
	return "?" + p.variable(b)
}

// body returns the lines of the WHERE block.
//
// Order: class patterns, join patterns, property patterns, BINDs for pinned
// values, the label service, then label FILTERs.
func (p *plan) body() []string {
	var lines []string

	for _, role := range p.q.Roles() {
		table := p.q.Table(role)
		lines = append(lines, fmt.Sprintf("%s wdt:%s wd:%s .",
			p.term(queryir.Binding{Role: role}), table.ClassifyingProperty, table.ClassID))
	}

	if primary, secondary, ok := p.q.JoinSides(); ok {
		shared, _ := p.joinBinding()
		object := p.term(shared)
		lines = append(lines,
			fmt.Sprintf("%s wdt:%s %s .", p.term(queryir.Binding{Role: queryir.PrimaryTable}), primary.Property, object),
			fmt.Sprintf("%s wdt:%s %s .", p.term(queryir.Binding{Role: queryir.SecondaryTable}), secondary.Property, object),
		)
	}

	for _, b := range p.properties {
		triple := fmt.Sprintf("%s wdt:%s %s .", p.term(queryir.Binding{Role: b.Role}), b.Property, p.term(b))
		if _, pinned := p.pins[b]; pinned {
			// identity match: required pattern with a constant object
			lines = append(lines, triple)
			continue
		}
		lines = append(lines, "OPTIONAL { "+triple+" }")
	}

	lines = append(lines, p.binds()...)

	if p.labelsUsed {
		lines = append(lines, fmt.Sprintf(
			`SERVICE wikibase:label { bd:serviceParam wikibase:language "%s" . }`, escapeString(p.labelLanguages())))
	}

	for _, pred := range p.q.Where {
		if pred.Literal.Mode != queryir.LabelMatch {
			continue
		}
		b, _ := p.q.BindingOf(pred.Column)
		// label service values are language-tagged; compare their lexical form
		lines = append(lines, fmt.Sprintf(`FILTER(STR(?%sLabel) = "%s")`, p.variable(b), escapeString(pred.Literal.Value)))
	}

	return lines
}

// binds emits BIND(wd:Q AS ?var) for each pinned binding so the projected
// variable still carries the constant. Order follows the WHERE clause.
func (p *plan) binds() []string {
	var lines []string
	done := make(map[queryir.Binding]bool)
	for _, pred := range p.q.Where {
		if pred.Literal.Mode != queryir.IdentityMatch {
			continue
		}
		b, ok := p.q.BindingOf(pred.Column)
		if !ok || done[b] {
			continue
		}
		done[b] = true
		lines = append(lines, fmt.Sprintf("BIND(wd:%s AS ?%s)", p.pins[b], p.variable(b)))
	}
	return lines
}

// labelLanguages returns the label service language list, always ending in
// English as the fallback.
func (p *plan) labelLanguages() string {
	lang := p.q.LabelLanguage()
	if lang == queryir.DefaultLanguage {
		return lang
	}
	return lang + "," + queryir.DefaultLanguage
}

// escapeString escapes s for a double-quoted SPARQL string literal.
func escapeString(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
