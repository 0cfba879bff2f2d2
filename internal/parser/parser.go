package parser

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/wikisql/internal/queryir"
)

// Parse parses a SQL-subset query with the default label language.
//
// Parse is a pure function of its input: it keeps no state between calls and
// is safe for concurrent use.
func Parse(text string) (*queryir.Query, error) {
	return ParseWithLanguage(text, queryir.DefaultLanguage)
}

// ParseWithLanguage parses a SQL-subset query and tags it with the label
// language (empty = queryir.DefaultLanguage). The language is normalized
// with queryir.NormalizeLanguage. The returned query has passed
// queryir.Validate. All failures are *queryir.SyntaxError.
func ParseWithLanguage(text, language string) (*queryir.Query, error) {
	lang, err := queryir.NormalizeLanguage(language)
	if err != nil {
		return nil, queryir.NewSyntaxError(queryir.ErrCodeMalformed, queryir.ClauseQuery, 0, "%v", err)
	}
	p := NewParser(text)
	query, err := p.Parse()
	if err != nil {
		return nil, err
	}
	query.Language = lang
	if err := queryir.Validate(query); err != nil {
		return nil, err
	}
	return query, nil
}

// Parser parses SQL-subset queries into a queryir.Query
type Parser struct {
	lexer   *Lexer
	current Token
	peek    Token
}

// NewParser creates a new parser
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.current = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) currentTokenIs(t TokenType) bool {
	return p.current.Type == t
}

func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peek.Type == t
}

func (p *Parser) malformed(clause queryir.Clause, format string, args ...any) error {
	return queryir.NewSyntaxError(queryir.ErrCodeMalformed, clause, p.current.Pos, format, args...)
}

func (p *Parser) unsupported(clause queryir.Clause, feature string) error {
	return queryir.NewUnsupportedFeature(clause, p.current.Pos, feature)
}

// checkUnsupported rejects the current token if it starts a construct outside
// the subset. Returns nil when the token is not an unsupported keyword.
func (p *Parser) checkUnsupported(clause queryir.Clause) error {
	switch p.current.Type {
	case TokenIdentifier:
		if feature, ok := unsupportedFeature(p.current.Literal); ok {
			return p.unsupported(clause, feature)
		}
		if p.peekTokenIs(TokenLeftParen) {
			return p.unsupported(clause, "function call "+strings.ToUpper(p.current.Literal)+"()")
		}
	case TokenLeftParen:
		return p.unsupported(clause, "subqueries and parenthesized expressions")
	case TokenIllegal:
		if strings.HasPrefix(p.current.Literal, "'") || strings.HasPrefix(p.current.Literal, `"`) {
			return p.malformed(clause, "unterminated string literal")
		}
		return p.malformed(clause, "unexpected character %s", p.current.describe())
	}
	return nil
}

// Parse parses the entire query
func (p *Parser) Parse() (*queryir.Query, error) {
	if p.currentTokenIs(TokenEOF) {
		return nil, p.malformed(queryir.ClauseSelect, "empty query")
	}
	if !p.currentTokenIs(TokenSelect) {
		if err := p.checkUnsupported(queryir.ClauseQuery); err != nil {
			return nil, err
		}
		return nil, p.malformed(queryir.ClauseSelect, "query must start with SELECT, got %s", p.current.describe())
	}
	p.nextToken()

	query := &queryir.Query{}

	// Parse SELECT clause
	columns, err := p.parseColumns()
	if err != nil {
		return nil, err
	}
	query.Columns = columns

	// Parse FROM clause
	if !p.currentTokenIs(TokenFrom) {
		if p.currentTokenIs(TokenEOF) {
			return nil, p.malformed(queryir.ClauseFrom, "missing FROM clause")
		}
		return nil, p.malformed(queryir.ClauseSelect, "expected FROM after column list, got %s", p.current.describe())
	}
	p.nextToken()
	from, err := p.parseTable(queryir.ClauseFrom)
	if err != nil {
		return nil, err
	}
	query.From = from

	// JOIN, WHERE and LIMIT may follow in any order, each at most once
	var seenWhere, seenLimit bool
	for !p.currentTokenIs(TokenEOF) {
		switch p.current.Type {
		case TokenJoin:
			if query.Join != nil {
				return nil, p.unsupported(queryir.ClauseJoin, "multiple JOIN clauses")
			}
			join, err := p.parseJoin()
			if err != nil {
				return nil, err
			}
			query.Join = join

		case TokenWhere:
			if seenWhere {
				return nil, p.malformed(queryir.ClauseWhere, "duplicate WHERE clause")
			}
			seenWhere = true
			where, err := p.parseWhere()
			if err != nil {
				return nil, err
			}
			query.Where = where

		case TokenLimit:
			if seenLimit {
				return nil, p.malformed(queryir.ClauseLimit, "duplicate LIMIT clause")
			}
			seenLimit = true
			limit, err := p.parseLimit()
			if err != nil {
				return nil, err
			}
			query.Limit = &limit

		case TokenSemicolon:
			p.nextToken()
			if !p.currentTokenIs(TokenEOF) {
				return nil, p.malformed(queryir.ClauseQuery, "unexpected %s after ';'", p.current.describe())
			}

		case TokenComma:
			return nil, p.unsupported(queryir.ClauseFrom, "multiple tables in FROM (use JOIN)")

		case TokenOn:
			return nil, p.malformed(queryir.ClauseJoin, "ON without JOIN")

		case TokenAnd:
			return nil, p.malformed(queryir.ClauseWhere, "AND outside a WHERE clause")

		default:
			if err := p.checkUnsupported(queryir.ClauseQuery); err != nil {
				return nil, err
			}
			return nil, p.malformed(queryir.ClauseQuery, "unexpected %s", p.current.describe())
		}
	}

	return query, nil
}

// parseColumns parses the SELECT column list up to FROM.
func (p *Parser) parseColumns() ([]queryir.Column, error) {
	if p.currentTokenIs(TokenFrom) {
		return nil, p.malformed(queryir.ClauseSelect, "no columns selected")
	}

	var columns []queryir.Column
	for {
		col, err := p.parseColumn(queryir.ClauseSelect, true)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)

		if p.currentTokenIs(TokenAs) {
			return nil, p.unsupported(queryir.ClauseSelect, "column aliases (AS)")
		}
		if !p.currentTokenIs(TokenComma) {
			break
		}
		p.nextToken()
	}
	return columns, nil
}

// parseColumn parses one column: *, item, item_qid, Pxxx or Pxxx_qid,
// optionally qualified with a table alias.
func (p *Parser) parseColumn(clause queryir.Clause, allowWildcard bool) (queryir.Column, error) {
	if p.currentTokenIs(TokenStar) {
		if !allowWildcard {
			return nil, p.malformed(clause, "* cannot be used here")
		}
		p.nextToken()
		return queryir.Wildcard{}, nil
	}

	if err := p.checkUnsupported(clause); err != nil {
		return nil, err
	}
	if !p.currentTokenIs(TokenIdentifier) {
		if p.currentTokenIs(TokenEOF) {
			return nil, p.malformed(clause, "expected a column, got end of input")
		}
		return nil, queryir.NewSyntaxError(queryir.ErrCodeUnknownColumn, clause, p.current.Pos,
			"unknown column %s", p.current.describe())
	}

	var qualifier string
	if p.peekTokenIs(TokenDot) {
		qualifier = p.current.Literal
		p.nextToken()
		p.nextToken()
		if p.currentTokenIs(TokenStar) {
			return nil, p.unsupported(clause, "qualified wildcard "+qualifier+".*")
		}
		if !p.currentTokenIs(TokenIdentifier) {
			return nil, queryir.NewSyntaxError(queryir.ErrCodeUnknownColumn, clause, p.current.Pos,
				"unknown column %s.%s", qualifier, p.current.Literal)
		}
	}

	col, ok := classifyColumn(qualifier, p.current.Literal)
	if !ok {
		return nil, queryir.NewSyntaxError(queryir.ErrCodeUnknownColumn, clause, p.current.Pos,
			"unknown column %q: expected *, item, item_qid, Pxxx or Pxxx_qid", p.current.Literal)
	}
	p.nextToken()
	return col, nil
}

// classifyColumn maps a column name to its Column variant. The "item"
// name and the "_qid" suffix are case-insensitive, entity references are not.
func classifyColumn(qualifier, name string) (queryir.Column, bool) {
	form := queryir.LabelForm
	base := name
	if len(name) > len(queryir.IdentifierSuffix) &&
		strings.EqualFold(name[len(name)-len(queryir.IdentifierSuffix):], queryir.IdentifierSuffix) {
		form = queryir.IdentifierForm
		base = name[:len(name)-len(queryir.IdentifierSuffix)]
	}

	if strings.EqualFold(base, queryir.DefaultAlias) {
		return queryir.SubjectColumn{Table: qualifier, Form: form}, true
	}
	if prop, ok := queryir.ParsePropertyRef(base); ok {
		return queryir.PropertyColumn{Table: qualifier, Property: prop, Form: form}, true
	}
	return nil, false
}

// parseTable parses [PID ":"] QID [[AS] alias].
func (p *Parser) parseTable(clause queryir.Clause) (queryir.Table, error) {
	table := queryir.Table{ClassifyingProperty: queryir.DefaultClassifyingProperty}

	if p.currentTokenIs(TokenLeftParen) {
		return table, p.unsupported(clause, "subqueries")
	}
	if p.currentTokenIs(TokenEOF) {
		return table, p.malformed(clause, "missing table reference")
	}

	if p.currentTokenIs(TokenIdentifier) && p.peekTokenIs(TokenColon) {
		prop, ok := queryir.ParsePropertyRef(p.current.Literal)
		if !ok {
			return table, queryir.NewSyntaxError(queryir.ErrCodeInvalidReference, clause, p.current.Pos,
				"invalid classifying property %q: expected a P-ID such as P279", p.current.Literal)
		}
		table.ClassifyingProperty = prop
		p.nextToken()
		p.nextToken()
	}

	classID, ok := queryir.ParseItemRef(p.current.Literal)
	if !p.currentTokenIs(TokenIdentifier) || !ok {
		hint := "expected a Q-ID such as Q845945 or P279:Q845945"
		if _, upper := queryir.ParseItemRef(strings.ToUpper(p.current.Literal)); upper && p.currentTokenIs(TokenIdentifier) {
			hint = "entity references are case-sensitive, write " + strings.ToUpper(p.current.Literal)
		}
		return table, queryir.NewSyntaxError(queryir.ErrCodeInvalidReference, clause, p.current.Pos,
			"invalid table reference %s: %s", p.current.describe(), hint)
	}
	table.ClassID = classID
	p.nextToken()

	// Optional alias, with or without AS
	if p.currentTokenIs(TokenAs) {
		p.nextToken()
		if !p.currentTokenIs(TokenIdentifier) {
			return table, p.malformed(clause, "expected an alias after AS, got %s", p.current.describe())
		}
		if feature, bad := unsupportedFeature(p.current.Literal); bad {
			return table, p.malformed(clause, "%s cannot be used as an alias (reserved for %s)", p.current.describe(), feature)
		}
		table.Alias = p.current.Literal
		p.nextToken()
	} else if p.currentTokenIs(TokenIdentifier) {
		if _, bad := unsupportedFeature(p.current.Literal); !bad {
			table.Alias = p.current.Literal
			p.nextToken()
		}
	}

	return table, nil
}

// parseJoin parses JOIN table ON alias.col = alias.col.
func (p *Parser) parseJoin() (*queryir.Join, error) {
	p.nextToken()

	table, err := p.parseTable(queryir.ClauseJoin)
	if err != nil {
		return nil, err
	}

	if !p.currentTokenIs(TokenOn) {
		if p.currentTokenIs(TokenIdentifier) && strings.EqualFold(p.current.Literal, "USING") {
			return nil, p.unsupported(queryir.ClauseJoin, "JOIN ... USING")
		}
		return nil, p.malformed(queryir.ClauseJoin, "expected ON after joined table, got %s", p.current.describe())
	}
	p.nextToken()

	left, err := p.parseJoinColumn()
	if err != nil {
		return nil, err
	}

	if !p.currentTokenIs(TokenEqual) {
		if p.currentTokenIs(TokenOperator) {
			return nil, p.unsupported(queryir.ClauseJoin, "join operator "+p.current.Literal)
		}
		return nil, p.malformed(queryir.ClauseJoin, "expected = in join condition, got %s", p.current.describe())
	}
	p.nextToken()

	right, err := p.parseJoinColumn()
	if err != nil {
		return nil, err
	}

	if p.currentTokenIs(TokenAnd) {
		return nil, p.unsupported(queryir.ClauseJoin, "compound join conditions")
	}

	return &queryir.Join{
		Table: table,
		On:    queryir.JoinCondition{Left: left, Right: right},
	}, nil
}

// parseJoinColumn parses alias.Pxxx (or alias.Pxxx_qid).
func (p *Parser) parseJoinColumn() (queryir.PropertyColumn, error) {
	pos := p.current.Pos
	if p.currentTokenIs(TokenIdentifier) && !p.peekTokenIs(TokenDot) {
		return queryir.PropertyColumn{}, queryir.NewSyntaxError(queryir.ErrCodeInvalidReference, queryir.ClauseJoin, pos,
			"join column %s must be qualified with a table alias", p.current.describe())
	}

	col, err := p.parseColumn(queryir.ClauseJoin, false)
	if err != nil {
		return queryir.PropertyColumn{}, err
	}
	prop, ok := col.(queryir.PropertyColumn)
	if !ok {
		return queryir.PropertyColumn{}, queryir.NewSyntaxError(queryir.ErrCodeInvalidReference, queryir.ClauseJoin, pos,
			"join column %s must be a property column (Pxxx)", col)
	}
	return prop, nil
}

// parseWhere parses WHERE predicate (AND predicate)*.
func (p *Parser) parseWhere() ([]queryir.Predicate, error) {
	p.nextToken()

	var predicates []queryir.Predicate
	for {
		pred, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		predicates = append(predicates, pred)

		if p.currentTokenIs(TokenAnd) {
			p.nextToken()
			continue
		}
		if p.currentTokenIs(TokenIdentifier) && strings.EqualFold(p.current.Literal, "OR") {
			return nil, p.unsupported(queryir.ClauseWhere, "OR")
		}
		break
	}
	return predicates, nil
}

// parsePredicate parses column = 'label' | column = Qxxx.
func (p *Parser) parsePredicate() (queryir.Predicate, error) {
	if p.currentTokenIs(TokenEOF) {
		return queryir.Predicate{}, p.malformed(queryir.ClauseWhere, "expected a condition, got end of input")
	}

	col, err := p.parseColumn(queryir.ClauseWhere, false)
	if err != nil {
		return queryir.Predicate{}, err
	}

	switch p.current.Type {
	case TokenEqual:
		p.nextToken()
	case TokenOperator:
		return queryir.Predicate{}, p.unsupported(queryir.ClauseWhere, "comparison operator "+p.current.Literal)
	default:
		if err := p.checkUnsupported(queryir.ClauseWhere); err != nil {
			return queryir.Predicate{}, err
		}
		return queryir.Predicate{}, p.malformed(queryir.ClauseWhere, "expected = after %s, got %s", col, p.current.describe())
	}

	form, _ := queryir.FormOf(col)
	lit := p.current

	switch lit.Type {
	case TokenString:
		p.nextToken()
		if form == queryir.IdentifierForm {
			if _, ok := queryir.ParseItemRef(lit.Literal); !ok {
				return queryir.Predicate{}, queryir.NewSyntaxError(queryir.ErrCodeInvalidReference, queryir.ClauseWhere, lit.Pos,
					"%s must be compared to a Q-ID, got %s", col, lit.describe())
			}
			return queryir.Predicate{Column: col, Literal: queryir.Literal{Mode: queryir.IdentityMatch, Value: lit.Literal}}, nil
		}
		return queryir.Predicate{Column: col, Literal: queryir.Literal{Mode: queryir.LabelMatch, Value: norm.NFC.String(lit.Literal)}}, nil

	case TokenIdentifier:
		p.nextToken()
		if _, ok := queryir.ParseItemRef(lit.Literal); !ok {
			return queryir.Predicate{}, queryir.NewSyntaxError(queryir.ErrCodeMalformed, queryir.ClauseWhere, lit.Pos,
				"expected a quoted string or a Q-ID after =, got %s", lit.describe())
		}
		return queryir.Predicate{Column: col, Literal: queryir.Literal{Mode: queryir.IdentityMatch, Value: lit.Literal}}, nil

	case TokenNumber:
		return queryir.Predicate{}, p.unsupported(queryir.ClauseWhere, "numeric comparison with "+lit.Literal)

	default:
		if err := p.checkUnsupported(queryir.ClauseWhere); err != nil {
			return queryir.Predicate{}, err
		}
		return queryir.Predicate{}, p.malformed(queryir.ClauseWhere, "expected a quoted string or a Q-ID after =, got %s", lit.describe())
	}
}

// parseLimit parses LIMIT INTEGER.
func (p *Parser) parseLimit() (int, error) {
	p.nextToken()

	if !p.currentTokenIs(TokenNumber) {
		return 0, p.malformed(queryir.ClauseLimit, "LIMIT expects a non-negative integer, got %s", p.current.describe())
	}
	n, err := strconv.ParseInt(p.current.Literal, 10, 32)
	if err != nil {
		return 0, p.malformed(queryir.ClauseLimit, "LIMIT value %s is out of range", p.current.Literal)
	}
	p.nextToken()

	if p.currentTokenIs(TokenComma) {
		return 0, p.unsupported(queryir.ClauseLimit, "LIMIT offset, count")
	}
	return int(n), nil
}
