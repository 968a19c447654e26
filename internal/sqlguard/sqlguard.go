// Package sqlguard is the safety gate between the model and the data store.
// Model generated SQL is untrusted input: every statement is parsed and
// classified before execution, and anything that is not a single SELECT over
// known tables is rejected.
package sqlguard

import (
	"fmt"
	"strings"

	"vitess.io/vitess/go/vt/sqlparser"

	"github.com/melivision/chatbot/internal/schema"
)

// UnsafeQueryError reports a statement rejected by the validation gate.
// Rejected text is never executed.
type UnsafeQueryError struct {
	Reason string
}

func (e *UnsafeQueryError) Error() string {
	return fmt.Sprintf("unsafe query: %s", e.Reason)
}

// =============================================================================

// Guard validates generated SQL against the schema descriptor.
type Guard struct {
	parser *sqlparser.Parser
	desc   schema.Descriptor
}

// New constructs a Guard for the specified descriptor.
func New(desc schema.Descriptor) (*Guard, error) {
	parser, err := sqlparser.New(sqlparser.Options{})
	if err != nil {
		return nil, fmt.Errorf("create parser: %w", err)
	}

	return &Guard{
		parser: parser,
		desc:   desc,
	}, nil
}

// Validate accepts exactly one SELECT-class statement referencing only known
// tables. Anything else comes back as *UnsafeQueryError.
func (g *Guard) Validate(query string) error {
	if strings.TrimSpace(query) == "" {
		return &UnsafeQueryError{Reason: "empty statement"}
	}

	// The model writes duckdb syntax where identifiers are double-quoted;
	// the parser only understands the backtick form.
	query = normalizeIdentifiers(query)

	pieces, err := g.parser.SplitStatementToPieces(query)
	if err != nil {
		return &UnsafeQueryError{Reason: fmt.Sprintf("cannot split statement: %v", err)}
	}
	if len(pieces) != 1 {
		return &UnsafeQueryError{Reason: fmt.Sprintf("expected a single statement, got %d", len(pieces))}
	}

	stmt, err := g.parser.Parse(pieces[0])
	if err != nil {
		return &UnsafeQueryError{Reason: fmt.Sprintf("cannot parse statement: %v", err)}
	}

	switch stmt.(type) {
	case *sqlparser.Select, *sqlparser.Union:
	default:
		return &UnsafeQueryError{Reason: fmt.Sprintf("statement type %T is not a read", stmt)}
	}

	return g.checkTables(stmt)
}

// normalizeIdentifiers rewrites double-quoted identifiers to backticks. In
// the generated dialect double quotes never delimit strings, so the rewrite
// is purely lexical; single-quoted literals pass through untouched.
func normalizeIdentifiers(query string) string {
	var sb strings.Builder
	sb.Grow(len(query))

	var inString, inIdent bool

	for i := 0; i < len(query); i++ {
		c := query[i]

		switch {
		case inString:
			sb.WriteByte(c)
			if c == '\'' {
				// '' escapes a quote inside the literal.
				if i+1 < len(query) && query[i+1] == '\'' {
					sb.WriteByte('\'')
					i++
					continue
				}
				inString = false
			}

		case c == '\'':
			inString = true
			sb.WriteByte(c)

		case c == '"':
			if inIdent && i+1 < len(query) && query[i+1] == '"' {
				// "" escapes a quote inside the identifier.
				sb.WriteByte('"')
				i++
				continue
			}
			inIdent = !inIdent
			sb.WriteByte('`')

		default:
			sb.WriteByte(c)
		}
	}

	return sb.String()
}

// checkTables walks the statement and confirms every referenced table exists
// in the schema. Names introduced by WITH clauses are allowed, so those are
// collected in a first pass before any table reference is checked.
func (g *Guard) checkTables(stmt sqlparser.Statement) error {
	cteNames := map[string]bool{}

	err := sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if with, ok := node.(*sqlparser.With); ok {
			for _, cte := range with.CTEs {
				cteNames[strings.ToLower(cte.ID.String())] = true
			}
		}

		return true, nil
	}, stmt)
	if err != nil {
		return &UnsafeQueryError{Reason: fmt.Sprintf("walk statement: %v", err)}
	}

	var unknown []string

	err = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if n, ok := node.(sqlparser.TableName); ok {
			name := n.Name.String()
			switch {
			case name == "" || strings.EqualFold(name, "dual"):
			case cteNames[strings.ToLower(name)]:
			case !g.desc.HasTable(name):
				unknown = append(unknown, name)
			}
		}

		return true, nil
	}, stmt)
	if err != nil {
		return &UnsafeQueryError{Reason: fmt.Sprintf("walk statement: %v", err)}
	}

	if len(unknown) > 0 {
		return &UnsafeQueryError{Reason: fmt.Sprintf("unknown tables: %s", strings.Join(unknown, ", "))}
	}

	return nil
}
