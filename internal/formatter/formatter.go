// Package formatter converts a query result into a readable answer. A second
// model call can phrase the answer conversationally; when that call fails the
// raw tabular rendering is returned instead, never an error.
package formatter

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/melivision/chatbot/foundation/client"
	"github.com/melivision/chatbot/foundation/duckdb"
)

const responsePrompt = `Você é um assistente analítico de dados de um vendedor do Mercado Livre. A pergunta do usuário foi respondida com a query SQL cujo resultado está abaixo.

RESULTADO DA CONSULTA:
%s

PERGUNTA DO USUÁRIO:
%s

Responda à pergunta em português, em uma ou duas frases, usando apenas os dados do resultado. Não invente valores.`

// Formatter renders answers. A nil llm disables the conversational phrasing
// and every answer falls back to the tabular rendering.
type Formatter struct {
	llm     *client.LLM
	timeout time.Duration
	log     *zap.Logger
}

func New(llm *client.LLM, timeout time.Duration, log *zap.Logger) *Formatter {
	return &Formatter{
		llm:     llm,
		timeout: timeout,
		log:     log,
	}
}

// Format produces the answer text for the result set. It never fails: a
// phrasing-call error is logged and the raw rendering is used.
func (f *Formatter) Format(ctx context.Context, question string, rs duckdb.ResultSet) string {
	raw := Render(rs)

	if f.llm == nil {
		return raw
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	text := fmt.Sprintf(responsePrompt, dump(rs), question)

	answer, err := f.llm.ChatCompletions(ctx, text, client.WithParams(0.3, 0.5, 1000))
	if err != nil || strings.TrimSpace(answer) == "" {
		f.log.Warn("answer phrasing failed, returning raw result", zap.Error(err))
		return raw
	}

	return strings.TrimSpace(answer)
}

// =============================================================================

// Render produces the plain text form of a result set: a sentence for scalar
// results, a fixed-width table otherwise.
func Render(rs duckdb.ResultSet) string {
	switch {
	case rs.RowCount() == 0:
		return "A consulta não retornou resultados."

	case rs.RowCount() == 1 && len(rs.Columns) == 1:
		return fmt.Sprintf("O resultado da consulta é %v.", rs.Rows[0][0])

	default:
		return renderTable(rs)
	}
}

func renderTable(rs duckdb.ResultSet) string {
	widths := make([]int, len(rs.Columns))
	for i, column := range rs.Columns {
		widths[i] = utf8.RuneCountInString(column)
	}

	cells := make([][]string, len(rs.Rows))
	for r, row := range rs.Rows {
		cells[r] = make([]string, len(rs.Columns))
		for c := range rs.Columns {
			var v string
			if c < len(row) {
				v = cell(row[c])
			}
			cells[r][c] = v
			if n := utf8.RuneCountInString(v); n > widths[c] {
				widths[c] = n
			}
		}
	}

	var sb strings.Builder

	writeRow := func(values []string) {
		for c, v := range values {
			if c > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(v)
			sb.WriteString(strings.Repeat(" ", widths[c]-utf8.RuneCountInString(v)))
		}
		sb.WriteString("\n")
	}

	writeRow(rs.Columns)

	for c, w := range widths {
		if c > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")

	for _, row := range cells {
		writeRow(row)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func cell(value any) string {
	if value == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", value)
}

// dump renders the result in the key/value form the phrasing prompt expects.
func dump(rs duckdb.ResultSet) string {
	var sb strings.Builder

	for i, row := range rs.Rows {
		sb.WriteString(fmt.Sprintf("RESULTADO: %d\n", i+1))
		for c, column := range rs.Columns {
			if c < len(row) {
				sb.WriteString(fmt.Sprintf("%s: %v\n", column, row[c]))
			}
		}
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		sb.WriteString("(nenhuma linha)\n")
	}

	return sb.String()
}
