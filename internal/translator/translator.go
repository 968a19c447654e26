// Package translator turns a natural language question plus the schema
// descriptor into a single SQL statement via the model provider.
package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/melivision/chatbot/foundation/client"
	"github.com/melivision/chatbot/internal/schema"
)

// TranslationError reports that no usable SQL could be produced: the provider
// was unreachable, timed out, or returned malformed or empty output.
type TranslationError struct {
	Reason string
	Err    error
}

func (e *TranslationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("translation: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("translation: %s", e.Reason)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// =============================================================================

const prompt = `Você é um especialista em SQL. Com base no schema do banco de dados abaixo, escreva uma query SQL para responder à pergunta do usuário.

REGRAS OBRIGATÓRIAS:
1. Use apenas SELECT (ou WITH ... SELECT). NUNCA use INSERT, UPDATE, DELETE, DROP, CREATE, ALTER, TRUNCATE ou qualquer instrução que modifique dados.
2. Use apenas tabelas e colunas que existem no schema fornecido.
3. Se não for possível responder à pergunta com os dados disponíveis, responda exatamente com: IMPOSSIBLE
4. Retorne APENAS o SQL puro em uma única instrução, sem explicações, sem blocos de código, sem comentários e sem markdown.
5. O banco usa DuckDB, com sintaxe SQL compatível com PostgreSQL.
6. Para conversão de tipos use CAST(valor AS tipo); nunca use o operador ::.

SCHEMA DO BANCO:
%s

PERGUNTA DO USUÁRIO:
%s

SQL:`

// Translator produces SQL for questions about the dataset.
type Translator struct {
	llm     *client.LLM
	desc    schema.Descriptor
	timeout time.Duration
}

// New constructs a Translator bound to an immutable schema descriptor.
func New(llm *client.LLM, desc schema.Descriptor, timeout time.Duration) *Translator {
	return &Translator{
		llm:     llm,
		desc:    desc,
		timeout: timeout,
	}
}

// Translate performs one model call and returns the generated SQL text. The
// result is untrusted and must pass the validation gate before execution.
func (t *Translator) Translate(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", &TranslationError{Reason: "empty question"}
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	text := fmt.Sprintf(prompt, t.desc.Prompt(), question)

	out, err := t.llm.ChatCompletions(ctx, text, client.WithParams(0.1, 0.5, 2000))
	if err != nil {
		return "", &TranslationError{Reason: "chat completions", Err: err}
	}

	sql := stripCodeFences(out)

	if sql == "" {
		return "", &TranslationError{Reason: "model returned empty output"}
	}

	if strings.EqualFold(sql, "IMPOSSIBLE") {
		return "", &TranslationError{Reason: "question cannot be answered from the available schema"}
	}

	return sql, nil
}

// stripCodeFences removes a surrounding markdown code block when the model
// ignores the plain-SQL instruction.
func stripCodeFences(value string) string {
	trimmed := strings.TrimSpace(value)

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	return trimmed
}
