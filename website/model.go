package website

// ChatRequest is one question submitted by the ui.
type ChatRequest struct {
	Question string `json:"question"`
}

// ChatResponse carries the interaction outcome back to the ui. On failure
// Kind and Error are set; on success Answer, SQL and the raw rows are set so
// the ui can show both the sentence and the table.
type ChatResponse struct {
	State   string   `json:"state"`
	Step    string   `json:"step,omitempty"`
	Kind    string   `json:"kind,omitempty"`
	Error   string   `json:"error,omitempty"`
	Answer  string   `json:"answer,omitempty"`
	SQL     string   `json:"sql,omitempty"`
	Columns []string `json:"columns,omitempty"`
	Rows    [][]any  `json:"rows,omitempty"`
}

// PreviewResponse is the table viewer payload.
type PreviewResponse struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
