// Package website provides the api and web ui for the chatbot.
package website

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"regexp"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/melivision/chatbot/foundation/duckdb"
	"github.com/melivision/chatbot/internal/chatbot"
	"github.com/melivision/chatbot/internal/schema"
)

//go:embed static
var website embed.FS

const (
	websiteDir  = "static"
	websitePath = "/"
)

type handlers struct {
	bot         Asker
	desc        schema.Descriptor
	store       Store
	log         *zap.Logger
	previewRows int
}

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.NewString()
	log := h.log.With(zap.String("trace_id", traceID))

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, log, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Question == "" {
		sendError(w, log, http.StatusBadRequest, "question is required")
		return
	}

	result := h.bot.Ask(r.Context(), traceID, req.Question)

	writeJSON(w, log, http.StatusOK, toChatResponse(result))
}

func (h *handlers) schema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, http.StatusOK, h.desc)
}

// tablePreview returns the first rows of a known table for the data viewer.
// The table name is checked against the descriptor, never spliced in raw.
func (h *handlers) tablePreview(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")

	if !h.desc.HasTable(table) {
		sendError(w, h.log, http.StatusNotFound, fmt.Sprintf("unknown table: %s", table))
		return
	}

	// The configured preview size is a hard ceiling on client-supplied values.
	rows := h.previewRows
	if rows <= 0 {
		rows = 10
	}
	if v := r.URL.Query().Get("rows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			sendError(w, h.log, http.StatusBadRequest, "rows must be a positive integer")
			return
		}
		if n < rows {
			rows = n
		}
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", duckdb.QuoteIdent(table), rows)

	rs, err := h.store.Query(r.Context(), query)
	if err != nil {
		sendError(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, h.log, http.StatusOK, PreviewResponse{
		Table:   table,
		Columns: rs.Columns,
		Rows:    rs.Rows,
	})
}

func (h *handlers) fileServer() func(w http.ResponseWriter, r *http.Request) {
	fileMatcher := regexp.MustCompile(`\.[a-zA-Z]*$`)

	fSys, err := fs.Sub(website, websiteDir)
	if err != nil {
		h.log.Error("switching to static folder", zap.Error(err))
		return nil
	}

	fileServer := http.StripPrefix(websitePath, http.FileServer(http.FS(fSys)))

	f := func(w http.ResponseWriter, r *http.Request) {
		if !fileMatcher.MatchString(r.URL.Path) {
			p, err := website.ReadFile(fmt.Sprintf("%s/index.html", websiteDir))
			if err != nil {
				h.log.Error("index.html not found", zap.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(p)
			return
		}

		fileServer.ServeHTTP(w, r)
	}

	return f
}

// =============================================================================

func writeJSON(w http.ResponseWriter, log *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("encode response", zap.Error(err))
	}
}

func sendError(w http.ResponseWriter, log *zap.Logger, status int, msg string) {
	log.Warn("request error", zap.Int("status", status), zap.String("error", msg))
	writeJSON(w, log, status, ErrorResponse{Error: msg})
}

func toChatResponse(result chatbot.Result) ChatResponse {
	return ChatResponse{
		State:   string(result.State),
		Step:    string(result.Step),
		Kind:    string(result.Kind),
		Error:   result.Message,
		Answer:  result.Answer,
		SQL:     result.SQL,
		Columns: result.Columns,
		Rows:    result.Rows,
	}
}
