package website

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/melivision/chatbot/foundation/duckdb"
	"github.com/melivision/chatbot/internal/chatbot"
	"github.com/melivision/chatbot/internal/schema"
)

// Asker is the conversation surface contract: one question in, one result
// out, no other state.
type Asker interface {
	Ask(ctx context.Context, traceID string, question string) chatbot.Result
}

// Store provides read-only queries for the table preview endpoint.
type Store interface {
	Query(ctx context.Context, query string) (duckdb.ResultSet, error)
}

// Config holds the dependencies for the web api.
type Config struct {
	Bot         Asker
	Schema      schema.Descriptor
	Store       Store
	Log         *zap.Logger
	PreviewRows int
}

// WebAPI constructs the http handler with all application routes.
func WebAPI(cfg Config) http.Handler {
	mux := http.NewServeMux()

	rts := handlers{
		bot:         cfg.Bot,
		desc:        cfg.Schema,
		store:       cfg.Store,
		log:         cfg.Log,
		previewRows: cfg.PreviewRows,
	}

	mux.HandleFunc("POST /api/chat", rts.chat)
	mux.HandleFunc("GET /api/schema", rts.schema)
	mux.HandleFunc("GET /api/tables/{table}", rts.tablePreview)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/", rts.fileServer())

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
