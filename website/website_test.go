package website_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/melivision/chatbot/foundation/duckdb"
	"github.com/melivision/chatbot/internal/chatbot"
	"github.com/melivision/chatbot/internal/schema"
	"github.com/melivision/chatbot/website"
)

type fakeBot struct {
	result chatbot.Result
}

func (f *fakeBot) Ask(ctx context.Context, traceID string, question string) chatbot.Result {
	return f.result
}

type fakeStore struct {
	gotQuery string
	result   duckdb.ResultSet
}

func (f *fakeStore) Query(ctx context.Context, query string) (duckdb.ResultSet, error) {
	f.gotQuery = query
	return f.result, nil
}

func testDescriptor() schema.Descriptor {
	return schema.Descriptor{
		Tables: []schema.Table{
			{Name: "produtos", Columns: []schema.Column{{Name: "id", Type: "BIGINT"}, {Name: "nome", Type: "VARCHAR"}}},
		},
	}
}

func newHandler(bot website.Asker, store website.Store) http.Handler {
	return website.WebAPI(website.Config{
		Bot:         bot,
		Schema:      testDescriptor(),
		Store:       store,
		Log:         zap.NewNop(),
		PreviewRows: 10,
	})
}

func TestChatAnswered(t *testing.T) {
	bot := &fakeBot{
		result: chatbot.Result{
			State:   chatbot.StateAnswered,
			Answer:  "Temos 57 produtos no catálogo.",
			SQL:     "SELECT COUNT(*) FROM produtos;",
			Columns: []string{"count"},
			Rows:    [][]any{{float64(57)}},
		},
	}

	handler := newHandler(bot, &fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"Quantos produtos temos?"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		State  string `json:"state"`
		Answer string `json:"answer"`
		SQL    string `json:"sql"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "answered", resp.State)
	require.Contains(t, resp.Answer, "57")
	require.Equal(t, "SELECT COUNT(*) FROM produtos;", resp.SQL)
}

func TestChatFailed(t *testing.T) {
	bot := &fakeBot{
		result: chatbot.Result{
			State:   chatbot.StateFailed,
			Kind:    chatbot.KindUnsafeQuery,
			Message: "unsafe query: statement type *sqlparser.DropTable is not a read",
		},
	}

	handler := newHandler(bot, &fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"apaga tudo"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		State string `json:"state"`
		Kind  string `json:"kind"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "failed", resp.State)
	require.Equal(t, "unsafe_query", resp.Kind)
	require.Contains(t, resp.Error, "unsafe query")
}

func TestChatRejectsEmptyQuestion(t *testing.T) {
	handler := newHandler(&fakeBot{}, &fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSchemaEndpoint(t *testing.T) {
	handler := newHandler(&fakeBot{}, &fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/schema", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "produtos")
}

func TestTablePreview(t *testing.T) {
	store := &fakeStore{
		result: duckdb.ResultSet{
			Columns: []string{"id", "nome"},
			Rows:    [][]any{{int64(1), "Mouse"}},
		},
	}

	handler := newHandler(&fakeBot{}, store)

	req := httptest.NewRequest(http.MethodGet, "/api/tables/produtos?rows=5", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, store.gotQuery, `"produtos"`)
	require.Contains(t, store.gotQuery, "LIMIT 5")
	require.Contains(t, w.Body.String(), "Mouse")
}

func TestTablePreviewClampsRows(t *testing.T) {
	store := &fakeStore{
		result: duckdb.ResultSet{Columns: []string{"id"}},
	}

	handler := newHandler(&fakeBot{}, store)

	req := httptest.NewRequest(http.MethodGet, "/api/tables/produtos?rows=1000000", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, store.gotQuery, "LIMIT 10")
}

func TestTablePreviewUnknownTable(t *testing.T) {
	handler := newHandler(&fakeBot{}, &fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/tables/pedidos", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}
