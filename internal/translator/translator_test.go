package translator_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/melivision/chatbot/foundation/client"
	"github.com/melivision/chatbot/internal/schema"
	"github.com/melivision/chatbot/internal/translator"
)

func testDescriptor() schema.Descriptor {
	return schema.Descriptor{
		Tables: []schema.Table{
			{Name: "produtos", Columns: []schema.Column{{Name: "id", Type: "BIGINT"}, {Name: "nome", Type: "VARCHAR"}}},
		},
	}
}

func chatResponse(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestTranslateStripsFences(t *testing.T) {
	var gotPrompt string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		gotPrompt = req.Messages[0].Content

		w.Write([]byte(chatResponse("```sql\nSELECT COUNT(*) FROM produtos;\n```")))
	}))
	defer srv.Close()

	llm := client.NewLLM(srv.URL, "test-model")
	trans := translator.New(llm, testDescriptor(), time.Second)

	sql, err := trans.Translate(context.Background(), "Quantos produtos temos no catálogo?")
	require.NoError(t, err)
	require.Equal(t, "SELECT COUNT(*) FROM produtos;", sql)

	require.Contains(t, gotPrompt, "TABELA produtos")
	require.Contains(t, gotPrompt, "Quantos produtos temos no catálogo?")
}

func TestTranslateEmptyOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse("   ")))
	}))
	defer srv.Close()

	llm := client.NewLLM(srv.URL, "test-model")
	trans := translator.New(llm, testDescriptor(), time.Second)

	_, err := trans.Translate(context.Background(), "pergunta")

	var trErr *translator.TranslationError
	require.True(t, errors.As(err, &trErr))
}

func TestTranslateImpossible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse("IMPOSSIBLE")))
	}))
	defer srv.Close()

	llm := client.NewLLM(srv.URL, "test-model")
	trans := translator.New(llm, testDescriptor(), time.Second)

	_, err := trans.Translate(context.Background(), "qual o sentido da vida?")

	var trErr *translator.TranslationError
	require.True(t, errors.As(err, &trErr))
}

func TestTranslateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(chatResponse("SELECT 1")))
	}))
	defer srv.Close()

	llm := client.NewLLM(srv.URL, "test-model")
	trans := translator.New(llm, testDescriptor(), 50*time.Millisecond)

	_, err := trans.Translate(context.Background(), "pergunta")

	var trErr *translator.TranslationError
	require.True(t, errors.As(err, &trErr))
}

func TestTranslateNoRetryOnAuthFailure(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	llm := client.NewLLM(srv.URL, "test-model", client.WithRetry(3, 5*time.Millisecond))
	trans := translator.New(llm, testDescriptor(), time.Second)

	_, err := trans.Translate(context.Background(), "pergunta")

	var trErr *translator.TranslationError
	require.True(t, errors.As(err, &trErr))
	require.True(t, errors.Is(err, client.ErrUnauthorized))
	require.Equal(t, int32(1), calls.Load())
}

func TestTranslateRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"message":"temporarily overloaded"}}`))
			return
		}
		w.Write([]byte(chatResponse("SELECT COUNT(*) FROM produtos")))
	}))
	defer srv.Close()

	llm := client.NewLLM(srv.URL, "test-model", client.WithRetry(2, 5*time.Millisecond))
	trans := translator.New(llm, testDescriptor(), time.Second)

	sql, err := trans.Translate(context.Background(), "pergunta")
	require.NoError(t, err)
	require.Equal(t, "SELECT COUNT(*) FROM produtos", sql)
	require.Equal(t, int32(2), calls.Load())
}
