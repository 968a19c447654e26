// Meli Vision is an analytics chatbot: it answers natural language questions
// about a seller dataset by translating them to SQL with a hosted model,
// executing the SQL against an embedded duckdb store, and phrasing the
// result back conversationally.
//
// # Running the service:
//
//	$ make run
//
// The OPENAI_API_KEY environment variable (or a .env file) is required.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/melivision/chatbot/foundation/client"
	"github.com/melivision/chatbot/foundation/logger"
	"github.com/melivision/chatbot/internal/chatbot"
	"github.com/melivision/chatbot/internal/config"
	"github.com/melivision/chatbot/internal/executor"
	"github.com/melivision/chatbot/internal/formatter"
	"github.com/melivision/chatbot/internal/schema"
	"github.com/melivision/chatbot/internal/sqlguard"
	"github.com/melivision/chatbot/internal/store"
	"github.com/melivision/chatbot/internal/translator"
	"github.com/melivision/chatbot/website"
)

const (
	webReadTimeout     = 10 * time.Second
	webWriteTimeout    = 120 * time.Second
	webIdleTimeout     = 120 * time.Second
	webShutdownTimeout = 20 * time.Second
	startupTimeout     = 2 * time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	// -------------------------------------------------------------------------

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	st, err := store.New(ctx, log, store.Config{
		DBPath:       cfg.Store.DBPath,
		DataDir:      cfg.Store.DataDir,
		QueryTimeout: config.GetDuration(cfg.Store.QueryTimeout),
	})
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer st.Close()

	desc, err := schema.Load(ctx, st.DB())
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	log.Info("schema loaded", zap.Strings("tables", desc.TableNames()))

	// -------------------------------------------------------------------------

	llm := client.NewLLM(cfg.LLM.ServerURL, cfg.LLM.Model,
		client.WithAuth(cfg.LLM.APIKey),
		client.WithRetry(cfg.LLM.RetryCount, config.GetDuration(cfg.LLM.RetryBackoff)),
	)

	trans := translator.New(llm, desc, config.GetDuration(cfg.LLM.TranslateTimeout))

	guard, err := sqlguard.New(desc)
	if err != nil {
		return fmt.Errorf("creating sql guard: %w", err)
	}

	exec := executor.New(st, cfg.Store.MaxRows)

	answerLLM := llm
	if cfg.LLM.DisableAnswers {
		answerLLM = nil
	}
	form := formatter.New(answerLLM, config.GetDuration(cfg.LLM.AnswerTimeout), log)

	bot := chatbot.New(trans, guard, exec, form, log)

	// -------------------------------------------------------------------------

	api := http.Server{
		Addr: cfg.Web.Host,
		Handler: website.WebAPI(website.Config{
			Bot:         bot,
			Schema:      desc,
			Store:       st,
			Log:         log,
			PreviewRows: cfg.Web.PreviewRows,
		}),
		ReadTimeout:  webReadTimeout,
		WriteTimeout: webWriteTimeout,
		IdleTimeout:  webIdleTimeout,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var g errgroup.Group

	g.Go(func() error {
		log.Info("web api started", zap.String("host", cfg.Web.Host), zap.String("model", cfg.LLM.Model))

		if err := api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web api: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-shutdownCtx.Done()
		log.Info("shutdown started")

		ctx, cancel := context.WithTimeout(context.Background(), webShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("shutdown: %w", err)
		}

		return nil
	})

	return g.Wait()
}
