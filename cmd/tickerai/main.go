package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/phuslu/log"

	"tickerai/internal/chunker"
	"tickerai/internal/config"
	"tickerai/internal/domain"
	"tickerai/internal/embedding"
	"tickerai/internal/loader"
	"tickerai/internal/provider"
	"tickerai/internal/service"
	"tickerai/internal/tui"
	"tickerai/internal/vectorstore"
)

const usage = `Usage:
  tickerai [-config path] setup [-force]        build the vector index from the knowledge directory
  tickerai [-config path] query TICKER QUESTION answer one question and exit
  tickerai [-config path] interactive           start the interactive session
`

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to YAML config (default: ./tickerai.yaml, then ~/.config/tickerai/config.yaml)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.Logger{
		Level:  log.InfoLevel,
		Writer: &log.ConsoleWriter{ColorOutput: true, Writer: os.Stderr},
	}

	var cfg *config.Config
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	app, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to assemble application")
	}

	ctx := context.Background()
	switch args[0] {
	case "setup":
		fs := flag.NewFlagSet("setup", flag.ExitOnError)
		force := fs.Bool("force", false, "drop and rebuild an existing index")
		fs.Parse(args[1:])
		if err := app.setup(ctx, *force); err != nil {
			logger.Fatal().Err(err).Msg("setup failed")
		}
	case "query":
		if len(args) != 3 {
			flag.Usage()
			os.Exit(2)
		}
		app.checkProvider(ctx)
		if err := app.query(ctx, args[1], args[2]); err != nil {
			logger.Fatal().Err(err).Msg("query failed")
		}
	case "interactive":
		app.checkProvider(ctx)
		if err := app.interactive(); err != nil {
			logger.Fatal().Err(err).Msg("interactive session failed")
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// app wires the configured backends into the ingestion and query services.
type app struct {
	cfg          *config.Config
	logger       log.Logger
	store        domain.VectorStore
	provider     domain.Provider
	ingestor     *service.Ingestor
	orchestrator *service.Orchestrator
}

func newApp(cfg *config.Config, logger log.Logger) (*app, error) {
	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	store, err := vectorstore.New(cfg.VectorStore)
	if err != nil {
		return nil, err
	}
	prov, err := provider.New(cfg.LLM)
	if err != nil {
		return nil, err
	}

	ld := loader.New(cfg.Knowledge.Dir, logger)
	ch := chunker.New(cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap)
	ingestor := service.NewIngestor(ld, ch, embedder, store, logger)
	retriever := service.NewRetriever(embedder, store, cfg.Knowledge.TopK, cfg.Knowledge.MaxContextChars, logger)
	orchestrator := service.NewOrchestrator(retriever, prov, cfg.LLM.Provider, domain.GenerateOptions{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}, logger)

	return &app{
		cfg:          cfg,
		logger:       logger,
		store:        store,
		provider:     prov,
		ingestor:     ingestor,
		orchestrator: orchestrator,
	}, nil
}

// checkProvider pings the generation backend up front so a dead backend shows
// up before the user types a question, not after.
func (a *app) checkProvider(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.provider.Ping(pingCtx); err != nil {
		a.logger.Warn().Err(err).Msg("generation provider not reachable")
	}
}

func (a *app) setup(ctx context.Context, force bool) error {
	stats, err := a.ingestor.Run(ctx, force)
	if err != nil {
		return err
	}
	if stats.Skipped {
		fmt.Printf("Index already holds %d chunks. Run setup -force to rebuild.\n", stats.Chunks)
		return nil
	}
	fmt.Printf("Indexed %d documents into %d chunks (embedder %s).\n", stats.Documents, stats.Chunks, stats.Embedder)
	return nil
}

func (a *app) query(ctx context.Context, ticker, question string) error {
	resp, err := a.orchestrator.Answer(ctx, domain.QueryRequest{Ticker: ticker, Question: question})
	if err != nil {
		return err
	}
	fmt.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Printf("\nSources: %s\n", strings.Join(resp.Sources, ", "))
	}
	fmt.Printf("(%s/%s, %s)\n", resp.Provider, resp.Model, resp.Latency.Round(10*time.Millisecond))
	return nil
}

func (a *app) interactive() error {
	p := tea.NewProgram(tui.New(a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Answer implements tui.Backend.
func (a *app) Answer(ctx context.Context, req domain.QueryRequest) (domain.QueryResponse, error) {
	return a.orchestrator.Answer(ctx, req)
}

// IndexCount implements tui.Backend.
func (a *app) IndexCount(ctx context.Context) (int, error) {
	return a.store.Count(ctx)
}

// Refresh implements tui.Backend.
func (a *app) Refresh(ctx context.Context) (int, error) {
	stats, err := a.ingestor.Run(ctx, true)
	if err != nil {
		return 0, err
	}
	return stats.Chunks, nil
}
