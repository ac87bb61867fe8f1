package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"tickerai/internal/domain"
)

const analystPrompt = `You are a financial analyst assistant. Answer the question about the stock using only the provided context. Quote concrete figures when the context contains them. If the context does not cover the question, say so plainly instead of guessing.`

const noContextPrompt = `You are a financial analyst assistant. The knowledge base holds no documents about the requested stock. Tell the user that no information about this ticker is available and that documents can be added to the knowledge directory. Do not invent figures.`

// Orchestrator runs the full question-answering pipeline: retrieve context
// for the ticker, build the prompt, call the generation provider.
type Orchestrator struct {
	retriever    *Retriever
	provider     domain.Provider
	providerName string
	opts         domain.GenerateOptions
	logger       log.Logger
}

func NewOrchestrator(retriever *Retriever, provider domain.Provider, providerName string, opts domain.GenerateOptions, logger log.Logger) *Orchestrator {
	return &Orchestrator{
		retriever:    retriever,
		provider:     provider,
		providerName: providerName,
		opts:         opts,
		logger:       logger,
	}
}

// Answer handles one query. The ticker is normalised to upper case; an empty
// retrieval still produces an answer that states the knowledge gap, while a
// provider failure surfaces as an error distinguishable with errors.Is.
func (o *Orchestrator) Answer(ctx context.Context, req domain.QueryRequest) (domain.QueryResponse, error) {
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	question := strings.TrimSpace(req.Question)
	if ticker == "" {
		return domain.QueryResponse{}, errors.New("ticker must not be empty")
	}
	if question == "" {
		return domain.QueryResponse{}, errors.New("question must not be empty")
	}

	start := time.Now()
	retrieved, err := o.retriever.Retrieve(ctx, ticker, question)
	if err != nil {
		return domain.QueryResponse{}, err
	}

	systemPrompt := analystPrompt
	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion about %s: %s", retrieved.Context, ticker, question)
	if retrieved.Empty() {
		systemPrompt = noContextPrompt
		prompt = fmt.Sprintf("Question about %s: %s", ticker, question)
	}

	answer, err := o.provider.Generate(ctx, prompt, systemPrompt, o.opts)
	if err != nil {
		return domain.QueryResponse{}, fmt.Errorf("generate answer for %s: %w", ticker, err)
	}

	resp := domain.QueryResponse{
		Answer:   answer,
		Sources:  retrieved.Sources,
		Provider: o.providerName,
		Model:    o.provider.ModelName(),
		Latency:  time.Since(start),
	}
	o.logger.Info().Str("ticker", ticker).Int("sources", len(resp.Sources)).Dur("latency", resp.Latency).Msg("answered query")
	return resp, nil
}
