package service

import (
	"context"
	"strings"

	"github.com/phuslu/log"

	"tickerai/internal/domain"
)

func testLogger() log.Logger {
	return log.Logger{Level: log.PanicLevel}
}

// fakeEmbedder maps texts onto a tiny deterministic vector space. Texts
// mentioning apples point one way, everything else another, so similarity
// ranking in tests is predictable.
type fakeEmbedder struct {
	name string
	err  error
}

func (f *fakeEmbedder) Name() string {
	if f.name != "" {
		return f.name
	}
	return "fake/embedder"
}

func (f *fakeEmbedder) Dimensions() int { return 2 }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if strings.Contains(strings.ToLower(text), "apple") {
		return []float32{1, 0}, nil
	}
	return []float32{0, 1}, nil
}

// fakeProvider returns a canned answer and records the prompts it saw.
type fakeProvider struct {
	answer      string
	err         error
	lastPrompt  string
	lastSystem  string
	generateCnt int
}

func (f *fakeProvider) ModelName() string { return "fake-model" }

func (f *fakeProvider) Ping(ctx context.Context) error { return f.err }

func (f *fakeProvider) Generate(ctx context.Context, prompt, systemPrompt string, opts domain.GenerateOptions) (string, error) {
	f.generateCnt++
	f.lastPrompt = prompt
	f.lastSystem = systemPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// fakeLoader yields a fixed set of documents.
type fakeLoader struct {
	docs []domain.SourceDocument
	err  error
}

func (f *fakeLoader) Load(ctx context.Context) ([]domain.SourceDocument, error) {
	return f.docs, f.err
}
