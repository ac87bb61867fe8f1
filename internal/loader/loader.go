package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/phuslu/log"

	"tickerai/internal/domain"
)

// Loader reads the knowledge directory and normalises every supported file
// into a SourceDocument. A file that cannot be read or parsed is skipped with
// a warning; it never aborts the batch.
type Loader struct {
	dir    string
	logger log.Logger
}

// New creates a loader over the given corpus directory.
func New(dir string, logger log.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// Load walks the corpus directory and returns one SourceDocument per
// readable supported file. A missing directory is an error; individual bad
// files are not.
func (l *Loader) Load(ctx context.Context) ([]domain.SourceDocument, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		return nil, fmt.Errorf("knowledge directory %s: %w", l.dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("knowledge directory %s: not a directory", l.dir)
	}

	var docs []domain.SourceDocument
	err = filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		format, ok := formatByExt(filepath.Ext(path))
		if !ok {
			return nil
		}
		content, err := l.extract(path, format)
		if err != nil {
			l.logger.Warn().Str("file", path).Err(err).Msg("skipping unreadable document")
			return nil
		}
		if strings.TrimSpace(content) == "" {
			l.logger.Warn().Str("file", path).Msg("skipping document with no extractable text")
			return nil
		}
		rel, err := filepath.Rel(l.dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		doc := domain.SourceDocument{
			Path:     path,
			RelPath:  filepath.ToSlash(rel),
			Format:   format,
			Ticker:   InferTicker(filepath.Base(path)),
			Content:  content,
			LoadedAt: time.Now(),
		}
		l.logger.Info().Str("file", doc.RelPath).Str("ticker", doc.Ticker).Msg("loaded document")
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (l *Loader) extract(path, format string) (string, error) {
	switch format {
	case "pdf":
		return extractPDF(path)
	case "json":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return flattenJSON(data)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func formatByExt(ext string) (string, bool) {
	switch strings.ToLower(ext) {
	case ".txt":
		return "text", true
	case ".md":
		return "markdown", true
	case ".json":
		return "json", true
	case ".pdf":
		return "pdf", true
	default:
		return "", false
	}
}

// InferTicker derives the ticker tag from a filename. A prefix of one to six
// uppercase ASCII letters before the first underscore is taken as the ticker
// (AAPL_info.md -> AAPL); anything else is tagged GENERAL and stays
// retrievable for every query.
func InferTicker(filename string) string {
	prefix, _, found := strings.Cut(filename, "_")
	if !found {
		return domain.TickerGeneral
	}
	if len(prefix) < 1 || len(prefix) > 6 {
		return domain.TickerGeneral
	}
	for _, r := range prefix {
		if r < 'A' || r > 'Z' {
			return domain.TickerGeneral
		}
	}
	return prefix
}

// flattenJSON renders arbitrary JSON as sorted "key: value" lines with
// dotted nested keys and bracketed array indices, so structured records
// become embeddable prose-like text deterministically.
func flattenJSON(data []byte) (string, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return "", fmt.Errorf("parse json: %w", err)
	}
	lines := flattenValue("", v)
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

func flattenValue(prefix string, v any) []string {
	switch val := v.(type) {
	case map[string]any:
		var lines []string
		for k, sub := range val {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			lines = append(lines, flattenValue(key, sub)...)
		}
		return lines
	case []any:
		var lines []string
		for i, sub := range val {
			lines = append(lines, flattenValue(fmt.Sprintf("%s[%d]", prefix, i), sub)...)
		}
		return lines
	case nil:
		return []string{prefix + ": null"}
	default:
		return []string{fmt.Sprintf("%s: %v", prefix, val)}
	}
}
