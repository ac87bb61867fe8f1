package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPDF pulls text page by page with pdfcpu and joins the pages with
// page-break markers, so provenance down to the page survives chunking.
func extractPDF(path string) (string, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	pageCount := pdfCtx.PageCount
	if pageCount == 0 {
		return "", fmt.Errorf("pdf has no pages")
	}

	outDir, err := os.MkdirTemp("", "tickerai-pdf-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("extract pdf content: %w", err)
	}

	pages, err := readPageFiles(outDir)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, page := range pages {
		if i > 0 {
			fmt.Fprintf(&b, "\n\n--- Page %d ---\n\n", page.number)
		}
		b.WriteString(page.text)
	}
	return b.String(), nil
}

type pdfPage struct {
	number int
	text   string
}

// readPageFiles collects the per-page content files pdfcpu wrote and orders
// them by page number parsed from the filename.
func readPageFiles(dir string) ([]pdfPage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var pages []pdfPage
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		var num int
		name := e.Name()
		if _, err := fmt.Sscanf(name, "page_%d", &num); err != nil {
			// pdfcpu names extracted content <basename>_Content_page_<n>.txt
			if idx := strings.LastIndex(name, "page_"); idx >= 0 {
				fmt.Sscanf(name[idx:], "page_%d", &num)
			}
		}
		if num == 0 {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		pages = append(pages, pdfPage{number: num, text: string(content)})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].number < pages[j].number })
	return pages, nil
}
