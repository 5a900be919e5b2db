package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/commonModels"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

type rawPage struct {
	// Label is empty for formats without page numbers.
	Label   string `json:"label"`
	Content string `json:"content"`
}

var errUnsupportedType = errors.New("unsupported document type")

func getDocType(docPath string) commonModels.DocType {
	switch strings.ToLower(filepath.Ext(docPath)) {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".odt", ".rtf":
		return commonModels.DOCX
	case ".txt", ".md":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}

// IsSupported reports whether a file name has an extension the pipeline can read.
func IsSupported(name string) bool {
	return getDocType(name) != commonModels.ERR
}

func extractText(path string, contentType commonModels.DocType) ([]rawPage, error) {
	switch contentType {
	case commonModels.PDF:
		return extractPDF(path)
	case commonModels.DOCX:
		return extractDocument(path)
	case commonModels.TXT:
		return extractPlainText(path)
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedType, contentType)
	}
}

func extractPDF(path string) ([]rawPage, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []rawPage
	numPages := f.NumPage()
	logger.Debug("extractPDF", "path", path, "pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// one bad page should not lose the document
			logger.Warn("Error parsing page content", "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		pages = append(pages, rawPage{Label: strconv.Itoa(i), Content: content})
	}
	return pages, nil
}

// extractDocument reads .docx, .odt or .rtf as a single page.
func extractDocument(path string) ([]rawPage, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract document: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []rawPage{{Content: text}}, nil
}

func extractPlainText(path string) ([]rawPage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return nil, nil
	}
	return []rawPage{{Content: string(raw)}}, nil
}

// protectExtract bounds a single page; some malformed PDFs make the parser spin.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{"", fmt.Errorf("pdf parser panic: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(config.PDFPageExtractTimeout):
		return "", errors.New("page extraction timed out")
	}
}
