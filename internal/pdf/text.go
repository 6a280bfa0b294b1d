// Package pdf extracts plain text from PDF learning material.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when no page of a document yields text.
var ErrNoText = errors.New("pdf contains no extractable text")

// ExtractText extracts all text from the first maxPages pages of the PDF at
// filePath. maxPages <= 0 means every page.
func ExtractText(filePath string, maxPages int) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer f.Close()

	return pageText(r, maxPages)
}

// ExtractTextReader extracts text from a PDF held in r.
func ExtractTextReader(r io.ReaderAt, size int64, maxPages int) (string, error) {
	pdfReader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}
	return pageText(pdfReader, maxPages)
}

// ExtractBytes extracts text from an in-memory PDF, such as a fetched body.
func ExtractBytes(data []byte, maxPages int) (string, error) {
	return ExtractTextReader(bytes.NewReader(data), int64(len(data)), maxPages)
}

// IsPDF reports whether data starts with the PDF magic header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

func pageText(r *pdf.Reader, maxPages int) (string, error) {
	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue // skip unreadable pages
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	if strings.TrimSpace(builder.String()) == "" {
		return "", ErrNoText
	}
	return builder.String(), nil
}
