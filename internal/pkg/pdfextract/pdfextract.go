// Package pdfextract pulls plain text out of PDF documents.
package pdfextract

import (
	"bytes"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
)

// ExtractText buffers r in memory and extracts the document's plain text.
// A PDF with no extractable text yields an empty string and no error.
func ExtractText(r io.Reader) (string, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(buf) == 0 {
		return "", nil
	}
	return extract(bytes.NewReader(buf), int64(len(buf)))
}

// ExtractFile extracts plain text from the PDF at path, reading it in place
// rather than buffering the whole file.
func ExtractFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if info.Size() == 0 {
		return "", nil
	}
	return extract(f, info.Size())
}

func extract(r io.ReaderAt, size int64) (string, error) {
	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", err
	}
	plain, err := doc.GetPlainText()
	if err != nil {
		return "", err
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(text), nil
}
