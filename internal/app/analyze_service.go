package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"hr-assistant/internal/ai"
	"hr-assistant/internal/pkg/pdfextract"
)

var (
	ErrUnsupportedMode = errors.New("unsupported analysis mode")
	ErrEmptyDocument   = errors.New("document has no extractable text")
)

const (
	AnalyzeModeSummary  = "summary"
	AnalyzeModeKeywords = "keywords"

	// Generation input is capped to keep the prompt inside model limits.
	maxAnalysisRunes = 15000
)

// Generator produces a completion for a prompt; satisfied by rag.ModelClient.
type Generator interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

// AnalyzeService turns one uploaded PDF into either a 5-bullet summary or a
// 10-item keyword list via the generation model.
type AnalyzeService struct {
	generator Generator
}

func NewAnalyzeService(generator Generator) *AnalyzeService {
	return &AnalyzeService{generator: generator}
}

type AnalyzeResult struct {
	Mode   string `json:"mode"`
	Output string `json:"output"`
}

// AnalyzePDF stages the upload in a temp file, extracts its text, and prompts
// the model. The temp file is removed on every exit path.
func (s *AnalyzeService) AnalyzePDF(ctx context.Context, upload io.Reader, mode string) (*AnalyzeResult, error) {
	if mode != AnalyzeModeSummary && mode != AnalyzeModeKeywords {
		return nil, ErrUnsupportedMode
	}

	tmp, err := os.CreateTemp("", "hr-analyze-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file failed: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, upload); err != nil {
		return nil, fmt.Errorf("stage upload failed: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind temp file failed: %w", err)
	}

	text, err := pdfextract.ExtractText(tmp)
	if err != nil {
		return nil, fmt.Errorf("extract pdf text failed: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyDocument
	}
	if runes := []rune(text); len(runes) > maxAnalysisRunes {
		text = string(runes[:maxAnalysisRunes])
	}

	output, err := s.generator.Complete(ctx, []ai.ChatMessage{
		{Role: "user", Content: buildAnalysisPrompt(mode, text)},
	})
	if err != nil {
		return nil, err
	}

	return &AnalyzeResult{Mode: mode, Output: strings.TrimSpace(output)}, nil
}

func buildAnalysisPrompt(mode, text string) string {
	switch mode {
	case AnalyzeModeKeywords:
		return "Extract the 10 most important keywords or topics from this text as a comma-separated list:\n\n" + text
	default:
		return "Summarize this document in 5 clear bullet points:\n\n" + text
	}
}
