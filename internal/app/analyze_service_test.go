package app

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzePDF_UnsupportedMode(t *testing.T) {
	service := NewAnalyzeService(&stubGenerator{})

	_, err := service.AnalyzePDF(context.Background(), strings.NewReader("%PDF-1.4"), "translate")
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestAnalyzePDF_UnreadableDocument(t *testing.T) {
	service := NewAnalyzeService(&stubGenerator{})

	_, err := service.AnalyzePDF(context.Background(), strings.NewReader("not a pdf at all"), AnalyzeModeSummary)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedMode)
}

func TestAnalyzePDF_CleansUpTempFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)

	service := NewAnalyzeService(&stubGenerator{})
	_, err := service.AnalyzePDF(context.Background(), strings.NewReader("garbage"), AnalyzeModeSummary)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged upload should be removed on failure")
}

func TestBuildAnalysisPrompt(t *testing.T) {
	summary := buildAnalysisPrompt(AnalyzeModeSummary, "policy text")
	assert.Contains(t, summary, "5 clear bullet points")
	assert.Contains(t, summary, "policy text")

	keywords := buildAnalysisPrompt(AnalyzeModeKeywords, "policy text")
	assert.Contains(t, keywords, "10 most important keywords")
	assert.Contains(t, keywords, "comma-separated")
}
