package services

import (
	"context"
	"testing"
	"time"

	"backend/models"
)

func TestRetryBackoff(t *testing.T) {
	tests := []struct {
		name      string
		attempt   int
		wantDelay time.Duration
		wantRetry bool
	}{
		{"first attempt backs off", 1, analysisRetryBackoff, true},
		{"middle attempt backs off", analysisMaxRetries - 1, analysisRetryBackoff, true},
		{"final attempt fails immediately", analysisMaxRetries, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay, retry := retryBackoff(tt.attempt)
			if retry != tt.wantRetry {
				t.Errorf("retryBackoff(%d) retry = %v, want %v", tt.attempt, retry, tt.wantRetry)
			}
			if delay != tt.wantDelay {
				t.Errorf("retryBackoff(%d) delay = %v, want %v", tt.attempt, delay, tt.wantDelay)
			}
		})
	}
}

func TestAnalyzeDocumentRejectsEmptyText(t *testing.T) {
	as := NewAnalysisService(nil)
	doc := &models.Document{ID: 1, Title: "empty"}

	if _, err := as.AnalyzeDocument(context.Background(), doc); err == nil {
		t.Fatal("expected an error for a document without extracted text")
	}
}
