package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"backend/models"
	"backend/storage"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

const (
	analysisMaxRetries   = 3
	analysisTimeout      = 60 * time.Second
	analysisRetryBackoff = 3 * time.Second
)

var errEmptyCompletion = errors.New("provider returned an empty completion")

// retryBackoff returns the delay before the next analysis attempt, or false
// after the final one so the caller fails immediately instead of sleeping.
func retryBackoff(attempt int) (time.Duration, bool) {
	if attempt >= analysisMaxRetries {
		return 0, false
	}
	return analysisRetryBackoff, true
}

const analysisSystemPrompt = `You are a document analysis assistant for a document management platform.
Given the text of a user document (invoice, vendor quote, contract or report), produce:
1. A short summary (2-3 sentences) of what the document is and its key amounts and dates.
2. A list of noteworthy points or risks, one per line, prefixed with "- ".
Answer in the language the document is written in.`

// AnalysisService runs AI analysis of uploaded documents against the
// admin-configured provider.
type AnalysisService struct {
	db *sql.DB
}

// NewAnalysisService creates a new analysis service instance
func NewAnalysisService(db *sql.DB) *AnalysisService {
	return &AnalysisService{db: db}
}

// providerConfig resolves the AI endpoint to use: the provider marked
// active in the admin console, or the OPENAI_* environment variables when
// none is configured.
func (as *AnalysisService) providerConfig() (*models.AIProvider, error) {
	provider, err := storage.GetActiveAIProvider(as.db)
	if err == nil {
		return provider, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to load AI provider: %v", err)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("no active AI provider configured and OPENAI_API_KEY is not set")
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &models.AIProvider{
		Name:    "environment",
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		APIKey:  apiKey,
		Model:   model,
	}, nil
}

func (as *AnalysisService) newClient(provider *models.AIProvider) openai.Client {
	opts := []option.RequestOption{option.WithAPIKey(provider.APIKey)}
	if provider.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(provider.BaseURL))
	}
	return openai.NewClient(opts...)
}

// AnalyzeDocument sends the document text to the configured AI provider,
// stores the analysis row and flips the document status to analyzed.
// Failed requests are retried a few times before the document is marked
// failed.
func (as *AnalysisService) AnalyzeDocument(ctx context.Context, doc *models.Document) (*models.DocumentAnalysis, error) {
	if doc.ContentText == "" {
		return nil, fmt.Errorf("document %d has no extracted text to analyze", doc.ID)
	}

	provider, err := as.providerConfig()
	if err != nil {
		return nil, err
	}
	client := as.newClient(provider)

	var content string
	for attempt := 1; attempt <= analysisMaxRetries; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, analysisTimeout)
		chatCompletion, reqErr := client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(analysisSystemPrompt),
				openai.UserMessage(doc.ContentText),
			},
			Model:       shared.ChatModel(provider.Model),
			Temperature: openai.Float(0.2),
		})
		cancel()

		if reqErr == nil && len(chatCompletion.Choices) > 0 {
			content = chatCompletion.Choices[0].Message.Content
			break
		}

		if reqErr == nil {
			reqErr = errEmptyCompletion
		}
		err = reqErr
		log.Printf("AI analysis attempt %d/%d for document %d failed: %v", attempt, analysisMaxRetries, doc.ID, reqErr)
		delay, retry := retryBackoff(attempt)
		if !retry {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if content == "" {
		as.markDocumentFailed(doc.ID)
		return nil, fmt.Errorf("AI analysis failed for document %d: %v", doc.ID, err)
	}

	analysis := &models.DocumentAnalysis{
		DocumentID: doc.ID,
		ProviderID: provider.ID,
		Model:      provider.Model,
		Summary:    content,
		CreatedAt:  time.Now(),
	}

	insertQuery := `
		INSERT INTO document_analysis (document_id, provider_id, model, summary, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if err := as.db.QueryRow(insertQuery,
		analysis.DocumentID, analysis.ProviderID, analysis.Model,
		analysis.Summary, analysis.CreatedAt,
	).Scan(&analysis.ID); err != nil {
		return nil, fmt.Errorf("failed to store analysis for document %d: %v", doc.ID, err)
	}

	_, err = as.db.Exec(`UPDATE documents SET status = 'analyzed', analyzed_at = NOW(), updated_at = NOW() WHERE id = $1`, doc.ID)
	if err != nil {
		log.Printf("Failed to update document %d status: %v", doc.ID, err)
	}

	return analysis, nil
}

func (as *AnalysisService) markDocumentFailed(documentID int) {
	_, err := as.db.Exec(`UPDATE documents SET status = 'failed', updated_at = NOW() WHERE id = $1`, documentID)
	if err != nil {
		log.Printf("Failed to mark document %d as failed: %v", documentID, err)
	}
}
