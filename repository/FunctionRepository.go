package repository

import (
	"backend/models"
	"database/sql"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

func GenerateRandomNumber() int {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	return rng.Intn(900000000) + 100000000
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateGroupID derives a url-safe group identifier from the item title,
// e.g. "Notebook Dell Inspiron" -> "notebook-dell-inspiron-group".
func GenerateGroupID(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fmt.Sprintf("group-%d", GenerateRandomNumber())
	}
	return slug + "-group"
}

// FetchBudgetGroup loads a budget group and all of its quotes.
// FetchBudgetGroup loads a budget group with its quotes already attached;
// callers must not fetch the quotes again.
func FetchBudgetGroup(db *sql.DB, groupID string) (*models.BudgetGroup, error) {
	query := `
		SELECT group_id, title, category, status, user_id, created_at, updated_at
		FROM budget_groups
		WHERE group_id = $1
	`
	var group models.BudgetGroup
	err := db.QueryRow(query, groupID).Scan(
		&group.GroupID,
		&group.Title,
		&group.Category,
		&group.Status,
		&group.UserID,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch budget group %s: %w", groupID, err)
	}

	quotes, err := FetchQuotesByGroup(db, groupID)
	if err != nil {
		return nil, err
	}
	group.Quotes = quotes

	return &group, nil
}

// FetchQuotesByGroup loads every quote belonging to a budget group in
// insertion order, which keeps the relative ranking deterministic for
// quotes with equal scores.
func FetchQuotesByGroup(db *sql.DB, groupID string) ([]models.Quote, error) {
	query := `
		SELECT id, group_id, provider, total_amount, warranty_months, delivery_time,
		       reclame_aqui_score, product_rating, risk_factors,
		       COALESCE(document_id, 0), created_at, updated_at
		FROM quotes
		WHERE group_id = $1
		ORDER BY id
	`
	rows, err := db.Query(query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quotes for group %s: %w", groupID, err)
	}
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		var quote models.Quote
		if err := rows.Scan(
			&quote.ID,
			&quote.GroupID,
			&quote.Provider,
			&quote.TotalAmount,
			&quote.WarrantyMonths,
			&quote.DeliveryTime,
			&quote.ReclameAquiScore,
			&quote.ProductRating,
			&quote.RiskFactors,
			&quote.DocumentID,
			&quote.CreatedAt,
			&quote.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, quote)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return quotes, nil
}

// FetchDocument loads a document row by id.
func FetchDocument(db *sql.DB, documentID int) (*models.Document, error) {
	query := `
		SELECT id, user_id, title, doc_type, file_name, file_path, file_size,
		       COALESCE(content_text, ''), status, created_at, updated_at,
		       COALESCE(group_id, '')
		FROM documents
		WHERE id = $1
	`
	var doc models.Document
	err := db.QueryRow(query, documentID).Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Title,
		&doc.DocType,
		&doc.FileName,
		&doc.FilePath,
		&doc.FileSize,
		&doc.ContentText,
		&doc.Status,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.GroupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document %d: %w", documentID, err)
	}
	return &doc, nil
}
