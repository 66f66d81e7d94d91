package services

import (
	"math"
	"testing"

	"backend/models"
)

const scoreTolerance = 1e-6

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= scoreTolerance
}

func TestScoreQuotesNotebookGroup(t *testing.T) {
	// Sample group from the budget comparison screens.
	quotes := []models.Quote{
		{ID: 1, Provider: "Dell Computadores", TotalAmount: 4599.90, DeliveryTime: 10, WarrantyMonths: 12, ReclameAquiScore: 7.8, ProductRating: 4.5},
		{ID: 2, Provider: "Magazine Luiza", TotalAmount: 4799.90, DeliveryTime: 15, WarrantyMonths: 12, ReclameAquiScore: 6.5, ProductRating: 4.5},
		{ID: 3, Provider: "Amazon Brasil", TotalAmount: 4499.90, DeliveryTime: 3, WarrantyMonths: 12, ReclameAquiScore: 8.2, ProductRating: 4.5},
	}

	scored := ScoreQuotes(quotes)
	if len(scored) != 3 {
		t.Fatalf("ScoreQuotes returned %d quotes, want 3", len(scored))
	}

	byProvider := map[string]models.QuoteScores{}
	for _, sq := range scored {
		byProvider[sq.Provider] = sq.Scores
	}

	amazon := byProvider["Amazon Brasil"]
	if !almostEqual(amazon.Price, 100) {
		t.Errorf("Amazon price score = %v, want 100 (lowest price)", amazon.Price)
	}
	if !almostEqual(amazon.Delivery, 100) {
		t.Errorf("Amazon delivery score = %v, want 100 (shortest delivery)", amazon.Delivery)
	}

	// Warranty is tied at the group maximum, so everyone gets 100.
	for provider, s := range byProvider {
		if !almostEqual(s.Warranty, 100) {
			t.Errorf("%s warranty score = %v, want 100", provider, s.Warranty)
		}
	}

	// Reputation ordering follows reclameAquiScore directly.
	if !(byProvider["Amazon Brasil"].Reputation > byProvider["Dell Computadores"].Reputation) {
		t.Errorf("Amazon reputation %v should exceed Dell %v",
			byProvider["Amazon Brasil"].Reputation, byProvider["Dell Computadores"].Reputation)
	}
	if !(byProvider["Dell Computadores"].Reputation > byProvider["Magazine Luiza"].Reputation) {
		t.Errorf("Dell reputation %v should exceed Magazine Luiza %v",
			byProvider["Dell Computadores"].Reputation, byProvider["Magazine Luiza"].Reputation)
	}

	ranked := RankQuotes(scored)
	if ranked[0].Provider != "Amazon Brasil" {
		t.Errorf("ranked winner = %s, want Amazon Brasil", ranked[0].Provider)
	}
}

func TestScoreQuotesBounds(t *testing.T) {
	// Spread of realistic and extreme values; every sub-score and the
	// total must stay inside [0,100].
	quotes := []models.Quote{
		{ID: 1, Provider: "A", TotalAmount: 0, DeliveryTime: 0, WarrantyMonths: 0, ReclameAquiScore: 0, ProductRating: 0},
		{ID: 2, Provider: "B", TotalAmount: 99999.99, DeliveryTime: 365, WarrantyMonths: 120, ReclameAquiScore: 10, ProductRating: 5},
		{ID: 3, Provider: "C", TotalAmount: 49.90, DeliveryTime: 7, WarrantyMonths: 6, ReclameAquiScore: 5.5, ProductRating: 3.2},
	}

	for _, sq := range ScoreQuotes(quotes) {
		for name, v := range map[string]float64{
			"price":          sq.Scores.Price,
			"warranty":       sq.Scores.Warranty,
			"delivery":       sq.Scores.Delivery,
			"reputation":     sq.Scores.Reputation,
			"product_rating": sq.Scores.ProductRating,
			"total":          sq.Scores.Total,
		} {
			if v < -scoreTolerance || v > 100+scoreTolerance {
				t.Errorf("quote %s: %s score %v outside [0,100]", sq.Provider, name, v)
			}
		}
	}
}

func TestScoreQuotesPriceMonotonicity(t *testing.T) {
	quotes := []models.Quote{
		{ID: 1, Provider: "Cheap", TotalAmount: 100, DeliveryTime: 5, WarrantyMonths: 12, ReclameAquiScore: 7, ProductRating: 4},
		{ID: 2, Provider: "Mid", TotalAmount: 150, DeliveryTime: 5, WarrantyMonths: 12, ReclameAquiScore: 7, ProductRating: 4},
		{ID: 3, Provider: "Expensive", TotalAmount: 200, DeliveryTime: 5, WarrantyMonths: 12, ReclameAquiScore: 7, ProductRating: 4},
	}

	scored := ScoreQuotes(quotes)
	if !(scored[0].Scores.Price > scored[1].Scores.Price && scored[1].Scores.Price > scored[2].Scores.Price) {
		t.Errorf("price scores not strictly decreasing with price: %v, %v, %v",
			scored[0].Scores.Price, scored[1].Scores.Price, scored[2].Scores.Price)
	}
	if !almostEqual(scored[0].Scores.Price, 100) || !almostEqual(scored[2].Scores.Price, 0) {
		t.Errorf("price extremes = %v and %v, want 100 and 0", scored[0].Scores.Price, scored[2].Scores.Price)
	}
}

func TestScoreQuotesDeliveryMonotonicity(t *testing.T) {
	quotes := []models.Quote{
		{ID: 1, Provider: "Fast", TotalAmount: 100, DeliveryTime: 2, WarrantyMonths: 12, ReclameAquiScore: 7, ProductRating: 4},
		{ID: 2, Provider: "Slow", TotalAmount: 100, DeliveryTime: 20, WarrantyMonths: 12, ReclameAquiScore: 7, ProductRating: 4},
	}

	scored := ScoreQuotes(quotes)
	if !(scored[0].Scores.Delivery > scored[1].Scores.Delivery) {
		t.Errorf("shorter delivery should score higher: %v vs %v",
			scored[0].Scores.Delivery, scored[1].Scores.Delivery)
	}
	if !almostEqual(scored[0].Scores.Delivery, 100) || !almostEqual(scored[1].Scores.Delivery, 0) {
		t.Errorf("delivery extremes = %v and %v, want 100 and 0",
			scored[0].Scores.Delivery, scored[1].Scores.Delivery)
	}
}

func TestScoreQuotesDegenerateGroups(t *testing.T) {
	tests := []struct {
		name   string
		quotes []models.Quote
		check  func(t *testing.T, scored []models.ScoredQuote)
	}{
		{
			name: "identical prices score 100",
			quotes: []models.Quote{
				{ID: 1, Provider: "A", TotalAmount: 500, DeliveryTime: 3, WarrantyMonths: 6},
				{ID: 2, Provider: "B", TotalAmount: 500, DeliveryTime: 9, WarrantyMonths: 6},
			},
			check: func(t *testing.T, scored []models.ScoredQuote) {
				for _, sq := range scored {
					if !almostEqual(sq.Scores.Price, 100) {
						t.Errorf("%s price score = %v, want 100 on price tie", sq.Provider, sq.Scores.Price)
					}
				}
			},
		},
		{
			name: "identical delivery times score 0",
			quotes: []models.Quote{
				{ID: 1, Provider: "A", TotalAmount: 400, DeliveryTime: 5, WarrantyMonths: 6},
				{ID: 2, Provider: "B", TotalAmount: 500, DeliveryTime: 5, WarrantyMonths: 6},
			},
			check: func(t *testing.T, scored []models.ScoredQuote) {
				for _, sq := range scored {
					if !almostEqual(sq.Scores.Delivery, 0) {
						t.Errorf("%s delivery score = %v, want 0 on delivery tie", sq.Provider, sq.Scores.Delivery)
					}
				}
			},
		},
		{
			name: "all-zero warranties score 0",
			quotes: []models.Quote{
				{ID: 1, Provider: "A", TotalAmount: 400, DeliveryTime: 3, WarrantyMonths: 0},
				{ID: 2, Provider: "B", TotalAmount: 500, DeliveryTime: 9, WarrantyMonths: 0},
			},
			check: func(t *testing.T, scored []models.ScoredQuote) {
				for _, sq := range scored {
					if !almostEqual(sq.Scores.Warranty, 0) {
						t.Errorf("%s warranty score = %v, want 0 when no one offers warranty", sq.Provider, sq.Scores.Warranty)
					}
				}
			},
		},
		{
			name: "warranty tied at nonzero maximum scores 100",
			quotes: []models.Quote{
				{ID: 1, Provider: "A", TotalAmount: 400, DeliveryTime: 3, WarrantyMonths: 24},
				{ID: 2, Provider: "B", TotalAmount: 500, DeliveryTime: 9, WarrantyMonths: 24},
			},
			check: func(t *testing.T, scored []models.ScoredQuote) {
				for _, sq := range scored {
					if !almostEqual(sq.Scores.Warranty, 100) {
						t.Errorf("%s warranty score = %v, want 100 at shared maximum", sq.Provider, sq.Scores.Warranty)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scored := ScoreQuotes(tt.quotes)
			if len(scored) != len(tt.quotes) {
				t.Fatalf("got %d scored quotes, want %d", len(scored), len(tt.quotes))
			}
			tt.check(t, scored)
		})
	}
}

func TestScoreQuotesWeightedTotal(t *testing.T) {
	quotes := []models.Quote{
		{ID: 1, Provider: "A", TotalAmount: 4599.90, DeliveryTime: 10, WarrantyMonths: 12, ReclameAquiScore: 7.8, ProductRating: 4.5},
		{ID: 2, Provider: "B", TotalAmount: 4799.90, DeliveryTime: 15, WarrantyMonths: 6, ReclameAquiScore: 6.5, ProductRating: 3.0},
		{ID: 3, Provider: "C", TotalAmount: 4499.90, DeliveryTime: 3, WarrantyMonths: 24, ReclameAquiScore: 8.2, ProductRating: 4.8},
	}

	for _, sq := range ScoreQuotes(quotes) {
		want := 0.35*sq.Scores.Price +
			0.15*sq.Scores.Warranty +
			0.15*sq.Scores.Delivery +
			0.20*sq.Scores.Reputation +
			0.15*sq.Scores.ProductRating
		if !almostEqual(sq.Scores.Total, want) {
			t.Errorf("quote %s: total = %v, want weighted sum %v", sq.Provider, sq.Scores.Total, want)
		}
	}
}

func TestScoreQuotesInsufficientGroup(t *testing.T) {
	if got := ScoreQuotes(nil); got != nil {
		t.Errorf("ScoreQuotes(nil) = %v, want nil", got)
	}
	single := []models.Quote{{ID: 1, Provider: "Lonely", TotalAmount: 100}}
	if got := ScoreQuotes(single); got != nil {
		t.Errorf("ScoreQuotes(single) = %v, want nil", got)
	}
}

func TestRankQuotesDeterministic(t *testing.T) {
	quotes := []models.Quote{
		{ID: 1, Provider: "A", TotalAmount: 100, DeliveryTime: 5, WarrantyMonths: 12, ReclameAquiScore: 7, ProductRating: 4},
		{ID: 2, Provider: "B", TotalAmount: 100, DeliveryTime: 5, WarrantyMonths: 12, ReclameAquiScore: 7, ProductRating: 4},
		{ID: 3, Provider: "C", TotalAmount: 80, DeliveryTime: 2, WarrantyMonths: 24, ReclameAquiScore: 9, ProductRating: 5},
	}

	scored := ScoreQuotes(quotes)
	first := RankQuotes(scored)
	second := RankQuotes(scored)

	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("ranking not deterministic: run 1 position %d = %d, run 2 = %d", i, first[i].ID, second[i].ID)
		}
	}

	// A and B are identical; the stable sort must keep A before B.
	if first[0].Provider != "C" {
		t.Errorf("winner = %s, want C", first[0].Provider)
	}
	if first[1].Provider != "A" || first[2].Provider != "B" {
		t.Errorf("tied quotes reordered: got %s then %s, want A then B", first[1].Provider, first[2].Provider)
	}

	// RankQuotes must not reorder its input.
	if scored[0].Provider != "A" {
		t.Errorf("input slice mutated, first element now %s", scored[0].Provider)
	}
}

func TestCompareQuotes(t *testing.T) {
	group := models.BudgetGroup{
		GroupID: "notebook-dell-inspiron-group",
		Title:   "Notebook Dell Inspiron 15",
		Quotes: []models.Quote{
			{ID: 1, Provider: "Dell Computadores", TotalAmount: 4599.90, DeliveryTime: 10, WarrantyMonths: 12, ReclameAquiScore: 7.8, ProductRating: 4.5},
			{ID: 2, Provider: "Magazine Luiza", TotalAmount: 4799.90, DeliveryTime: 15, WarrantyMonths: 12, ReclameAquiScore: 6.5, ProductRating: 4.5},
			{ID: 3, Provider: "Amazon Brasil", TotalAmount: 4499.90, DeliveryTime: 3, WarrantyMonths: 12, ReclameAquiScore: 8.2, ProductRating: 4.5},
		},
	}

	result := CompareQuotes(group)
	if result == nil {
		t.Fatal("CompareQuotes returned nil for a comparable group")
	}
	if result.RecommendedProvider != "Amazon Brasil" {
		t.Errorf("recommended provider = %s, want Amazon Brasil", result.RecommendedProvider)
	}
	if result.RecommendedQuoteID != 3 {
		t.Errorf("recommended quote id = %d, want 3", result.RecommendedQuoteID)
	}
	if len(result.Quotes) != 3 {
		t.Errorf("result contains %d quotes, want 3", len(result.Quotes))
	}
	if result.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set on comparison result")
	}

	group.Quotes = group.Quotes[:1]
	if res := CompareQuotes(group); res != nil {
		t.Errorf("CompareQuotes on single-quote group = %v, want nil", res)
	}
}
