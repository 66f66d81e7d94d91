package services

import (
	"sort"
	"time"

	"backend/models"
)

// Criterion weights for the composite quote score. Fixed business
// constants; they sum to 1.0.
const (
	WeightPrice         = 0.35
	WeightWarranty      = 0.15
	WeightDelivery      = 0.15
	WeightReputation    = 0.20
	WeightProductRating = 0.15
)

// Absolute scales for the reputation and product-rating criteria.
const (
	reclameAquiScale   = 10.0
	productRatingScale = 5.0
)

// MinQuotesForComparison is the smallest group size for which relative
// scoring is defined. Smaller groups yield no result.
const MinQuotesForComparison = 2

// ScoreQuotes computes the five normalized sub-scores and the weighted
// total for every quote in the group. Scores are relative to the group:
// price and delivery are min-max normalized, warranty is normalized
// against the group maximum, reputation and product rating against their
// absolute scales.
//
// Returns nil when the group has fewer than two quotes, since relative
// scoring is meaningless for a single offer.
//
// Degenerate groups never divide by zero: identical prices score 100 for
// everyone, while identical delivery times and all-zero warranties score 0
// for everyone. The asymmetry between the price branch and the
// delivery/warranty branches is intentional behavior carried over from the
// original comparison screens; see DESIGN.md before changing it.
func ScoreQuotes(quotes []models.Quote) []models.ScoredQuote {
	if len(quotes) < MinQuotesForComparison {
		return nil
	}

	minPrice, maxPrice := quotes[0].TotalAmount, quotes[0].TotalAmount
	minDelivery, maxDelivery := quotes[0].DeliveryTime, quotes[0].DeliveryTime
	maxWarranty := quotes[0].WarrantyMonths
	for _, q := range quotes[1:] {
		if q.TotalAmount < minPrice {
			minPrice = q.TotalAmount
		}
		if q.TotalAmount > maxPrice {
			maxPrice = q.TotalAmount
		}
		if q.DeliveryTime < minDelivery {
			minDelivery = q.DeliveryTime
		}
		if q.DeliveryTime > maxDelivery {
			maxDelivery = q.DeliveryTime
		}
		if q.WarrantyMonths > maxWarranty {
			maxWarranty = q.WarrantyMonths
		}
	}

	priceRange := maxPrice - minPrice
	warrantyDen := maxWarranty
	if warrantyDen < 1 {
		warrantyDen = 1
	}
	deliveryDen := maxDelivery - minDelivery
	if deliveryDen < 1 {
		deliveryDen = 1
	}

	scored := make([]models.ScoredQuote, 0, len(quotes))
	for _, q := range quotes {
		var s models.QuoteScores

		if priceRange == 0 {
			// All offers identically priced: ties are not penalized.
			s.Price = 100
		} else {
			s.Price = 100 * (maxPrice - q.TotalAmount) / priceRange
		}
		s.Warranty = 100 * float64(q.WarrantyMonths) / float64(warrantyDen)
		s.Delivery = 100 * float64(maxDelivery-q.DeliveryTime) / float64(deliveryDen)
		s.Reputation = 100 * q.ReclameAquiScore / reclameAquiScale
		s.ProductRating = 100 * q.ProductRating / productRatingScale

		s.Total = WeightPrice*s.Price +
			WeightWarranty*s.Warranty +
			WeightDelivery*s.Delivery +
			WeightReputation*s.Reputation +
			WeightProductRating*s.ProductRating

		scored = append(scored, models.ScoredQuote{Quote: q, Scores: s})
	}
	return scored
}

// RankQuotes orders scored quotes by total score, best first. The sort is
// stable so quotes with equal totals keep their input order and the output
// is deterministic. The input slice is not modified.
func RankQuotes(scored []models.ScoredQuote) []models.ScoredQuote {
	ranked := make([]models.ScoredQuote, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Scores.Total > ranked[j].Scores.Total
	})
	return ranked
}

// CompareQuotes scores and ranks a group's quotes and identifies the
// recommended offer. Returns nil when the group cannot be compared.
func CompareQuotes(group models.BudgetGroup) *models.ComparisonResult {
	ranked := RankQuotes(ScoreQuotes(group.Quotes))
	if len(ranked) == 0 {
		return nil
	}
	return &models.ComparisonResult{
		GroupID:             group.GroupID,
		Title:               group.Title,
		RecommendedQuoteID:  ranked[0].ID,
		RecommendedProvider: ranked[0].Provider,
		Quotes:              ranked,
		GeneratedAt:         time.Now(),
	}
}
