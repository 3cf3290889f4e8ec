package pricing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"topar_market/internal/domain/service/pricing"
)

func TestSuggest(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	svc := pricing.NewService()

	suggestion, err := svc.Suggest(ctx, pricing.SuggestParams{Category: "electronics", Title: "iPhone 15"})
	rq.NoError(err)

	rq.Positive(suggestion.SuggestedPrice)
	rq.LessOrEqual(suggestion.Min, suggestion.SuggestedPrice)
	rq.GreaterOrEqual(suggestion.Max, suggestion.SuggestedPrice)
	rq.InDelta(0.85, suggestion.Confidence, 0.001)
	rq.Contains(suggestion.Factors, "category average")
	rq.Contains(suggestion.Factors, "title keywords")
}

func TestSuggestDeterministic(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	svc := pricing.NewService()

	first, err := svc.Suggest(ctx, pricing.SuggestParams{Category: "Electronics", Title: "iPhone 15"})
	rq.NoError(err)

	second, err := svc.Suggest(ctx, pricing.SuggestParams{Category: "electronics", Title: "iPhone 15"})
	rq.NoError(err)

	rq.Equal(first.SuggestedPrice, second.SuggestedPrice)
	rq.Equal(first.Min, second.Min)
	rq.Equal(first.Max, second.Max)
}

func TestSuggestUnknownCategory(t *testing.T) {
	rq := require.New(t)

	svc := pricing.NewService()

	suggestion, err := svc.Suggest(context.Background(), pricing.SuggestParams{Category: "antiques"})
	rq.NoError(err)
	rq.Positive(suggestion.SuggestedPrice)
	rq.InDelta(0.5, suggestion.Confidence, 0.001)
	rq.Contains(suggestion.Factors, "fallback profile")
}
