package server

import (
	"context"
	"fmt"
	"net/http"

	"topar_market/internal/domain/service/pricing"
	"topar_market/pkg/httpx/reply"
	"topar_market/pkg/httpx/req"
	"topar_market/pkg/rest"
)

type pricingService interface {
	Suggest(ctx context.Context, params pricing.SuggestParams) (*pricing.Suggestion, error)
}

type PricingServer struct {
	pricingService pricingService
}

func NewPricingServer(pricingService pricingService) PricingServer {
	return PricingServer{
		pricingService: pricingService,
	}
}

func (s PricingServer) postV1PriceSuggestion(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.SuggestPriceRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	suggestion, err := s.pricingService.Suggest(ctx, pricing.SuggestParams{
		Category:    request.Category,
		Title:       request.Title,
		Description: request.Description,
	})
	if err != nil {
		return fmt.Errorf("pricingService.Suggest: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTPriceSuggestion(suggestion))

	return nil
}
