package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"topar_market/internal/domain/entity"
	"topar_market/internal/domain/service/deal"
	"topar_market/internal/domain/value"
	"topar_market/pkg/contextx"
	"topar_market/pkg/httpx/reply"
	"topar_market/pkg/httpx/req"
	"topar_market/pkg/rest"
)

type dealService interface {
	Initiate(ctx context.Context, buyerID string, params deal.InitiateParams) (*entity.Deal, error)
	Pay(ctx context.Context, callerID, dealID string) (*entity.Deal, error)
	Ship(ctx context.Context, callerID, dealID string) (*entity.Deal, error)
	Confirm(ctx context.Context, callerID, dealID string) (*entity.Deal, error)
	Dispute(ctx context.Context, callerID, dealID, reason string) (*entity.Deal, error)
	Refund(ctx context.Context, callerID, dealID string) (*entity.Deal, error)
	Get(ctx context.Context, callerID, dealID string) (*entity.DealView, error)
	ListForAccount(ctx context.Context, accountID string) ([]entity.DealView, error)
}

type DealServer struct {
	dealService dealService
}

func NewDealServer(dealService dealService) DealServer {
	return DealServer{
		dealService: dealService,
	}
}

func (s DealServer) postV1Deal(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	var request rest.CreateDealRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	deliveryOption, err := value.ParseDeliveryType(request.DeliveryOption)
	if err != nil {
		return fmt.Errorf("value.ParseDeliveryType: %w", err)
	}

	created, err := s.dealService.Initiate(ctx, userID.String(), deal.InitiateParams{
		ListingID:      request.ListingID,
		DeliveryOption: deliveryOption,
		Amount:         request.Amount,
	})
	if err != nil {
		return fmt.Errorf("dealService.Initiate: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTDeal(created))

	return nil
}

func (s DealServer) getV1Deals(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	views, err := s.dealService.ListForAccount(ctx, userID.String())
	if err != nil {
		return fmt.Errorf("dealService.ListForAccount: %w", err)
	}

	result := make([]rest.Deal, 0, len(views))
	for i := range views {
		result = append(result, newRESTDealView(&views[i]))
	}

	reply.JSON(ctx, w, http.StatusOK, result)

	return nil
}

func (s DealServer) getV1Deal(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	view, err := s.dealService.Get(ctx, userID.String(), chi.URLParam(r, "id"))
	if err != nil {
		return fmt.Errorf("dealService.Get: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTDealView(view))

	return nil
}

func (s DealServer) postV1DealPay(w http.ResponseWriter, r *http.Request) error {
	return s.transition(w, r, s.dealService.Pay)
}

func (s DealServer) postV1DealShip(w http.ResponseWriter, r *http.Request) error {
	return s.transition(w, r, s.dealService.Ship)
}

func (s DealServer) postV1DealConfirm(w http.ResponseWriter, r *http.Request) error {
	return s.transition(w, r, s.dealService.Confirm)
}

func (s DealServer) postV1DealRefund(w http.ResponseWriter, r *http.Request) error {
	return s.transition(w, r, s.dealService.Refund)
}

func (s DealServer) postV1DealDispute(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	var request rest.DisputeDealRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	updated, err := s.dealService.Dispute(ctx, userID.String(), chi.URLParam(r, "id"), request.Reason)
	if err != nil {
		return fmt.Errorf("dealService.Dispute: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTDeal(updated))

	return nil
}

func (s DealServer) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, callerID, dealID string) (*entity.Deal, error),
) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	updated, err := op(ctx, userID.String(), chi.URLParam(r, "id"))
	if err != nil {
		return fmt.Errorf("deal transition: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTDeal(updated))

	return nil
}
