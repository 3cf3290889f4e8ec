package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"topar_market/internal/domain/entity"
	"topar_market/internal/domain/service/listing"
	"topar_market/internal/domain/value"
	"topar_market/pkg/contextx"
	"topar_market/pkg/httpx/reply"
	"topar_market/pkg/httpx/req"
	"topar_market/pkg/rest"
)

type listingService interface {
	Create(ctx context.Context, sellerID string, params listing.CreateParams) (*entity.Listing, error)
	Get(ctx context.Context, callerID, listingID string) (*entity.ListingView, error)
	Feed(ctx context.Context, params listing.FeedParams) (*listing.FeedPage, error)
	Update(ctx context.Context, callerID, listingID string, params listing.UpdateParams) (*entity.Listing, error)
	Delete(ctx context.Context, callerID, listingID string) error
	Boost(ctx context.Context, callerID, listingID string) (*entity.Listing, error)
	ListForSeller(ctx context.Context, sellerID string, status *value.ListingStatus) ([]*entity.Listing, error)
	ToggleFavorite(ctx context.Context, callerID, listingID string) (bool, int, error)
	ListFavorites(ctx context.Context, callerID string) ([]entity.ListingView, error)
}

type ListingServer struct {
	listingService listingService
}

func NewListingServer(listingService listingService) ListingServer {
	return ListingServer{
		listingService: listingService,
	}
}

func (s ListingServer) postV1Listing(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	var request rest.CreateListingRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	deliveryOptions, err := newDomainDeliveryOptions(request.DeliveryOptions)
	if err != nil {
		return fmt.Errorf("newDomainDeliveryOptions: %w", err)
	}

	// Safe Deal включён по умолчанию, продавец может явно отключить.
	isSafeDeal := true
	if request.IsSafeDeal != nil {
		isSafeDeal = *request.IsSafeDeal
	}

	created, err := s.listingService.Create(ctx, userID.String(), listing.CreateParams{
		Title:           request.Title,
		Description:     request.Description,
		Price:           request.Price,
		Currency:        request.Currency,
		Category:        request.Category,
		Subcategory:     request.Subcategory,
		Images:          request.Images,
		Location:        newDomainLocation(request.Location),
		IsUrgent:        request.IsUrgent,
		IsSafeDeal:      isSafeDeal,
		DeliveryOptions: deliveryOptions,
	})
	if err != nil {
		return fmt.Errorf("listingService.Create: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTListing(created))

	return nil
}

func (s ListingServer) getV1Listing(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	callerID := ""
	if userID, err := contextx.UserIDFromContext(ctx); err == nil {
		callerID = userID.String()
	}

	view, err := s.listingService.Get(ctx, callerID, chi.URLParam(r, "id"))
	if err != nil {
		return fmt.Errorf("listingService.Get: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTListingView(view))

	return nil
}

func (s ListingServer) getV1Listings(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	page, err := s.listingService.Feed(ctx, feedParamsFromQuery(r))
	if err != nil {
		return fmt.Errorf("listingService.Feed: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTFeed(page))

	return nil
}

func feedParamsFromQuery(r *http.Request) listing.FeedParams {
	query := r.URL.Query()

	params := listing.FeedParams{
		Category:    query.Get("category"),
		Subcategory: query.Get("subcategory"),
		City:        query.Get("city"),
		Sort:        listing.FeedSort(query.Get("sort")),
	}

	if raw := query.Get("priceMin"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			params.PriceMin = &v
		}
	}

	if raw := query.Get("priceMax"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			params.PriceMax = &v
		}
	}

	if raw := query.Get("urgent"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			params.Urgent = &v
		}
	}

	if raw := query.Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			params.Page = v
		}
	}

	if raw := query.Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			params.Limit = v
		}
	}

	return params
}

func (s ListingServer) putV1Listing(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	var request rest.UpdateListingRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	params := listing.UpdateParams{
		Title:       request.Title,
		Description: request.Description,
		Price:       request.Price,
		Images:      request.Images,
		IsSafeDeal:  request.IsSafeDeal,
	}

	if request.Location != nil {
		location := newDomainLocation(request.Location)
		params.Location = &location
	}

	updated, err := s.listingService.Update(ctx, userID.String(), chi.URLParam(r, "id"), params)
	if err != nil {
		return fmt.Errorf("listingService.Update: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTListing(updated))

	return nil
}

func (s ListingServer) deleteV1Listing(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	if err := s.listingService.Delete(ctx, userID.String(), chi.URLParam(r, "id")); err != nil {
		return fmt.Errorf("listingService.Delete: %w", err)
	}

	reply.OK(w)

	return nil
}

func (s ListingServer) postV1ListingBoost(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	boosted, err := s.listingService.Boost(ctx, userID.String(), chi.URLParam(r, "id"))
	if err != nil {
		return fmt.Errorf("listingService.Boost: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTListing(boosted))

	return nil
}

func (s ListingServer) getV1MeListings(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	var status *value.ListingStatus

	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := value.ParseListingStatus(raw)
		if err != nil {
			return fmt.Errorf("value.ParseListingStatus: %w", err)
		}

		status = &parsed
	}

	listings, err := s.listingService.ListForSeller(ctx, userID.String(), status)
	if err != nil {
		return fmt.Errorf("listingService.ListForSeller: %w", err)
	}

	result := make([]rest.Listing, 0, len(listings))
	for _, l := range listings {
		result = append(result, newRESTListing(l))
	}

	reply.JSON(ctx, w, http.StatusOK, result)

	return nil
}

func (s ListingServer) postV1ListingFavorite(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	favorited, likes, err := s.listingService.ToggleFavorite(ctx, userID.String(), chi.URLParam(r, "id"))
	if err != nil {
		return fmt.Errorf("listingService.ToggleFavorite: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, rest.ToggleFavorite{
		IsFavorite: favorited,
		Likes:      likes,
	})

	return nil
}

func (s ListingServer) getV1Favorites(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	views, err := s.listingService.ListFavorites(ctx, userID.String())
	if err != nil {
		return fmt.Errorf("listingService.ListFavorites: %w", err)
	}

	result := make([]rest.Listing, 0, len(views))
	for i := range views {
		result = append(result, newRESTListingView(&views[i]))
	}

	reply.JSON(ctx, w, http.StatusOK, result)

	return nil
}
