package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"topar_market/pkg/httpx/reply"
	"topar_market/pkg/middlewarex"
)

func (s Server) RegisterRoutes(r chi.Router, verifier middlewarex.TokenVerifier) { //nolint:funlen
	r.Route("/v1", func(r chi.Router) {
		// unauthorized zone
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handler(s.postV1AuthRegister))
			r.Post("/login", handler(s.postV1AuthLogin))
		})

		r.Get("/users/{id}", handler(s.getV1User))

		// листинг и карточка доступны без токена, но учитывают его
		r.Group(func(r chi.Router) {
			r.Use(middlewarex.OptionalAuth(verifier))

			r.Get("/listings", handler(s.getV1Listings))
			r.Get("/listings/{id}", handler(s.getV1Listing))
		})

		// authorized zone
		r.Group(func(r chi.Router) {
			r.Use(middlewarex.Auth(verifier))

			r.Route("/me", func(r chi.Router) {
				r.Get("/", handler(s.getV1Me))
				r.Put("/", handler(s.putV1Me))
				r.Post("/verify", handler(s.postV1MeVerify))
				r.Get("/listings", handler(s.getV1MeListings))
			})

			r.Route("/listings", func(r chi.Router) {
				r.Post("/", handler(s.postV1Listing))
				r.Put("/{id}", handler(s.putV1Listing))
				r.Delete("/{id}", handler(s.deleteV1Listing))
				r.Post("/{id}/boost", handler(s.postV1ListingBoost))
				r.Post("/{id}/favorite", handler(s.postV1ListingFavorite))
			})

			r.Get("/favorites", handler(s.getV1Favorites))

			r.Route("/deals", func(r chi.Router) {
				r.Post("/", handler(s.postV1Deal))
				r.Get("/", handler(s.getV1Deals))
				r.Get("/{id}", handler(s.getV1Deal))
				r.Post("/{id}/pay", handler(s.postV1DealPay))
				r.Post("/{id}/ship", handler(s.postV1DealShip))
				r.Post("/{id}/confirm", handler(s.postV1DealConfirm))
				r.Post("/{id}/dispute", handler(s.postV1DealDispute))
				r.Post("/{id}/refund", handler(s.postV1DealRefund))
			})

			r.Get("/conversations", handler(s.getV1Conversations))
			r.Get("/messages/{peerId}", handler(s.getV1Messages))
			r.Post("/messages/{peerId}", handler(s.postV1Message))

			r.Post("/price-suggestions", handler(s.postV1PriceSuggestion))
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, err)
		}
	}
}
