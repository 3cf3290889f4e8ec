package pricing

import (
	"context"
	"hash/fnv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	cacheTTL     = 15 * time.Minute
	cacheCleanup = 30 * time.Minute
)

// Suggestion оценка цены по категории. Подсказка детерминирована: один и
// тот же запрос всегда даёт один и тот же ответ.
type Suggestion struct {
	SuggestedPrice int64
	Confidence     float64
	Min            int64
	Max            int64
	Factors        []string
}

type categoryProfile struct {
	basePrice  int64
	confidence float64
}

// Базовые цены в тысячах сумов. Внешней модели ценообразования нет,
// таблица заменяет её до подключения.
var categoryProfiles = map[string]categoryProfile{
	"electronics": {basePrice: 2_500_000, confidence: 0.85},
	"transport":   {basePrice: 45_000_000, confidence: 0.75},
	"realty":      {basePrice: 500_000_000, confidence: 0.7},
	"fashion":     {basePrice: 350_000, confidence: 0.8},
	"home":        {basePrice: 800_000, confidence: 0.8},
	"sport":       {basePrice: 600_000, confidence: 0.75},
	"kids":        {basePrice: 250_000, confidence: 0.8},
	"services":    {basePrice: 400_000, confidence: 0.6},
}

var defaultProfile = categoryProfile{basePrice: 500_000, confidence: 0.5}

type Service struct {
	cache *gocache.Cache
}

// NewService создаёт сервис ценовых подсказок с кэшем на категорию.
func NewService() *Service {
	return &Service{
		cache: gocache.New(cacheTTL, cacheCleanup),
	}
}

type SuggestParams struct {
	Category    string
	Title       string
	Description string
}

// Suggest возвращает рекомендованную цену и диапазон для категории.
func (s *Service) Suggest(_ context.Context, params SuggestParams) (*Suggestion, error) {
	category := strings.ToLower(strings.TrimSpace(params.Category))
	key := category + "|" + strings.ToLower(params.Title)

	if cached, ok := s.cache.Get(key); ok {
		return cached.(*Suggestion), nil
	}

	profile, known := categoryProfiles[category]
	if !known {
		profile = defaultProfile
	}

	// Детерминированный разброс вокруг базовой цены по названию товара.
	variance := int64(0)
	if params.Title != "" {
		h := fnv.New32a()
		h.Write([]byte(strings.ToLower(params.Title)))
		variance = profile.basePrice / 10 * (int64(h.Sum32()%21) - 10) / 10
	}

	suggested := profile.basePrice + variance

	factors := []string{"category average"}
	if params.Title != "" {
		factors = append(factors, "title keywords")
	}

	if !known {
		factors = append(factors, "fallback profile")
	}

	suggestion := &Suggestion{
		SuggestedPrice: suggested,
		Confidence:     profile.confidence,
		Min:            suggested * 8 / 10,
		Max:            suggested * 12 / 10,
		Factors:        factors,
	}

	s.cache.Set(key, suggestion, gocache.DefaultExpiration)

	return suggestion, nil
}
