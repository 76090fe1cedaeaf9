package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/epicfreebies/hype-backend/config"
	"github.com/epicfreebies/hype-backend/shared"
	"github.com/sirupsen/logrus"
)

const (
	cheapSharkBaseURL = "https://www.cheapshark.com/api/1.0"

	// Acceptance threshold for price-catalog title matches
	priceCatalogMatchThreshold = 85
)

// PriceService looks up current retail prices in the CheapShark price
// catalog. Price has the strictest policy of all fields: any failure (no
// match, low score, network error) is terminal and resolves to 0.0, because
// zero is indistinguishable from "free" and "not found" and retrying would be
// wasted API budget.
type PriceService struct {
	baseURL string
	client  *http.Client
	limiter *shared.SourceRateLimiter
}

// NewPriceService creates a new price catalog adapter.
func NewPriceService(factory *shared.HTTPClientFactory, delays *config.SourceDelays) *PriceService {
	return &PriceService{
		baseURL: cheapSharkBaseURL,
		client:  factory.Client(config.HTTPRequestTimeout),
		limiter: shared.NewSourceRateLimiter("cheapshark", delays.PriceCatalog),
	}
}

type cheapSharkSearchResult struct {
	GameID   string `json:"gameID"`
	External string `json:"external"`
	Cheapest string `json:"cheapest"`
}

type cheapSharkGameLookup struct {
	Info struct {
		Title string `json:"title"`
	} `json:"info"`
	Deals []struct {
		Price       string `json:"price"`
		RetailPrice string `json:"retailPrice"`
	} `json:"deals"`
}

// LookupPrice searches the price catalog by title, fuzzy-gates the results,
// and fetches the matched listing's current retail price. found=false means
// no acceptable match; err reports upstream failures. The caller treats both
// the same way for this field.
func (s *PriceService) LookupPrice(ctx context.Context, title string) (float64, bool, error) {
	logger := logrus.WithFields(logrus.Fields{
		"service": "PriceService",
		"title":   title,
	})

	results, err := s.searchGames(ctx, title)
	if err != nil {
		return 0, false, err
	}
	if len(results) == 0 {
		logger.Info("Price catalog returned no results")
		return 0, false, nil
	}

	candidates := make([]string, len(results))
	for i, result := range results {
		candidates[i] = result.External
	}

	bestLabel, score := shared.BestMatch(title, candidates)
	if score < priceCatalogMatchThreshold {
		logger.WithFields(logrus.Fields{
			"best_label": bestLabel,
			"score":      score,
			"threshold":  priceCatalogMatchThreshold,
		}).Info("Price catalog match below threshold, treating as no match")
		return 0, false, nil
	}

	var matched *cheapSharkSearchResult
	for i := range results {
		if results[i].External == bestLabel {
			matched = &results[i]
			break
		}
	}
	if matched == nil {
		return 0, false, nil
	}

	price, err := s.fetchRetailPrice(ctx, matched.GameID)
	if err != nil {
		return 0, false, err
	}

	logger.WithFields(logrus.Fields{
		"matched_title": bestLabel,
		"score":         score,
		"price":         price,
	}).Info("Resolved retail price")

	return price, true, nil
}

func (s *PriceService) searchGames(ctx context.Context, title string) ([]cheapSharkSearchResult, error) {
	s.limiter.Wait()

	endpoint := fmt.Sprintf("%s/games?title=%s&limit=10", s.baseURL, url.QueryEscape(title))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build price catalog search request: %w", err)
	}

	response, err := s.client.Do(request)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, "PRICE_SEARCH_FAILED",
			"price catalog search request failed", "PriceService", "searchGames", true, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, "PRICE_SEARCH_STATUS",
			fmt.Sprintf("price catalog search returned HTTP %d", response.StatusCode),
			"PriceService", "searchGames", true, nil)
	}

	var results []cheapSharkSearchResult
	if err := json.NewDecoder(response.Body).Decode(&results); err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryProcessing, "PRICE_SEARCH_DECODE",
			"failed to decode price catalog search response", "PriceService", "searchGames", true, err)
	}

	return results, nil
}

func (s *PriceService) fetchRetailPrice(ctx context.Context, gameID string) (float64, error) {
	s.limiter.Wait()

	endpoint := fmt.Sprintf("%s/games?id=%s", s.baseURL, url.QueryEscape(gameID))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build price lookup request: %w", err)
	}

	response, err := s.client.Do(request)
	if err != nil {
		return 0, shared.NewServiceError(shared.ErrorCategoryNetwork, "PRICE_LOOKUP_FAILED",
			"price listing request failed", "PriceService", "fetchRetailPrice", true, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return 0, shared.NewServiceError(shared.ErrorCategoryNetwork, "PRICE_LOOKUP_STATUS",
			fmt.Sprintf("price listing returned HTTP %d", response.StatusCode),
			"PriceService", "fetchRetailPrice", true, nil)
	}

	var lookup cheapSharkGameLookup
	if err := json.NewDecoder(response.Body).Decode(&lookup); err != nil {
		return 0, shared.NewServiceError(shared.ErrorCategoryProcessing, "PRICE_LOOKUP_DECODE",
			"failed to decode price listing response", "PriceService", "fetchRetailPrice", true, err)
	}
	if len(lookup.Deals) == 0 {
		return 0, nil
	}

	price, err := strconv.ParseFloat(lookup.Deals[0].RetailPrice, 64)
	if err != nil {
		return 0, shared.NewServiceError(shared.ErrorCategoryProcessing, "PRICE_PARSE",
			fmt.Sprintf("unparseable retail price %q", lookup.Deals[0].RetailPrice),
			"PriceService", "fetchRetailPrice", true, err)
	}

	return price, nil
}
