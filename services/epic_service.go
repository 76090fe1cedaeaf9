package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/epicfreebies/hype-backend/config"
	"github.com/epicfreebies/hype-backend/models"
	"github.com/epicfreebies/hype-backend/shared"
	"github.com/sirupsen/logrus"
)

const epicPromotionsURL = "https://store-site-backend-static.ak.epicgames.com/freeGamesPromotions"

// EpicService is the ingest adapter: it fetches the storefront's free-games
// promotions feed and maps currently-free entries to giveaway records. The
// feed mixes current and upcoming promotions and also lists discounted (but
// not free) games; only entries with active offers at a 0 discount setting
// (Epic's encoding for 100% off) are kept.
type EpicService struct {
	feedURL string
	client  *http.Client
	limiter *shared.SourceRateLimiter
}

// NewEpicService creates a new promotions feed adapter.
func NewEpicService(factory *shared.HTTPClientFactory, delays *config.SourceDelays) *EpicService {
	return &EpicService{
		feedURL: epicPromotionsURL,
		client:  factory.Client(config.HTTPRequestTimeout),
		limiter: shared.NewSourceRateLimiter("epic", delays.PromotionsFeed),
	}
}

type epicPromotionsResponse struct {
	Data struct {
		Catalog struct {
			SearchStore struct {
				Elements []epicElement `json:"elements"`
			} `json:"searchStore"`
		} `json:"Catalog"`
	} `json:"data"`
}

type epicElement struct {
	Title      string `json:"title"`
	Promotions *struct {
		PromotionalOffers []struct {
			PromotionalOffers []epicOffer `json:"promotionalOffers"`
		} `json:"promotionalOffers"`
	} `json:"promotions"`
}

type epicOffer struct {
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	DiscountSetting struct {
		// Absent means "discounted, amount unknown", never free
		DiscountPercentage *int `json:"discountPercentage"`
	} `json:"discountSetting"`
}

// FetchFreePromotions returns the currently free giveaway instances from the
// promotions feed. Records come back without ids; the ledger assigns those.
func (s *EpicService) FetchFreePromotions(ctx context.Context) ([]models.GiveawayRecord, error) {
	s.limiter.Wait()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build promotions feed request: %w", err)
	}

	response, err := shared.ExecuteHTTPRequestWithRetry(s.client, request, 3)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, "PROMOTIONS_FETCH_FAILED",
			"promotions feed request failed", "EpicService", "FetchFreePromotions", true, err)
	}
	defer response.Body.Close()

	var feed epicPromotionsResponse
	if err := json.NewDecoder(response.Body).Decode(&feed); err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryProcessing, "PROMOTIONS_DECODE",
			"failed to decode promotions feed", "EpicService", "FetchFreePromotions", true, err)
	}

	var records []models.GiveawayRecord
	for _, element := range feed.Data.Catalog.SearchStore.Elements {
		if element.Title == "" || element.Promotions == nil {
			continue
		}
		// The first promotionalOffers block holds active offers; upcoming
		// ones live in a separate block the feed also returns.
		for _, block := range element.Promotions.PromotionalOffers {
			for _, offer := range block.PromotionalOffers {
				if offer.DiscountSetting.DiscountPercentage == nil || *offer.DiscountSetting.DiscountPercentage != 0 {
					continue
				}
				records = append(records, models.GiveawayRecord{
					Title:     element.Title,
					StartDate: offer.StartDate.UTC().Truncate(24 * time.Hour),
					EndDate:   offer.EndDate.UTC().Truncate(24 * time.Hour),
				})
			}
		}
	}

	logrus.WithFields(logrus.Fields{
		"service":    "EpicService",
		"free_games": len(records),
	}).Info("Fetched free promotions from feed")

	return records, nil
}
