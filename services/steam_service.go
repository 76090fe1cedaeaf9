package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/epicfreebies/hype-backend/config"
	"github.com/epicfreebies/hype-backend/shared"
	"github.com/sirupsen/logrus"
)

const (
	steamStoreBaseURL = "https://store.steampowered.com"

	// Acceptance threshold for storefront title matches
	storefrontMatchThreshold = 85
)

// SteamService resolves publisher names through the Steam storefront catalog:
// a title search fuzzy-gated at 85, then an appdetails fetch for the first
// listed publisher. Publisher failures are retryable on later runs; the names
// are high-value and cheap to re-query.
type SteamService struct {
	baseURL string
	client  *http.Client
	limiter *shared.SourceRateLimiter
}

// NewSteamService creates a new storefront publisher adapter.
func NewSteamService(factory *shared.HTTPClientFactory, delays *config.SourceDelays) *SteamService {
	return &SteamService{
		baseURL: steamStoreBaseURL,
		client:  factory.Client(config.HTTPRequestTimeout),
		limiter: shared.NewSourceRateLimiter("steam", delays.Storefront),
	}
}

type steamSearchResponse struct {
	Items []struct {
		ID   json.Number `json:"id"`
		Name string      `json:"name"`
	} `json:"items"`
}

type steamAppDetails struct {
	Success bool `json:"success"`
	Data    struct {
		Name       string   `json:"name"`
		Publishers []string `json:"publishers"`
	} `json:"data"`
}

// LookupPublisher searches the storefront by title and extracts the first
// listed publisher of the matched app. found=false means no acceptable match
// or an app page with no publishers.
func (s *SteamService) LookupPublisher(ctx context.Context, title string) (string, bool, error) {
	logger := logrus.WithFields(logrus.Fields{
		"service": "SteamService",
		"title":   title,
	})

	search, err := s.searchStore(ctx, title)
	if err != nil {
		return "", false, err
	}
	if len(search.Items) == 0 {
		logger.Info("Storefront search returned no results")
		return "", false, nil
	}

	candidates := make([]string, len(search.Items))
	for i, item := range search.Items {
		candidates[i] = item.Name
	}

	bestLabel, score := shared.BestMatch(title, candidates)
	if score < storefrontMatchThreshold {
		logger.WithFields(logrus.Fields{
			"best_label": bestLabel,
			"score":      score,
			"threshold":  storefrontMatchThreshold,
		}).Info("Storefront match below threshold, treating as no match")
		return "", false, nil
	}

	var appID string
	for _, item := range search.Items {
		if item.Name == bestLabel {
			appID = item.ID.String()
			break
		}
	}
	if appID == "" {
		return "", false, nil
	}

	details, err := s.fetchAppDetails(ctx, appID)
	if err != nil {
		return "", false, err
	}
	if !details.Success || len(details.Data.Publishers) == 0 {
		logger.WithField("app_id", appID).Info("Storefront app has no publisher listed")
		return "", false, nil
	}

	publisher := details.Data.Publishers[0]
	logger.WithFields(logrus.Fields{
		"matched_title": bestLabel,
		"score":         score,
		"publisher":     publisher,
	}).Info("Resolved publisher")

	return publisher, true, nil
}

func (s *SteamService) searchStore(ctx context.Context, title string) (*steamSearchResponse, error) {
	s.limiter.Wait()

	endpoint := fmt.Sprintf("%s/api/storesearch/?term=%s&cc=us&l=en", s.baseURL, url.QueryEscape(title))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build storefront search request: %w", err)
	}
	shared.SetBrowserLikeHeaders(request, "application/json")

	response, err := s.client.Do(request)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, "STORE_SEARCH_FAILED",
			"storefront search request failed", "SteamService", "searchStore", true, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, "STORE_SEARCH_STATUS",
			fmt.Sprintf("storefront search returned HTTP %d", response.StatusCode),
			"SteamService", "searchStore", true, nil)
	}

	var search steamSearchResponse
	if err := json.NewDecoder(response.Body).Decode(&search); err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryProcessing, "STORE_SEARCH_DECODE",
			"failed to decode storefront search response", "SteamService", "searchStore", true, err)
	}

	return &search, nil
}

func (s *SteamService) fetchAppDetails(ctx context.Context, appID string) (*steamAppDetails, error) {
	s.limiter.Wait()

	endpoint := fmt.Sprintf("%s/api/appdetails?appids=%s", s.baseURL, url.QueryEscape(appID))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build appdetails request: %w", err)
	}
	shared.SetBrowserLikeHeaders(request, "application/json")

	response, err := s.client.Do(request)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, "APP_DETAILS_FAILED",
			"appdetails request failed", "SteamService", "fetchAppDetails", true, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, "APP_DETAILS_STATUS",
			fmt.Sprintf("appdetails returned HTTP %d", response.StatusCode),
			"SteamService", "fetchAppDetails", true, nil)
	}

	// The response is keyed by the app id we asked for
	envelope := make(map[string]steamAppDetails)
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryProcessing, "APP_DETAILS_DECODE",
			"failed to decode appdetails response", "SteamService", "fetchAppDetails", true, err)
	}

	details, exists := envelope[appID]
	if !exists {
		// Some responses key by the canonical id after a redirect
		for _, value := range envelope {
			details = value
			break
		}
	}

	return &details, nil
}
