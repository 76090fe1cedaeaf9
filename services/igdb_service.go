package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/epicfreebies/hype-backend/config"
	"github.com/epicfreebies/hype-backend/models"
	"github.com/epicfreebies/hype-backend/shared"
	"github.com/sirupsen/logrus"
)

const (
	igdbBaseURL     = "https://api.igdb.com/v4"
	twitchTokenURL  = "https://id.twitch.tv/oauth2/token"
	igdbSearchLimit = 5

	// Sibling listings from the collection query are capped so a sprawling
	// franchise cannot produce an unbounded response.
	igdbCollectionLimit = 50

	// Acceptance threshold for metadata-service title matches
	metadataMatchThreshold = 80
)

// ErrNotConfigured signals that the metadata-service credentials are absent.
// Callers skip the lookup rather than failing the batch.
var ErrNotConfigured = errors.New("metadata service credentials not configured")

// GameDetails is the per-title result of one metadata-service search: release
// timestamp and aggregate rating arrive together in a single call, but each
// is tracked (and retried) independently by the resolver.
type GameDetails struct {
	Name         string
	ReleaseDate  time.Time
	HasRelease   bool
	Rating       float64
	HasRating    bool
	CollectionID int64
}

// IGDBService is the games-metadata adapter. It authenticates with a Twitch
// client id/secret pair exchanged for a bearer token, searches up to five
// candidates per title, and fuzzy-gates against all candidate names rather
// than just the top hit.
type IGDBService struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	client       *http.Client
	limiter      *shared.SourceRateLimiter

	accessToken string
	tokenExpiry time.Time
}

// NewIGDBService creates a new metadata-service adapter. Empty credentials
// produce a disabled adapter whose lookups return ErrNotConfigured.
func NewIGDBService(factory *shared.HTTPClientFactory, delays *config.SourceDelays, clientID, clientSecret string) *IGDBService {
	return &IGDBService{
		baseURL:      igdbBaseURL,
		tokenURL:     twitchTokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       factory.Client(config.HTTPRequestTimeout),
		limiter:      shared.NewSourceRateLimiter("igdb", delays.Metadata),
	}
}

// Configured reports whether the API key pair is present.
func (s *IGDBService) Configured() bool {
	return s.clientID != "" && s.clientSecret != ""
}

type igdbGame struct {
	Name             string  `json:"name"`
	FirstReleaseDate int64   `json:"first_release_date"`
	AggregatedRating float64 `json:"aggregated_rating"`
	Collection       int64   `json:"collection"`
}

// LookupDetails searches the metadata service for a title and returns the
// fuzzy-gated best candidate's release date, aggregate rating, and collection
// id. found=false means no candidate cleared the threshold.
func (s *IGDBService) LookupDetails(ctx context.Context, title string) (*GameDetails, bool, error) {
	if !s.Configured() {
		return nil, false, ErrNotConfigured
	}

	logger := logrus.WithFields(logrus.Fields{
		"service": "IGDBService",
		"title":   title,
	})

	body := fmt.Sprintf(`search %q; fields name,first_release_date,aggregated_rating,collection; limit %d;`,
		title, igdbSearchLimit)

	var games []igdbGame
	if err := s.query(ctx, "/games", body, &games); err != nil {
		return nil, false, err
	}
	if len(games) == 0 {
		logger.Info("Metadata service returned no candidates")
		return nil, false, nil
	}

	candidates := make([]string, len(games))
	for i, game := range games {
		candidates[i] = game.Name
	}

	bestLabel, score := shared.BestMatch(title, candidates)
	if score < metadataMatchThreshold {
		logger.WithFields(logrus.Fields{
			"best_label": bestLabel,
			"score":      score,
			"threshold":  metadataMatchThreshold,
		}).Info("Metadata service match below threshold, treating as no match")
		return nil, false, nil
	}

	var matched *igdbGame
	for i := range games {
		if games[i].Name == bestLabel {
			matched = &games[i]
			break
		}
	}
	if matched == nil {
		return nil, false, nil
	}

	details := &GameDetails{
		Name:         matched.Name,
		CollectionID: matched.Collection,
	}
	if matched.FirstReleaseDate > 0 {
		details.ReleaseDate = time.Unix(matched.FirstReleaseDate, 0).UTC()
		details.HasRelease = true
	}
	if matched.AggregatedRating > 0 {
		details.Rating = matched.AggregatedRating
		details.HasRating = true
	}

	logger.WithFields(logrus.Fields{
		"matched_title": matched.Name,
		"score":         score,
		"has_release":   details.HasRelease,
		"has_rating":    details.HasRating,
		"collection_id": details.CollectionID,
	}).Info("Resolved metadata-service details")

	return details, true, nil
}

// CollectionReleases lists the games in a collection sorted by release date
// ascending, capped to a bounded result size. Entries without a release
// timestamp are still returned; the franchise selector skips them
// per-candidate.
func (s *IGDBService) CollectionReleases(ctx context.Context, collectionID int64) ([]models.SiblingRelease, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	body := fmt.Sprintf(`fields name,first_release_date; where collection = %d; sort first_release_date asc; limit %d;`,
		collectionID, igdbCollectionLimit)

	var games []igdbGame
	if err := s.query(ctx, "/games", body, &games); err != nil {
		return nil, err
	}

	siblings := make([]models.SiblingRelease, 0, len(games))
	for _, game := range games {
		sibling := models.SiblingRelease{Name: game.Name}
		if game.FirstReleaseDate > 0 {
			sibling.RawDate = fmt.Sprintf("%d", game.FirstReleaseDate)
		}
		siblings = append(siblings, sibling)
	}

	return siblings, nil
}

func (s *IGDBService) query(ctx context.Context, path, body string, out interface{}) error {
	token, err := s.bearerToken(ctx)
	if err != nil {
		return err
	}

	s.limiter.Wait()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build metadata-service request: %w", err)
	}
	request.Header.Set("Client-ID", s.clientID)
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("Accept", "application/json")

	response, err := s.client.Do(request)
	if err != nil {
		return shared.NewServiceError(shared.ErrorCategoryNetwork, "IGDB_QUERY_FAILED",
			"metadata-service request failed", "IGDBService", "query", true, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusUnauthorized {
		// Token may have been revoked early; drop it so the next call
		// re-authenticates.
		s.accessToken = ""
		return shared.NewServiceError(shared.ErrorCategoryAuthentication, "IGDB_UNAUTHORIZED",
			"metadata-service rejected bearer token", "IGDBService", "query", true, nil)
	}
	if response.StatusCode != http.StatusOK {
		return shared.NewServiceError(shared.ErrorCategoryNetwork, "IGDB_QUERY_STATUS",
			fmt.Sprintf("metadata service returned HTTP %d", response.StatusCode),
			"IGDBService", "query", true, nil)
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return shared.NewServiceError(shared.ErrorCategoryProcessing, "IGDB_QUERY_DECODE",
			"failed to decode metadata-service response", "IGDBService", "query", true, err)
	}

	return nil
}

type twitchTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *IGDBService) bearerToken(ctx context.Context) (string, error) {
	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		return s.accessToken, nil
	}

	form := url.Values{}
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)
	form.Set("grant_type", "client_credentials")

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := s.client.Do(request)
	if err != nil {
		return "", shared.NewServiceError(shared.ErrorCategoryNetwork, "TOKEN_REQUEST_FAILED",
			"bearer token request failed", "IGDBService", "bearerToken", true, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", shared.NewServiceError(shared.ErrorCategoryAuthentication, "TOKEN_REQUEST_STATUS",
			fmt.Sprintf("token endpoint returned HTTP %d", response.StatusCode),
			"IGDBService", "bearerToken", true, nil)
	}

	var token twitchTokenResponse
	if err := json.NewDecoder(response.Body).Decode(&token); err != nil {
		return "", shared.NewServiceError(shared.ErrorCategoryProcessing, "TOKEN_DECODE",
			"failed to decode token response", "IGDBService", "bearerToken", true, err)
	}

	s.accessToken = token.AccessToken
	// Renew a minute before expiry
	s.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn-60) * time.Second)

	logrus.WithField("service", "IGDBService").Debug("Obtained new bearer token")

	return s.accessToken, nil
}
