package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/epicfreebies/hype-backend/config"
	"github.com/epicfreebies/hype-backend/models"
	"github.com/epicfreebies/hype-backend/shared"
	"github.com/sirupsen/logrus"
)

const wikidataSPARQLEndpoint = "https://query.wikidata.org/sparql"

// WikidataService queries the knowledge graph for franchise siblings: video
// games in the same series as an exactly-titled game, with publication dates.
// The exact-title query can hit unrelated games sharing a name, so results
// are additionally gated by a fuzzy containment match on publisher name when
// one is known.
type WikidataService struct {
	endpoint string
	client   *http.Client
	limiter  *shared.SourceRateLimiter
}

// NewWikidataService creates a new knowledge-graph adapter.
func NewWikidataService(factory *shared.HTTPClientFactory, delays *config.SourceDelays) *WikidataService {
	return &WikidataService{
		endpoint: wikidataSPARQLEndpoint,
		client:   factory.Client(config.HTTPRequestTimeout),
		limiter:  shared.NewSourceRateLimiter("wikidata", delays.KnowledgeGraph),
	}
}

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// Name identifies this lookup tier in logs.
func (s *WikidataService) Name() string {
	return models.FranchiseSourceKnowledge
}

// Lookup returns series siblings of the titled game ordered by publication
// date. An empty result is a legitimate "no franchise membership found".
func (s *WikidataService) Lookup(ctx context.Context, query FranchiseQuery) ([]models.SiblingRelease, error) {
	s.limiter.Wait()

	sparql := buildSiblingQuery(query.Title)
	endpoint := fmt.Sprintf("%s?format=json&query=%s", s.endpoint, url.QueryEscape(sparql))

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build knowledge-graph request: %w", err)
	}
	request.Header.Set("Accept", "application/sparql-results+json")
	request.Header.Set("User-Agent", "hype-backend/1.0 (giveaway metadata enrichment)")

	response, err := s.client.Do(request)
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, "SPARQL_REQUEST_FAILED",
			"knowledge-graph request failed", "WikidataService", "Lookup", true, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, shared.NewServiceError(shared.ErrorCategoryNetwork, "SPARQL_REQUEST_STATUS",
			fmt.Sprintf("knowledge graph returned HTTP %d", response.StatusCode),
			"WikidataService", "Lookup", true, nil)
	}

	var parsed sparqlResponse
	if err := json.NewDecoder(response.Body).Decode(&parsed); err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryProcessing, "SPARQL_DECODE",
			"failed to decode knowledge-graph response", "WikidataService", "Lookup", true, err)
	}

	siblings := make([]models.SiblingRelease, 0, len(parsed.Results.Bindings))
	for _, binding := range parsed.Results.Bindings {
		name := binding["sequelLabel"].Value
		if name == "" {
			continue
		}

		// Publisher containment gate: when the record has a real publisher,
		// drop siblings whose publisher label does not contain it (or vice
		// versa). Without a known publisher every sibling passes.
		if query.Publisher != "" {
			publisherLabel := binding["publisherLabel"].Value
			if publisherLabel != "" &&
				!shared.ContainsNormalized(publisherLabel, query.Publisher) &&
				!shared.ContainsNormalized(query.Publisher, publisherLabel) {
				continue
			}
		}

		siblings = append(siblings, models.SiblingRelease{
			Name:    name,
			RawDate: binding["date"].Value,
		})
	}

	logrus.WithFields(logrus.Fields{
		"service":  "WikidataService",
		"title":    query.Title,
		"siblings": len(siblings),
	}).Info("Knowledge-graph sibling lookup complete")

	return siblings, nil
}

// buildSiblingQuery asks for all video games in the same series as the game
// with the given English label, with publication dates and publisher labels,
// ordered by date.
func buildSiblingQuery(title string) string {
	escaped := strings.ReplaceAll(title, `"`, `\"`)
	return fmt.Sprintf(`
SELECT ?sequelLabel ?date ?publisherLabel WHERE {
  ?game rdfs:label "%s"@en ;
        wdt:P179 ?series .
  ?sequel wdt:P179 ?series ;
          wdt:P577 ?date .
  OPTIONAL { ?sequel wdt:P123 ?publisher . }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}
ORDER BY ?date
LIMIT 50`, escaped)
}
