package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"tunicharge/internal/geo"
	"tunicharge/internal/metrics"
	"tunicharge/internal/models"
	"tunicharge/internal/routing"
)

// Ranking failure modes. Both surface as 404 but are distinct: the first
// means the filters eliminated everything, the second means matches exist
// but none inside the search radius.
var (
	ErrNoChargersMatch  = errors.New("rank: no chargers match filters")
	ErrNoneWithinRadius = errors.New("rank: no chargers within radius")
)

const (
	// maxRoutedChargers caps precise-routing calls per search regardless of limit.
	maxRoutedChargers = 10
	// fallbackSpeedKmh is the assumed average speed when estimating duration
	// from a straight-line distance.
	fallbackSpeedKmh = 50.0
)

// ChargerSource is the spatial-scan contract consumed by the search engine.
type ChargerSource interface {
	ListAll(ctx context.Context) ([]models.Charger, error)
}

// RatingSource supplies per-charger review aggregates (the rating collaborator).
type RatingSource interface {
	RatingSummaries(ctx context.Context) (map[int64]models.RatingSummary, error)
}

// NearbyQuery parameterizes a proximity search.
type NearbyQuery struct {
	Origin        geo.Coordinate
	ConnectorType string
	Status        string
	MinRating     float64
	Limit         int
	RadiusKm      float64
}

// NearbyResult is the ranked outcome plus search metadata.
type NearbyResult struct {
	TotalWithinRadius  int
	ReturnedWithRoutes int
	Chargers           []models.RankedCharger
}

// ProximityRanker implements the two-phase nearest-station search: cheap
// haversine distances filter and order the whole candidate set, then a capped
// head of the list gets precise driving distances from the route provider.
type ProximityRanker struct {
	chargers     ChargerSource
	ratings      RatingSource
	routes       routing.Provider
	routeTimeout time.Duration
	logger       *zap.Logger
}

// NewProximityRanker builds the ranker. routeTimeout bounds each precise
// routing call; a timeout degrades that station to straight-line distance.
func NewProximityRanker(chargers ChargerSource, ratings RatingSource, routes routing.Provider, routeTimeout time.Duration, logger *zap.Logger) *ProximityRanker {
	if routeTimeout <= 0 {
		routeTimeout = 8 * time.Second
	}
	return &ProximityRanker{
		chargers:     chargers,
		ratings:      ratings,
		routes:       routes,
		routeTimeout: routeTimeout,
		logger:       logger,
	}
}

// Nearby ranks chargers around the origin.
func (r *ProximityRanker) Nearby(ctx context.Context, q NearbyQuery) (*NearbyResult, error) {
	all, err := r.chargers.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	summaries, err := r.ratings.RatingSummaries(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.RankedCharger, 0, len(all))
	for _, c := range all {
		if q.ConnectorType != "" && !connectorMatches(c.ConnectorType, q.ConnectorType) {
			continue
		}
		if q.Status != "" && c.Status != q.Status {
			continue
		}
		summary, rated := summaries[c.ID]
		if q.MinRating > 0 && (!rated || summary.AvgRating < q.MinRating) {
			continue
		}

		ranked := models.RankedCharger{Charger: c}
		if rated {
			avg := math.Round(summary.AvgRating*10) / 10
			ranked.AvgRating = &avg
			ranked.ReviewCount = summary.ReviewCount
		}
		candidates = append(candidates, ranked)
	}
	if len(candidates) == 0 {
		return nil, ErrNoChargersMatch
	}

	origin := q.Origin
	withinRadius := candidates[:0]
	for _, c := range candidates {
		d := geo.Haversine(origin, geo.Coordinate{Lat: c.Latitude, Lon: c.Longitude})
		if d > q.RadiusKm {
			continue
		}
		c.DistanceKm = d
		withinRadius = append(withinRadius, c)
	}
	if len(withinRadius) == 0 {
		return nil, ErrNoneWithinRadius
	}

	sort.SliceStable(withinRadius, func(i, j int) bool {
		return withinRadius[i].DistanceKm < withinRadius[j].DistanceKm
	})

	subset := min(2*q.Limit, maxRoutedChargers)
	if subset > len(withinRadius) {
		subset = len(withinRadius)
	}
	routed := withinRadius[:subset]
	for i := range routed {
		r.resolveDistance(ctx, origin, &routed[i])
	}

	sort.SliceStable(routed, func(i, j int) bool {
		return routed[i].DistanceKm < routed[j].DistanceKm
	})

	n := q.Limit
	if n > len(routed) {
		n = len(routed)
	}

	return &NearbyResult{
		TotalWithinRadius:  len(withinRadius),
		ReturnedWithRoutes: n,
		Chargers:           routed[:n],
	}, nil
}

// resolveDistance upgrades a haversine estimate to a precise driving leg when
// the provider cooperates, and otherwise tags the straight-line fallback with
// a duration assuming fallbackSpeedKmh.
func (r *ProximityRanker) resolveDistance(ctx context.Context, origin geo.Coordinate, c *models.RankedCharger) {
	routeCtx, cancel := context.WithTimeout(ctx, r.routeTimeout)
	defer cancel()

	route, err := r.routes.DrivingRoute(routeCtx, origin, geo.Coordinate{Lat: c.Latitude, Lon: c.Longitude})
	if err != nil {
		r.logger.Warn("route lookup degraded to straight line",
			zap.Int64("charger_id", c.ID), zap.Error(err))
		c.DistanceType = models.DistanceTypeStraightLine
		c.DurationMinutes = geo.RoundMinutes(c.DistanceKm / fallbackSpeedKmh * 60)
		metrics.RouteLookups.WithLabelValues(models.DistanceTypeStraightLine).Inc()
		return
	}

	metrics.RouteLookups.WithLabelValues(models.DistanceTypeDriving).Inc()
	c.DistanceType = models.DistanceTypeDriving
	c.DistanceKm = route.DistanceKm
	c.DurationMinutes = route.DurationMinutes
}

// connectorMatches applies the fuzzy connector-type policy: lowercase, strip
// spaces and hyphens, then test containment of the wanted type in the
// station's free-text connector type. Existing station data is free text, so
// this stays a containment test rather than an exact match.
func connectorMatches(stationType, wantedType string) bool {
	station := normalizeConnector(stationType)
	wanted := normalizeConnector(wantedType)
	if wanted == "" {
		return true
	}
	return strings.Contains(station, wanted)
}

func normalizeConnector(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}
