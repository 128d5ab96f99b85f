package scoring

import (
	"math"
	"sort"

	"github.com/FACorreiaa/go-vietspot-suggestions/config"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/geo"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

const neutralScore = 0.5

// Service fuses semantic, distance, rating and popularity signals into a
// single FinalScore.
type Service struct {
	weights       config.Weights
	maxDistanceKm float64
	decayDivisor  float64
}

func NewService(cfg config.ScoringConfig) *Service {
	s := &Service{
		weights:       cfg.Weights.Normalized(),
		maxDistanceKm: cfg.MaxDistanceKm,
		decayDivisor:  cfg.DecayDivisor,
	}
	if s.maxDistanceKm <= 0 {
		s.maxDistanceKm = 50
	}
	if s.decayDivisor <= 0 {
		s.decayDivisor = 3
	}
	return s
}

func (s *Service) Weights() config.Weights {
	return s.weights
}

// DistanceScore decays exponentially from 1 at the origin to 0 at the
// configured maximum distance.
func (s *Service) DistanceScore(d float64) float64 {
	switch {
	case math.IsNaN(d):
		return 0
	case d <= 0:
		return 1
	case d >= s.maxDistanceKm:
		return 0
	}
	return clamp01(math.Exp(-d / (s.maxDistanceKm / s.decayDivisor)))
}

func RatingScore(rating *float64) float64 {
	if rating == nil || math.IsNaN(*rating) {
		return neutralScore
	}
	return clamp01(*rating / 5)
}

func PopularityScore(ratingCount, checkins int) float64 {
	v := (float64(max(ratingCount, 0))*0.6 + float64(max(checkins, 0))*0.4) / 100
	return math.Min(v, 1)
}

// Score fills the per-signal scores and FinalScore of c.
func (s *Service) Score(c types.Candidate, hasUserLocation bool) types.Candidate {
	semantic := neutralScore
	if c.SemanticScore != nil {
		semantic = clamp01(*c.SemanticScore)
	}
	dist := neutralScore
	if hasUserLocation && c.DistanceKm != nil {
		dist = s.DistanceScore(*c.DistanceKm)
	}
	c.RatingScore = RatingScore(c.Rating)
	c.PopularityScore = PopularityScore(c.RatingCount, c.NumCheckins)

	w := s.weights
	final := w.Semantic*semantic + w.Distance*dist + w.Rating*c.RatingScore + w.Popularity*c.PopularityScore
	c.FinalScore = geo.Round(final, 4)
	return c
}

// Rank scores every candidate and returns the topK best, highest first. Ties
// keep their input order. topK <= 0 returns all of them.
func (s *Service) Rank(candidates []types.Candidate, hasUserLocation bool, topK int) []types.Candidate {
	out := make([]types.Candidate, len(candidates))
	for i, c := range candidates {
		out[i] = s.Score(c, hasUserLocation)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalScore > out[j].FinalScore
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

// AttachDistances sets DistanceKm on every candidate with coordinates,
// rounded to 2 decimals.
func AttachDistances(candidates []types.Candidate, lat, lon float64) []types.Candidate {
	origin := &types.Coordinates{Lat: lat, Lon: lon}
	for i := range candidates {
		if candidates[i].Coordinates == nil {
			continue
		}
		d := geo.Between(origin, candidates[i].Coordinates)
		if math.IsInf(d, 0) {
			continue
		}
		d = geo.Round(d, 2)
		candidates[i].DistanceKm = &d
	}
	return candidates
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
