// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package ranking

import (
	"time"

	"github.com/tomtom215/menurank/internal/refgraph"
	"github.com/tomtom215/menurank/internal/views"
)

// Scoring weights.
const (
	imageViewWeight   = 5
	categoryDivisor   = 10
	boosterMultiplier = 1000
	preferenceFactor  = 10
)

// Ranking is the score of one listing for one user.
type Ranking struct {
	User      views.User
	ListingID int64
	// CategoryID is the category the listing was viewed under.
	CategoryID int64
	Score      int64
}

// signals are the inputs of one score.
type signals struct {
	ImageViewSecs     int64
	ProductViewSecs   int64
	CategoryViewSecs  int64
	IngredientRanking int64
	VariantWeight     float64
	RankBooster       int
	UserFactor        int64
	Score             int64
}

// score applies the formula. An allergy (user factor 0) yields 0 without
// evaluating the rest.
func (b *signals) score() int64 {
	if b.UserFactor == 0 {
		return 0
	}
	whole := imageViewWeight*b.ImageViewSecs +
		b.ProductViewSecs +
		b.CategoryViewSecs/categoryDivisor +
		b.IngredientRanking
	base := float64(whole) + b.VariantWeight*float64(b.ProductViewSecs)

	multiplier := int64(1)
	if b.RankBooster > 0 {
		multiplier = int64(b.RankBooster) * boosterMultiplier
	}
	return int64(base * float64(b.UserFactor) * float64(multiplier))
}

// userScorer holds the per-user accumulations of the first pass.
type userScorer struct {
	graph *refgraph.Graph
	info  refgraph.UserInfo

	products   views.Durations
	images     views.Durations
	categories views.Durations

	ingredientViews map[int64]time.Duration
	variantViews    map[refgraph.Variant]time.Duration
	masterViews     map[int64]time.Duration
	masterImages    map[int64]time.Duration
	variantTotal    int64
}

func newUserScorer(g *refgraph.Graph, info refgraph.UserInfo, products, images, categories views.Durations) *userScorer {
	s := &userScorer{
		graph:           g,
		info:            info,
		products:        products,
		images:          images,
		categories:      categories,
		ingredientViews: make(map[int64]time.Duration),
		variantViews:    make(map[refgraph.Variant]time.Duration),
		masterViews:     make(map[int64]time.Duration),
		masterImages:    make(map[int64]time.Duration),
	}
	s.accumulate()
	return s
}

// accumulate credits ingredients, variants and master products with the
// view time of every listing the user opened.
func (s *userScorer) accumulate() {
	for scope, d := range s.products {
		if !scope.HasProduct {
			continue
		}
		listing := scope.ProductID

		for ing := range s.graph.IngredientsFor(listing) {
			s.ingredientViews[ing] += d
		}
		if v := s.graph.VariantOf(listing); v != refgraph.VariantNone {
			s.variantViews[v] += d
		}
		if master, ok := s.graph.MasterOf(listing); ok {
			s.masterViews[master] += d
			s.masterImages[master] += s.images[scope]
		}
	}
	for _, d := range s.variantViews {
		s.variantTotal += seconds(d)
	}
}

// evaluate computes every input of one viewed scope. Allergy exclusions
// return early with only UserFactor set.
func (s *userScorer) evaluate(scope views.Scope) signals {
	listingID := scope.ProductID
	ingredients := s.graph.IngredientsFor(listingID)
	variant := s.graph.VariantOf(listingID)

	var b signals
	switch {
	case s.graph.ContainsAllergen(ingredients, s.info.Allergens):
		b.UserFactor = 0
		return b
	case s.info.Preferences.Has(variant):
		b.UserFactor = preferenceFactor
	default:
		b.UserFactor = 1
	}

	if master, ok := s.graph.MasterOf(listingID); ok {
		b.ProductViewSecs = seconds(s.masterViews[master])
		b.ImageViewSecs = seconds(s.masterImages[master])
	} else {
		b.ProductViewSecs = seconds(s.products[scope])
		b.ImageViewSecs = seconds(s.images[scope])
	}
	b.CategoryViewSecs = seconds(s.categories[scope.Category()])

	if n := int64(len(ingredients)); n > 0 {
		var totalMillis int64
		for ing := range ingredients {
			totalMillis += s.ingredientViews[ing].Milliseconds()
		}
		b.IngredientRanking = totalMillis / 1000 / n
	}

	if variant != refgraph.VariantNone && s.variantTotal > 0 {
		b.VariantWeight = float64(seconds(s.variantViews[variant])) / float64(s.variantTotal)
	}

	listing, _ := s.graph.Listing(listingID)
	if listing.Highlight {
		b.RankBooster++
	}
	if s.info.Favorites.Has(listingID) {
		b.RankBooster++
	}
	if s.graph.InCampaign(listingID) {
		b.RankBooster++
	}

	b.Score = b.score()
	return b
}

// seconds truncates d to whole seconds.
func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
