// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package refgraph

import (
	"slices"
)

// IDSet is a set of numeric ids.
type IDSet map[int64]struct{}

// Add inserts id.
func (s IDSet) Add(id int64) {
	s[id] = struct{}{}
}

// Has reports whether id is in the set. A nil set is empty.
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Intersects reports whether s and other share an id.
func (s IDSet) Intersects(other IDSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for id := range small {
		if large.Has(id) {
			return true
		}
	}
	return false
}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Listing is a product offered at one restaurant.
type Listing struct {
	ID        int64
	MasterID  int64
	HasMaster bool
	Highlight bool
}

// UserInfo is the reference profile of one user. The zero value is the
// empty profile used for anonymous users and users without rows.
type UserInfo struct {
	Allergens   IDSet
	Preferences VariantSet
	Favorites   IDSet
}

// Graph holds the reference lookups. It is immutable once built and safe
// for concurrent reads.
type Graph struct {
	listings           map[int64]Listing
	variants           map[int64]Variant
	masterIngredients  map[int64]IDSet
	listingIngredients map[int64]IDSet
	allergens          map[int64]IDSet
	campaign           IDSet
	users              map[int64]UserInfo
}

// Build groups the reference batches into lookups. Duplicate listing rows
// keep the first occurrence; duplicate detail and preference rows keep the
// last.
func Build(d *Dataset) *Graph {
	g := &Graph{
		listings:           make(map[int64]Listing, len(d.Listings)),
		variants:           make(map[int64]Variant, len(d.ProductDetails)),
		masterIngredients:  make(map[int64]IDSet),
		listingIngredients: make(map[int64]IDSet),
		allergens:          make(map[int64]IDSet),
		campaign:           make(IDSet, len(d.CampaignListings)),
		users:              make(map[int64]UserInfo),
	}

	for _, row := range d.Listings {
		if _, seen := g.listings[row.ID]; seen {
			continue
		}
		l := Listing{ID: row.ID, Highlight: row.Highlight}
		if row.MasterID != nil {
			l.MasterID, l.HasMaster = *row.MasterID, true
		}
		g.listings[row.ID] = l
	}

	for _, row := range d.ProductDetails {
		g.variants[row.ProductID] = InferVariant(row.Flags)
	}

	for _, row := range d.ProductIngredients {
		addTo(g.masterIngredients, row.ProductID, row.IngredientID)
	}
	for _, row := range d.ListingIngredients {
		addTo(g.listingIngredients, row.ListingID, row.IngredientID)
	}
	for _, row := range d.IngredientAllergens {
		addTo(g.allergens, row.IngredientID, row.AllergenID)
	}
	for _, id := range d.CampaignListings {
		g.campaign.Add(id)
	}

	g.foldUsers(d)
	return g
}

// foldUsers merges the allergen, preference and favorite streams per user.
func (g *Graph) foldUsers(d *Dataset) {
	entry := func(id int64) UserInfo {
		info, ok := g.users[id]
		if !ok {
			info = UserInfo{Allergens: IDSet{}, Preferences: VariantSet{}, Favorites: IDSet{}}
			g.users[id] = info
		}
		return info
	}

	for _, row := range d.UserAllergens {
		entry(row.UserID).Allergens.Add(row.AllergenID)
	}
	for _, row := range d.UserPreferences {
		info := entry(row.UserID)
		prefs := VariantSet{}
		if v := InferVariant(row.Flags); v != VariantNone {
			prefs[v] = struct{}{}
		}
		info.Preferences = prefs
		g.users[row.UserID] = info
	}
	for _, row := range d.UserFavorites {
		entry(row.UserID).Favorites.Add(row.ListingID)
	}
}

func addTo(m map[int64]IDSet, key, id int64) {
	set, ok := m[key]
	if !ok {
		set = make(IDSet)
		m[key] = set
	}
	set.Add(id)
}

// Listing returns the listing with the given id.
func (g *Graph) Listing(id int64) (Listing, bool) {
	l, ok := g.listings[id]
	return l, ok
}

// MasterOf returns the master product of a listing.
func (g *Graph) MasterOf(listingID int64) (int64, bool) {
	l, ok := g.listings[listingID]
	if !ok || !l.HasMaster {
		return 0, false
	}
	return l.MasterID, true
}

// MasterVariant returns the inferred variant of a master product.
func (g *Graph) MasterVariant(masterID int64) Variant {
	return g.variants[masterID]
}

// VariantOf returns the variant of a listing's master product, or VariantNone.
func (g *Graph) VariantOf(listingID int64) Variant {
	master, ok := g.MasterOf(listingID)
	if !ok {
		return VariantNone
	}
	return g.variants[master]
}

// IngredientsFor returns the union of the listing's own ingredients and
// those of its master product. The result is a fresh set, never nil.
func (g *Graph) IngredientsFor(listingID int64) IDSet {
	own := g.listingIngredients[listingID]
	var inherited IDSet
	if master, ok := g.MasterOf(listingID); ok {
		inherited = g.masterIngredients[master]
	}

	out := make(IDSet, len(own)+len(inherited))
	for id := range own {
		out.Add(id)
	}
	for id := range inherited {
		out.Add(id)
	}
	return out
}

// AllergensOf returns the allergens of an ingredient. The result may be nil
// and must not be modified.
func (g *Graph) AllergensOf(ingredientID int64) IDSet {
	return g.allergens[ingredientID]
}

// ContainsAllergen reports whether any of the ingredients maps to one of
// the given allergens.
func (g *Graph) ContainsAllergen(ingredients, allergens IDSet) bool {
	if len(allergens) == 0 {
		return false
	}
	for id := range ingredients {
		if g.allergens[id].Intersects(allergens) {
			return true
		}
	}
	return false
}

// InCampaign reports whether a listing is boosted by a campaign.
func (g *Graph) InCampaign(listingID int64) bool {
	return g.campaign.Has(listingID)
}

// UserInfo returns the profile of a user, or the empty profile.
func (g *Graph) UserInfo(userID int64) UserInfo {
	return g.users[userID]
}

// Stats summarizes the graph size.
type Stats struct {
	Listings  int
	Variants  int
	Users     int
	Campaign  int
	Allergens int
}

// Stats returns the graph size.
func (g *Graph) Stats() Stats {
	return Stats{
		Listings:  len(g.listings),
		Variants:  len(g.variants),
		Users:     len(g.users),
		Campaign:  len(g.campaign),
		Allergens: len(g.allergens),
	}
}
