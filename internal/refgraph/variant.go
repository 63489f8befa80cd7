// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package refgraph

// Variant is the single dietary tag inferred for a master product or a user
// preference row.
type Variant uint8

const (
	VariantNone Variant = iota
	VariantAlcohol
	VariantGlutenFree
	VariantSpicy
	VariantSugar
	VariantVegan
	VariantVegetarian
	VariantHalal
	VariantKosher
)

var variantNames = [...]string{
	VariantNone:       "none",
	VariantAlcohol:    "alcohol",
	VariantGlutenFree: "gluten_free",
	VariantSpicy:      "spicy",
	VariantSugar:      "sugar",
	VariantVegan:      "vegan",
	VariantVegetarian: "vegetarian",
	VariantHalal:      "halal",
	VariantKosher:     "kosher",
}

func (v Variant) String() string {
	if int(v) < len(variantNames) {
		return variantNames[v]
	}
	return "unknown"
}

// DietaryFlags are the eight boolean columns shared by product details and
// user preferences.
type DietaryFlags struct {
	Alcohol    bool
	GlutenFree bool
	Spicy      bool
	Sugar      bool
	Vegan      bool
	Vegetarian bool
	Halal      bool
	Kosher     bool
}

// InferVariant returns the first set flag in priority order (alcohol,
// gluten-free, spicy, sugar, vegan, vegetarian, halal, kosher), or
// VariantNone. Later flags are ignored once one matches.
func InferVariant(f DietaryFlags) Variant {
	// Same order as the Variant constants.
	ordered := [...]bool{
		f.Alcohol,
		f.GlutenFree,
		f.Spicy,
		f.Sugar,
		f.Vegan,
		f.Vegetarian,
		f.Halal,
		f.Kosher,
	}
	for i, set := range ordered {
		if set {
			return VariantAlcohol + Variant(i)
		}
	}
	return VariantNone
}

// VariantSet is a set of inferred variants.
type VariantSet map[Variant]struct{}

// Has reports whether v is in the set. VariantNone is never a member.
func (s VariantSet) Has(v Variant) bool {
	if v == VariantNone {
		return false
	}
	_, ok := s[v]
	return ok
}
