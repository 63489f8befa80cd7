// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package refgraph

// ListingRow is a product offered by one restaurant.
type ListingRow struct {
	ID        int64
	MasterID  *int64
	Highlight bool
}

// ProductDetailRow carries the dietary flags of a master product.
type ProductDetailRow struct {
	ProductID int64
	Flags     DietaryFlags
}

// ProductIngredientRow links a master product to an ingredient.
type ProductIngredientRow struct {
	ProductID    int64
	IngredientID int64
}

// ListingIngredientRow links a restaurant-specific ingredient to a listing.
type ListingIngredientRow struct {
	ListingID    int64
	IngredientID int64
}

// IngredientAllergenRow links an ingredient to an allergen.
type IngredientAllergenRow struct {
	IngredientID int64
	AllergenID   int64
}

// UserAllergenRow declares an allergy of a user.
type UserAllergenRow struct {
	UserID     int64
	AllergenID int64
}

// UserPreferenceRow carries the dietary preferences of a user.
type UserPreferenceRow struct {
	UserID int64
	Flags  DietaryFlags
}

// UserFavoriteRow marks a listing as a user's favorite.
type UserFavoriteRow struct {
	UserID    int64
	ListingID int64
}

// Dataset holds every reference batch a Graph is built from.
type Dataset struct {
	Listings            []ListingRow
	ProductDetails      []ProductDetailRow
	ProductIngredients  []ProductIngredientRow
	ListingIngredients  []ListingIngredientRow
	IngredientAllergens []IngredientAllergenRow
	UserAllergens       []UserAllergenRow
	UserPreferences     []UserPreferenceRow
	UserFavorites       []UserFavoriteRow
	CampaignListings    []int64
}

// Rows returns the row count of every batch keyed by source table name.
func (d *Dataset) Rows() map[string]int {
	return map[string]int{
		TableListings:            len(d.Listings),
		TableProductDetails:      len(d.ProductDetails),
		TableProductIngredients:  len(d.ProductIngredients),
		TableListingIngredients:  len(d.ListingIngredients),
		TableIngredientAllergens: len(d.IngredientAllergens),
		TableUserAllergens:       len(d.UserAllergens),
		TableUserPreferences:     len(d.UserPreferences),
		TableUserFavorites:       len(d.UserFavorites),
		TableCampaignListings:    len(d.CampaignListings),
	}
}

// Source table names shared by the relational, snapshot and file adapters.
const (
	TableListings            = "product_restaurant"
	TableProductDetails      = "product_detail"
	TableProductIngredients  = "product_ingredient"
	TableListingIngredients  = "product_restaurant_ingredient"
	TableIngredientAllergens = "ingredient_allergen"
	TableUserAllergens       = "users_allergen"
	TableUserPreferences     = "users_preferences"
	TableUserFavorites       = "users_product_favorite"
	TableCampaignListings    = "advisor_campaign_product"
)

// Tables lists the reference tables in load order.
func Tables() []string {
	return []string{
		TableListings,
		TableProductDetails,
		TableProductIngredients,
		TableListingIngredients,
		TableIngredientAllergens,
		TableUserAllergens,
		TableUserPreferences,
		TableUserFavorites,
		TableCampaignListings,
	}
}
