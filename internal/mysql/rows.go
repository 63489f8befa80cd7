// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package mysql

import (
	"time"

	"github.com/tomtom215/menurank/internal/refgraph"
	"github.com/tomtom215/menurank/internal/validation"
	"github.com/tomtom215/menurank/internal/views"
)

// viewRow is one row of a view log table.
type viewRow struct {
	ID         int64     `gorm:"column:id"`
	Action     string    `gorm:"column:action"`
	CategoryID int64     `gorm:"column:category_id"`
	ProductID  *int64    `gorm:"column:product_id"`
	MacAddress string    `gorm:"column:mac_address"`
	UserID     *int64    `gorm:"column:user_id"`
	DateInsert time.Time `gorm:"column:date_insert"`
}

func (r *viewRow) record() views.Record {
	return views.Record{
		ID:         r.ID,
		Action:     r.Action,
		CategoryID: r.CategoryID,
		ProductID:  r.ProductID,
		Device:     r.MacAddress,
		UserID:     r.UserID,
		Timestamp:  r.DateInsert.UTC().Format(validation.TimestampLayout),
	}
}

type listingRow struct {
	ID        int64  `gorm:"column:id"`
	IDProduct *int64 `gorm:"column:id_product"`
	Highlight int8   `gorm:"column:highlight"`
}

// flagsRow holds the dietary columns shared by product_detail and
// users_preferences.
type flagsRow struct {
	ID         int64 `gorm:"column:id"`
	Alcohol    int8  `gorm:"column:alcohol"`
	GlutenFree int8  `gorm:"column:gluten_free"`
	Spicy      int8  `gorm:"column:spicy"`
	Sugar      int8  `gorm:"column:sugar"`
	Vegan      int8  `gorm:"column:vegan"`
	Vegetarian int8  `gorm:"column:vegetarian"`
	Halal      int8  `gorm:"column:halal"`
	Casherut   int8  `gorm:"column:casherut"`
}

func (r *flagsRow) flags() refgraph.DietaryFlags {
	return refgraph.DietaryFlags{
		Alcohol:    r.Alcohol > 0,
		GlutenFree: r.GlutenFree > 0,
		Spicy:      r.Spicy > 0,
		Sugar:      r.Sugar > 0,
		Vegan:      r.Vegan > 0,
		Vegetarian: r.Vegetarian > 0,
		Halal:      r.Halal > 0,
		Kosher:     r.Casherut > 0,
	}
}

// pairRow is any two-column link table.
type pairRow struct {
	A int64 `gorm:"column:a"`
	B int64 `gorm:"column:b"`
}

// RankingRow is a row of users_product_ai.
type RankingRow struct {
	ID         int64   `gorm:"column:id;primaryKey;autoIncrement"`
	IDUser     *int64  `gorm:"column:id_user"`
	MacAddress *string `gorm:"column:mac_address"`
	IDProduct  int64   `gorm:"column:id_product"`
	Rank       int32   `gorm:"column:rank"`
}

// TableName maps RankingRow to the serving table.
func (RankingRow) TableName() string { return TableRankings }
