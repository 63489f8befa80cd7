// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package views

import (
	"fmt"
	"strconv"
	"time"
)

// StreamKind names one of the three interaction logs.
type StreamKind string

const (
	StreamProductViews      StreamKind = "product_views"
	StreamProductImageViews StreamKind = "product_image_views"
	StreamCategoryViews     StreamKind = "category_views"
)

// StreamKinds lists every log in the order the pipeline reports them.
func StreamKinds() []StreamKind {
	return []StreamKind{StreamProductViews, StreamProductImageViews, StreamCategoryViews}
}

// RequiresProduct reports whether records of this stream must name a product.
func (k StreamKind) RequiresProduct() bool {
	return k != StreamCategoryViews
}

// Valid reports whether k is a known stream.
func (k StreamKind) Valid() bool {
	switch k {
	case StreamProductViews, StreamProductImageViews, StreamCategoryViews:
		return true
	}
	return false
}

// UserID is either a resolved numeric identity or anonymous.
// The zero value is anonymous.
type UserID struct {
	ID       int64
	Resolved bool
}

// ResolvedID returns a resolved identity.
func ResolvedID(id int64) UserID {
	return UserID{ID: id, Resolved: true}
}

// AnonymousID returns the anonymous identity.
func AnonymousID() UserID {
	return UserID{}
}

func (u UserID) String() string {
	if !u.Resolved {
		return "anonymous"
	}
	return strconv.FormatInt(u.ID, 10)
}

// User pairs a device token with an identity. Two users are equal only when
// both fields match, so an anonymous and a resolved record for the same
// device stay distinct keys until resolution rewrites the former.
type User struct {
	Device string
	ID     UserID
}

func (u User) String() string {
	return u.Device + "/" + u.ID.String()
}

// Scope is the (category, optional product) key a view is attributed to.
type Scope struct {
	CategoryID int64
	ProductID  int64
	HasProduct bool
}

// CategoryScope returns a category-page scope.
func CategoryScope(categoryID int64) Scope {
	return Scope{CategoryID: categoryID}
}

// ProductScope returns a product-page scope.
func ProductScope(categoryID, productID int64) Scope {
	return Scope{CategoryID: categoryID, ProductID: productID, HasProduct: true}
}

// Category returns s with the product part cleared.
func (s Scope) Category() Scope {
	return CategoryScope(s.CategoryID)
}

func (s Scope) String() string {
	if !s.HasProduct {
		return fmt.Sprintf("category:%d", s.CategoryID)
	}
	return fmt.Sprintf("category:%d/product:%d", s.CategoryID, s.ProductID)
}

// Action is the page event type.
type Action uint8

const (
	ActionOpen Action = iota + 1
	ActionClose
)

func (a Action) String() string {
	switch a {
	case ActionOpen:
		return "OPEN"
	case ActionClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// Event is one parsed OPEN or CLOSE against a scope.
type Event struct {
	Action Action
	Scope  Scope
	User   User
	At     time.Time
}

// identifier matches an OPEN to its CLOSE.
type identifier struct {
	user  User
	scope Scope
}

func (e Event) identifier() identifier {
	return identifier{user: e.User, scope: e.Scope}
}
