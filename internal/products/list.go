package product

import (
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ListProductsInput describes the catalog browse filters.
type ListProductsInput struct {
	Category        *enums.ProductCategory
	Query           string
	IncludeInactive bool
	Pagination      pagination.Params
}

// ProductListResult is one page of catalog results.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}
