package enums

import (
	"fmt"
	"strings"
)

// ProductCategory groups catalog entries for browsing.
type ProductCategory string

const (
	ProductCategoryApparel     ProductCategory = "apparel"
	ProductCategoryFootwear    ProductCategory = "footwear"
	ProductCategoryAccessories ProductCategory = "accessories"
	ProductCategoryHome        ProductCategory = "home"
	ProductCategoryElectronics ProductCategory = "electronics"
)

var validProductCategories = []ProductCategory{
	ProductCategoryApparel,
	ProductCategoryFootwear,
	ProductCategoryAccessories,
	ProductCategoryHome,
	ProductCategoryElectronics,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory. Matching ignores case.
func ParseProductCategory(value string) (ProductCategory, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validProductCategories {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
