package product

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ProductListFilters describe the supported filter knobs for the browse endpoint.
type ProductListFilters struct {
	CollectionID *int64
	PriceGT      *decimal.Decimal
	PriceLT      *decimal.Decimal
	Search       string
}

// ListProductsInput captures filtering, ordering and page selection.
type ListProductsInput struct {
	Filters  ProductListFilters
	Ordering string
	Page     pagination.Page
}

// ProductListResult is one page of products plus the total match count.
type ProductListResult struct {
	Count    int64        `json:"count"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	HasNext  bool         `json:"has_next"`
	Results  []ProductDTO `json:"results"`
}

// orderableColumns maps public ordering keys to columns.
var orderableColumns = map[string]string{
	"unit_price":  "unit_price",
	"last_update": "last_update",
	"title":       "title",
}

// orderClause turns "unit_price" or "-last_update" into SQL. Unknown keys
// fall back to title.
func orderClause(ordering string) string {
	key := strings.TrimSpace(ordering)
	dir := "ASC"
	if strings.HasPrefix(key, "-") {
		dir = "DESC"
		key = key[1:]
	}
	col, ok := orderableColumns[key]
	if !ok {
		return "title ASC, id ASC"
	}
	return col + " " + dir + ", id " + dir
}
