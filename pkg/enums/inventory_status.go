package enums

// InventoryStatus flags products that need restocking.
type InventoryStatus string

const (
	InventoryStatusLow InventoryStatus = "Low"
	InventoryStatusOK  InventoryStatus = "OK"
)

// LowInventoryThreshold is the stock level below which a product is reported as low.
const LowInventoryThreshold = 10

// InventoryStatusFor classifies a stock count.
func InventoryStatusFor(inventory int) InventoryStatus {
	if inventory < LowInventoryThreshold {
		return InventoryStatusLow
	}
	return InventoryStatusOK
}
