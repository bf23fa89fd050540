package catalog

import (
	"fmt"
	"math/rand/v2"
)

// Inventory sizes per run mode.
const (
	FullInventorySize    = 200
	CompactInventorySize = 50
)

const (
	inventorySeedOffset = 9999
	outOfStockRate      = 0.08
	maxStockQty         = 30
)

var baseProducts = []Item{
	{Name: "Cetirizine 10mg (example)", Category: "allergy", Ingredients: []string{"cetirizine"}, ContraindicationTags: []string{"pregnancy_unknown"}, PriceEUR: 4.99, StockQty: 12},
	{Name: "Saline nasal spray (example)", Category: "allergy", Ingredients: []string{"sodium_chloride"}, ContraindicationTags: []string{}, PriceEUR: 3.5, StockQty: 8},
	{Name: "Moisturizing cream (example)", Category: "dermatology", Ingredients: []string{"glycerin", "urea"}, ContraindicationTags: []string{}, PriceEUR: 7.9, StockQty: 5},
	{Name: "Emollient balm (example)", Category: "dermatology", Ingredients: []string{"emollient"}, ContraindicationTags: []string{}, PriceEUR: 9.9, StockQty: 6},
	{Name: "Simethicone 80mg (example)", Category: "digestion", Ingredients: []string{"simethicone"}, ContraindicationTags: []string{"pregnancy_unknown"}, PriceEUR: 5.5, StockQty: 10},
	{Name: "Probiotic capsules (example)", Category: "digestion", Ingredients: []string{"probiotic"}, ContraindicationTags: []string{}, PriceEUR: 12.9, StockQty: 4},
	{Name: "Oral rehydration salts (example)", Category: "digestion", Ingredients: []string{"oral_rehydration_salts"}, ContraindicationTags: []string{}, PriceEUR: 6.2, StockQty: 7},
	{Name: "Vitamin D3 (example)", Category: "general", Ingredients: []string{"vitamin_d3"}, ContraindicationTags: []string{}, PriceEUR: 8.8, StockQty: 9},
}

// SKU formats the 1-based product ordinal as a stock keeping unit.
func SKU(ordinal int) string { return fmt.Sprintf("SKU-%04d", ordinal) }

// Inventory returns n products for the run seeded by seed. Templates are
// cycled in order; names past the first cycle get a "#k" suffix. Stock is
// drawn from a source derived from seed, independent of the run source.
// At least one full template cycle is drawn so the stock of the first items
// does not depend on n.
func Inventory(seed int64, n int) []Item {
	if n < 0 {
		n = 0
	}
	r := rand.New(rand.NewPCG(uint64(seed+inventorySeedOffset), 0))

	total := max(n, len(baseProducts))
	items := make([]Item, 0, total)
	for i := 0; i < total; i++ {
		tmpl := baseProducts[i%len(baseProducts)]
		it := tmpl.clone()
		it.SchemaVersion = SchemaVersion
		it.Brand = "ExampleBrand"
		it.SKU = SKU(i + 1)
		if i >= len(baseProducts) {
			it.Name = fmt.Sprintf("%s #%d", tmpl.Name, i/len(baseProducts)+1)
		}
		if r.Float64() < outOfStockRate {
			it.InStock = false
			it.StockQty = 0
		} else {
			it.InStock = true
			it.StockQty = 1 + r.IntN(maxStockQty)
		}
		items = append(items, it)
	}
	return items[:n]
}
