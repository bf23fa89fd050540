package catalog

import "math/rand/v2"

const caseCatalogSeedOffset = 12345

var caseProducts = []Item{
	{SKU: "SKU-0001", Name: "Cetirizine 10mg (example)", Category: "allergy", Ingredients: []string{"cetirizine"}, ContraindicationTags: []string{"pregnancy_unknown"}, PriceEUR: 4.99, StockQty: 12},
	{SKU: "SKU-0002", Name: "Saline nasal spray (example)", Category: "allergy", Ingredients: []string{"sodium_chloride"}, ContraindicationTags: []string{}, PriceEUR: 3.5, StockQty: 8},
	{SKU: "SKU-0003", Name: "Moisturizing cream (example)", Category: "derm", Ingredients: []string{"glycerin"}, ContraindicationTags: []string{}, PriceEUR: 7.9, StockQty: 5},
}

// ForCase returns the small product list bundled with a single case.
func ForCase(seed int64) []Item {
	r := rand.New(rand.NewPCG(uint64(seed+caseCatalogSeedOffset), 0))
	out := make([]Item, 0, len(caseProducts))
	for _, p := range caseProducts {
		it := p.clone()
		it.SchemaVersion = SchemaVersion
		it.Brand = "ExampleBrand"
		it.InStock = true
		if r.Float64() < 0.1 {
			it.InStock = false
			it.StockQty = 0
		}
		out = append(out, it)
	}
	return out
}
