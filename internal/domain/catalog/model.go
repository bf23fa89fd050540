// Package catalog generates the OTC/parapharmacy products a pharmacy stocks:
// the per-run inventory snapshot and the small catalog attached to cases.
package catalog

// SchemaVersion tags every Item.
const SchemaVersion = "0.0.0"

// Item is one product line of the inventory stream.
type Item struct {
	SchemaVersion        string   `json:"schema_version"`
	SKU                  string   `json:"sku"`
	Name                 string   `json:"name"`
	Brand                string   `json:"brand"`
	Category             string   `json:"category"`
	Ingredients          []string `json:"ingredients"`
	ContraindicationTags []string `json:"contraindication_tags"`
	PriceEUR             float64  `json:"price_eur"`
	InStock              bool     `json:"in_stock"`
	StockQty             int      `json:"stock_qty"`
}

// clone returns a deep copy so callers may mutate slices freely.
func (it Item) clone() Item {
	out := it
	out.Ingredients = append([]string{}, it.Ingredients...)
	out.ContraindicationTags = append([]string{}, it.ContraindicationTags...)
	return out
}
