package intake

// WeightedDomain pairs a domain with its relative weight in a season.
type WeightedDomain struct {
	Domain Domain
	Weight float64
}

// Season buckets months for domain seasonality.
type Season int

const (
	Winter Season = iota
	Spring
	Summer
	Autumn
)

func (s Season) String() string {
	switch s {
	case Winter:
		return "winter"
	case Spring:
		return "spring"
	case Summer:
		return "summer"
	default:
		return "autumn"
	}
}

// SeasonOf maps a calendar month (1-12) to its bucket. Months outside that
// range fall into autumn.
func SeasonOf(month int) Season {
	switch month {
	case 12, 1, 2:
		return Winter
	case 3, 4, 5:
		return Spring
	case 6, 7, 8:
		return Summer
	default:
		return Autumn
	}
}

// Order within each bucket is observable: the selector walks it linearly.
var seasonalWeights = map[Season][]WeightedDomain{
	Winter: {
		{DomainRespiratory, 0.45},
		{DomainDigestive, 0.20},
		{DomainPain, 0.15},
		{DomainSkin, 0.10},
		{DomainAllergyENT, 0.05},
		{DomainUrology, 0.03},
		{DomainEye, 0.02},
	},
	Spring: {
		{DomainAllergyENT, 0.45},
		{DomainRespiratory, 0.20},
		{DomainDigestive, 0.12},
		{DomainSkin, 0.10},
		{DomainPain, 0.08},
		{DomainEye, 0.03},
		{DomainUrology, 0.02},
	},
	Summer: {
		{DomainSkin, 0.25},
		{DomainDigestive, 0.20},
		{DomainPain, 0.18},
		{DomainRespiratory, 0.15},
		{DomainEye, 0.12},
		{DomainAllergyENT, 0.06},
		{DomainUrology, 0.04},
	},
	Autumn: {
		{DomainRespiratory, 0.35},
		{DomainAllergyENT, 0.20},
		{DomainDigestive, 0.15},
		{DomainPain, 0.12},
		{DomainSkin, 0.10},
		{DomainUrology, 0.05},
		{DomainEye, 0.03},
	},
}

// WeightsForMonth returns a copy of the ordered domain weights for month.
func WeightsForMonth(month int) []WeightedDomain {
	src := seasonalWeights[SeasonOf(month)]
	out := make([]WeightedDomain, len(src))
	copy(out, src)
	return out
}

// SelectDomain draws one seasonally weighted domain for month.
func SelectDomain(r Rand, month int) Domain {
	return ChooseWeighted(r, seasonalWeights[SeasonOf(month)])
}

// ChooseWeighted performs a linear weighted choice over items. It consumes
// exactly one uniform draw unless the total weight is not positive, in which
// case the first item is returned without drawing. The first item whose
// cumulative weight covers the draw wins.
func ChooseWeighted(r Rand, items []WeightedDomain) Domain {
	if len(items) == 0 {
		return DomainOther
	}
	var total float64
	for _, it := range items {
		total += it.Weight
	}
	if total <= 0 {
		return items[0].Domain
	}
	x := r.Float64() * total
	var acc float64
	for _, it := range items {
		acc += it.Weight
		if x <= acc {
			return it.Domain
		}
	}
	return items[len(items)-1].Domain
}
