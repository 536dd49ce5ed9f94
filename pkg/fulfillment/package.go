package fulfillment

import (
	"math"
	"sort"
)

// VolumetricDivisor converts cm³ into billable kilograms.
const VolumetricDivisor = 5000

// Item is a single physical unit to ship. Dimensions in cm, weight in kg.
type Item struct {
	Length float64
	Width  float64
	Height float64
	Weight float64
}

// Volume returns the item volume in cm³.
func (i Item) Volume() float64 {
	return i.Length * i.Width * i.Height
}

// Package is the single parcel the items are shipped in.
type Package struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// Validate reports ErrInvalidPackage for packages that cannot be quoted.
func (p Package) Validate() error {
	if p.Weight <= 0 {
		return ErrInvalidPackage
	}
	return nil
}

// Aggregate reduces items into one package: items are laid side by side, so
// the width is summed while length and height take the maximum. The billable
// weight is the greater of the actual and the volumetric weight, rounded to
// two decimals. The input slice is not modified.
func Aggregate(items []Item) Package {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Volume() > sorted[b].Volume()
	})

	var pkg Package
	var actual float64
	for _, it := range sorted {
		actual += it.Weight
		pkg.Length = math.Max(pkg.Length, it.Length)
		pkg.Width += it.Width
		pkg.Height = math.Max(pkg.Height, it.Height)
	}

	volumetric := pkg.Length * pkg.Width * pkg.Height / VolumetricDivisor
	pkg.Weight = round2(math.Max(actual, volumetric))
	return pkg
}

// ItemsFromLineItems expands line items into one Item per unit, converting
// variant weights from grams to kilograms.
func ItemsFromLineItems(lines []LineItem) []Item {
	var items []Item
	for _, line := range lines {
		for n := 0; n < line.Quantity; n++ {
			items = append(items, Item{
				Length: line.Variant.Length,
				Width:  line.Variant.Width,
				Height: line.Variant.Height,
				Weight: line.Variant.Weight / 1000,
			})
		}
	}
	return items
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
