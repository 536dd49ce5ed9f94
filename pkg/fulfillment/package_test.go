package fulfillment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tournevent/paccofacile/pkg/fulfillment"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		items []fulfillment.Item
		want  fulfillment.Package
	}{
		{
			name:  "empty",
			items: nil,
			want:  fulfillment.Package{},
		},
		{
			name:  "single item uses actual weight",
			items: []fulfillment.Item{{Length: 10, Width: 10, Height: 10, Weight: 5}},
			want:  fulfillment.Package{Length: 10, Width: 10, Height: 10, Weight: 5},
		},
		{
			name: "side by side",
			items: []fulfillment.Item{
				{Length: 10, Width: 10, Height: 10, Weight: 5},
				{Length: 5, Width: 5, Height: 5, Weight: 1},
			},
			want: fulfillment.Package{Length: 10, Width: 15, Height: 10, Weight: 6},
		},
		{
			name:  "volumetric weight wins",
			items: []fulfillment.Item{{Length: 50, Width: 40, Height: 30, Weight: 2}},
			want:  fulfillment.Package{Length: 50, Width: 40, Height: 30, Weight: 12},
		},
		{
			name: "rounded to two decimals",
			items: []fulfillment.Item{
				{Length: 1, Width: 1, Height: 1, Weight: 0.333},
				{Length: 1, Width: 1, Height: 1, Weight: 0.333},
			},
			want: fulfillment.Package{Length: 1, Width: 2, Height: 1, Weight: 0.67},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fulfillment.Aggregate(tt.items))
		})
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	a := fulfillment.Item{Length: 30, Width: 20, Height: 5, Weight: 1.2}
	b := fulfillment.Item{Length: 10, Width: 40, Height: 25, Weight: 0.4}
	c := fulfillment.Item{Length: 12, Width: 12, Height: 12, Weight: 3}

	want := fulfillment.Aggregate([]fulfillment.Item{a, b, c})
	assert.Equal(t, want, fulfillment.Aggregate([]fulfillment.Item{c, b, a}))
	assert.Equal(t, want, fulfillment.Aggregate([]fulfillment.Item{b, a, c}))
}

func TestAggregate_DoesNotModifyInput(t *testing.T) {
	items := []fulfillment.Item{
		{Length: 1, Width: 1, Height: 1, Weight: 1},
		{Length: 9, Width: 9, Height: 9, Weight: 1},
	}
	fulfillment.Aggregate(items)
	assert.Equal(t, 1.0, items[0].Length)
}

func TestPackage_Validate(t *testing.T) {
	assert.ErrorIs(t, fulfillment.Package{}.Validate(), fulfillment.ErrInvalidPackage)
	assert.ErrorIs(t, fulfillment.Package{Length: 10, Weight: -1}.Validate(), fulfillment.ErrInvalidPackage)
	assert.NoError(t, fulfillment.Package{Weight: 0.01}.Validate())
}

func TestItemsFromLineItems(t *testing.T) {
	lines := []fulfillment.LineItem{
		{Quantity: 2, Variant: fulfillment.Variant{Length: 10, Width: 5, Height: 2, Weight: 250}},
		{Quantity: 0, Variant: fulfillment.Variant{Length: 99, Weight: 1000}},
		{Quantity: 1, Variant: fulfillment.Variant{Weight: 1500}},
	}

	items := fulfillment.ItemsFromLineItems(lines)

	assert.Len(t, items, 3)
	assert.Equal(t, fulfillment.Item{Length: 10, Width: 5, Height: 2, Weight: 0.25}, items[0])
	assert.Equal(t, items[0], items[1])
	assert.Equal(t, fulfillment.Item{Weight: 1.5}, items[2])
}
