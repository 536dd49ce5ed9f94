package fulfillment_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/paccofacile/pkg/fulfillment"
)

func TestData_Merge(t *testing.T) {
	base := fulfillment.Data{"a": 1, "b": "x"}

	merged := base.Merge(fulfillment.Data{"b": "y", "c": true})

	assert.Equal(t, fulfillment.Data{"a": 1, "b": "y", "c": true}, merged)
	assert.Equal(t, fulfillment.Data{"a": 1, "b": "x"}, base)
}

func TestData_MergeNil(t *testing.T) {
	var base fulfillment.Data

	merged := base.Merge(fulfillment.Data{"shipment_id": int64(1)})

	assert.Equal(t, fulfillment.Data{"shipment_id": int64(1)}, merged)
}

func TestData_ShipmentID(t *testing.T) {
	tests := []struct {
		name   string
		data   fulfillment.Data
		want   int64
		wantOK bool
	}{
		{"int64", fulfillment.Data{"shipment_id": int64(42)}, 42, true},
		{"int", fulfillment.Data{"shipment_id": 42}, 42, true},
		{"float64", fulfillment.Data{"shipment_id": float64(42)}, 42, true},
		{"string", fulfillment.Data{"shipment_id": "42"}, 42, true},
		{"json number", fulfillment.Data{"shipment_id": json.Number("42")}, 42, true},
		{"missing", fulfillment.Data{}, 0, false},
		{"nil", fulfillment.Data{"shipment_id": nil}, 0, false},
		{"zero", fulfillment.Data{"shipment_id": 0}, 0, false},
		{"garbage", fulfillment.Data{"shipment_id": "abc"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.data.ShipmentID()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestData_ShipmentIDFromJSON(t *testing.T) {
	var data fulfillment.Data
	require.NoError(t, json.Unmarshal([]byte(`{"shipment_id": 987654, "other": "kept"}`), &data))

	id, ok := data.ShipmentID()

	assert.True(t, ok)
	assert.Equal(t, int64(987654), id)
}
