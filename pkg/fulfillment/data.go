package fulfillment

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Well-known keys providers write into fulfillment data.
const (
	DataKeyShipmentID   = "shipment_id"
	DataKeyCanceledAt   = "canceled_at"
	DataKeyCancelReason = "cancel_reason"
)

// Data is the open provider-data map stored on a fulfillment record.
// Unknown keys are opaque and must survive every update.
type Data map[string]any

// Merge returns a new map holding d's entries overlaid with patch.
// Neither input is modified.
func (d Data) Merge(patch Data) Data {
	out := make(Data, len(d)+len(patch))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// ShipmentID extracts the upstream shipment id stored under
// DataKeyShipmentID. Numbers decoded from JSON and numeric strings are
// accepted.
func (d Data) ShipmentID() (int64, bool) {
	v, ok := d[DataKeyShipmentID]
	if !ok || v == nil {
		return 0, false
	}
	switch id := v.(type) {
	case int64:
		return id, id != 0
	case int:
		return int64(id), id != 0
	case float64:
		return int64(id), id != 0
	case json.Number:
		n, err := id.Int64()
		return n, err == nil && n != 0
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		return n, err == nil && n != 0
	default:
		n, err := strconv.ParseInt(fmt.Sprint(id), 10, 64)
		return n, err == nil && n != 0
	}
}
