package models

import "testing"

func TestClassifyOperator(t *testing.T) {
	cases := []struct {
		name string
		want []VehicleTag
		not  []VehicleTag
	}{
		{"APSRTC Garuda", []VehicleTag{TagAC, TagLuxury}, []VehicleTag{TagNonAC}},
		{"TSRTC Rajadhani", []VehicleTag{TagAC, TagSleeper, TagLuxury}, []VehicleTag{TagNonAC}},
		{"APSRTC Express", []VehicleTag{TagNonAC, TagSeater}, []VehicleTag{TagAC}},
		{"Volvo Multi-Axle", []VehicleTag{TagLuxury, TagNonAC}, []VehicleTag{TagAC}},
	}
	for _, tc := range cases {
		tags := ClassifyOperator(tc.name)
		for _, w := range tc.want {
			if !tags.Has(w) {
				t.Fatalf("%s: expected tag %s in %v", tc.name, w, tags)
			}
		}
		for _, n := range tc.not {
			if tags.Has(n) {
				t.Fatalf("%s: unexpected tag %s in %v", tc.name, n, tags)
			}
		}
	}
}

func TestVehicleTagsRoundTrip(t *testing.T) {
	tags := VehicleTags{TagLuxury, TagAC}
	encoded := tags.Encode()
	if encoded != ",ac,luxury," {
		t.Fatalf("unexpected encoding %q", encoded)
	}

	var back VehicleTags
	if err := back.Scan([]byte(encoded)); err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(back) != 2 || !back.Has(TagAC) || !back.Has(TagLuxury) {
		t.Fatalf("unexpected scan result %v", back)
	}
}

func TestTripCapacityDefault(t *testing.T) {
	if got := (Trip{}).Capacity(); got != DefaultSeatsTotal {
		t.Fatalf("Capacity() = %d, want %d", got, DefaultSeatsTotal)
	}
	if got := (Trip{SeatsTotal: 45}).Capacity(); got != 45 {
		t.Fatalf("Capacity() = %d, want 45", got)
	}
}
