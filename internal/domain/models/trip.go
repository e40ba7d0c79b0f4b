package models

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSeatsTotal applies when a trip has no seat count set.
const DefaultSeatsTotal = 40

type VehicleTag string

const (
	TagAC      VehicleTag = "ac"
	TagNonAC   VehicleTag = "nonac"
	TagSleeper VehicleTag = "sleeper"
	TagSeater  VehicleTag = "seater"
	TagLuxury  VehicleTag = "luxury"
)

func ParseVehicleTag(s string) (VehicleTag, bool) {
	switch t := VehicleTag(strings.ToLower(strings.TrimSpace(s))); t {
	case TagAC, TagNonAC, TagSleeper, TagSeater, TagLuxury:
		return t, true
	}
	return "", false
}

// VehicleTags is stored as ",ac,luxury," so a single LIKE matches one tag.
type VehicleTags []VehicleTag

func (v VehicleTags) Has(tag VehicleTag) bool {
	for _, t := range v {
		if t == tag {
			return true
		}
	}
	return false
}

func (v VehicleTags) Value() (driver.Value, error) {
	return v.Encode(), nil
}

func (v VehicleTags) Encode() string {
	if len(v) == 0 {
		return ""
	}
	parts := make([]string, 0, len(v))
	for _, t := range v {
		parts = append(parts, string(t))
	}
	sort.Strings(parts)
	return "," + strings.Join(parts, ",") + ","
}

func (v *VehicleTags) Scan(src any) error {
	var raw string
	switch s := src.(type) {
	case nil:
		*v = nil
		return nil
	case string:
		raw = s
	case []byte:
		raw = string(s)
	default:
		return fmt.Errorf("vehicle tags: unsupported type %T", src)
	}
	out := VehicleTags{}
	for _, p := range strings.Split(raw, ",") {
		if t, ok := ParseVehicleTag(p); ok {
			out = append(out, t)
		}
	}
	*v = out
	return nil
}

// ClassifyOperator infers tags from an operator name. It is a keyword
// heuristic, used only to fill tags for trips saved without them.
func ClassifyOperator(name string) VehicleTags {
	n := strings.ToLower(name)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(n, w) {
				return true
			}
		}
		return false
	}

	tags := VehicleTags{}
	if has("ac", "a/c", "garuda", "rajadhani", "lux") {
		tags = append(tags, TagAC)
	}
	if !has("ac", "a/c", "garuda", "rajadhani") {
		tags = append(tags, TagNonAC)
	}
	if has("sleeper", "berth", "rajadhani") {
		tags = append(tags, TagSleeper)
	}
	if has("seater", "express", "super") {
		tags = append(tags, TagSeater)
	}
	if has("lux", "garuda", "rajadhani", "volvo") {
		tags = append(tags, TagLuxury)
	}
	return tags
}

type Trip struct {
	ID         int64           `db:"id" json:"id"`
	Operator   string          `db:"name" json:"name"`
	FromCity   string          `db:"from_city" json:"from_city"`
	ToCity     string          `db:"to_city" json:"to_city"`
	DepartAt   time.Time       `db:"depart_time" json:"depart_time"`
	ArriveAt   time.Time       `db:"arrive_time" json:"arrive_time"`
	SeatsTotal int             `db:"seats_total" json:"seats_total"`
	Fare       decimal.Decimal `db:"fare" json:"fare"`
	Tags       VehicleTags     `db:"vehicle_tags" json:"vehicle_tags"`
}

// Capacity returns the seat count, defaulting when unset.
func (t Trip) Capacity() int {
	if t.SeatsTotal <= 0 {
		return DefaultSeatsTotal
	}
	return t.SeatsTotal
}

// DepartDate is the date portion of the scheduled departure.
func (t Trip) DepartDate() string {
	if t.DepartAt.IsZero() {
		return ""
	}
	return t.DepartAt.Format("2006-01-02")
}

// TripFilter fields are optional and AND-combined.
type TripFilter struct {
	From     string
	To       string
	Date     string
	Operator string
	FareMin  *decimal.Decimal
	FareMax  *decimal.Decimal
	Type     VehicleTag
}

// SeatMapView is the availability of one trip on one journey date.
type SeatMapView struct {
	TripID     int64           `json:"bus_id"`
	Date       string          `json:"date"`
	Layout     string          `json:"layout"`
	Fare       decimal.Decimal `json:"fare"`
	SeatsTotal int             `json:"seats_total"`
	Booked     []string        `json:"booked"`
	Seats      []string        `json:"seats"`
}
