package model

import (
	"fmt"
	"strings"
)

// ServiceType identifies how an order is fulfilled. The canonical codes match
// what the backend stores in cart metadata and order rows.
type ServiceType string

const (
	ServiceUnknown  ServiceType = ""
	ServiceDineIn   ServiceType = "DINE_IN"
	ServiceTakeaway ServiceType = "TAKEAWAY"
	ServiceUberEats ServiceType = "UBEREATS"
	ServiceDoorDash ServiceType = "DOORDASH"
)

// serviceSynonyms maps accepted alternate spellings to canonical codes.
// Aggregator names show up with and without separators depending on which
// surface produced them; both must resolve to the same lookup code.
var serviceSynonyms = map[string]ServiceType{
	"DINE_IN":   ServiceDineIn,
	"DINEIN":    ServiceDineIn,
	"DINE-IN":   ServiceDineIn,
	"TAKEAWAY":  ServiceTakeaway,
	"TAKE_AWAY": ServiceTakeaway,
	"PICKUP":    ServiceTakeaway,
	"UBEREATS":  ServiceUberEats,
	"UBER_EATS": ServiceUberEats,
	"UBER-EATS": ServiceUberEats,
	"DOORDASH":  ServiceDoorDash,
	"DOOR_DASH": ServiceDoorDash,
	"DOOR-DASH": ServiceDoorDash,
}

// NormalizeServiceType resolves a raw service-type string (any accepted
// spelling, any case) to its canonical code. Returns "" for unknown input.
func NormalizeServiceType(raw string) ServiceType {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "_")
	return serviceSynonyms[key]
}

// IsAggregator reports whether checkout for this service type hands off to an
// external delivery platform instead of direct payment.
func (s ServiceType) IsAggregator() bool {
	return s == ServiceUberEats || s == ServiceDoorDash
}

// IsDirect reports whether checkout proceeds to the payment provider.
func (s ServiceType) IsDirect() bool {
	return s == ServiceDineIn || s == ServiceTakeaway
}

// FulfillmentSelection is the user's chosen fulfillment method. Required
// before checkout may proceed; persisted client-side so it survives a login
// redirect round-trip.
type FulfillmentSelection struct {
	ServiceType ServiceType `json:"service_type"`
	TableNumber int         `json:"table_number,omitempty"`
}

// Validate enforces the selection invariants: a known service type, and a
// positive table number for dine-in.
func (f FulfillmentSelection) Validate() error {
	switch f.ServiceType {
	case ServiceDineIn:
		if f.TableNumber <= 0 {
			return &APIError{
				Code:       "VALIDATION_ERROR",
				Message:    "invalid table_number: dine-in requires a positive table number",
				StatusCode: 400,
				Err:        fmt.Errorf("%w: %w", ErrInvalidRequest, ErrTableNumberRequired),
			}
		}
		return nil
	case ServiceTakeaway, ServiceUberEats, ServiceDoorDash:
		return nil
	case "":
		return NewValidationError("service_type", "fulfillment selection required")
	default:
		return NewValidationError("service_type", "unknown service type "+string(f.ServiceType))
	}
}
