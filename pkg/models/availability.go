package models

// AvailabilityLabel maps an AvailabilityStatus to the badge text shown on
// menu cards.
var AvailabilityLabel = map[AvailabilityStatus]string{
	AvailabilityInStock:    "Available",
	AvailabilityLowStock:   "Almost gone",
	AvailabilityOutOfStock: "Sold out",
	AvailabilityPreorder:   "Pre-order",
}

// Label returns the badge text for an AvailabilityStatus.
// Returns "Available" for unrecognised values.
func (a AvailabilityStatus) Label() string {
	if label, ok := AvailabilityLabel[a]; ok {
		return label
	}
	return AvailabilityLabel[AvailabilityInStock]
}

// Purchasable reports whether the status allows adding the product to a cart.
func (a AvailabilityStatus) Purchasable() bool {
	return a != AvailabilityOutOfStock
}
