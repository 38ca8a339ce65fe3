package utils

import (
	"fmt"
	"strings"
)

// PlateLength is the normalized plate size: 7 alphanumeric characters,
// covering both the older LLL-NNNN pattern and Mercosul plates.
const PlateLength = 7

// NormalizePlate uppercases a raw plate and strips dashes and surrounding
// whitespace. It returns the normalized plate and whether it is valid
// (exactly 7 alphanumeric characters).
func NormalizePlate(raw string) (string, bool) {
	p := strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(raw, "-", "")))
	if len(p) != PlateLength {
		return p, false
	}
	for i := 0; i < len(p); i++ {
		c := p[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return p, false
		}
	}
	return p, true
}

// FormatPlate renders a normalized plate with the display dash (ABC-1234).
// Plates of unexpected length are returned unchanged.
func FormatPlate(plate string) string {
	if len(plate) == PlateLength {
		return plate[:3] + "-" + plate[3:]
	}
	return plate
}

// FormatTicketNumber renders the printed ticket number for a ticket id,
// zero-padded: TCK-000042.
func FormatTicketNumber(id uint64) string {
	return fmt.Sprintf("TCK-%06d", id)
}
