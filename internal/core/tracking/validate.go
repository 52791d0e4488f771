// Package tracking enforces the serial/lot identifier policy.
// Everything here is pure: no I/O, no side effects.
package tracking

import (
	"fmt"
	"strings"

	"github.com/example/lotledger/internal/models"
)

// Validate checks that exactly one of serial and lot is populated and returns the
// resulting tracking type.
//
// An explicit declared type wins over inference but must agree with the populated
// field. An empty or legacy "none" declaration is resolved from whichever field is
// populated. When kind is set, the resolved type must be one the kind can hold.
func Validate(serial, lot string, kind models.ItemKind, declared models.TrackingType) (models.TrackingType, error) {
	serial = strings.TrimSpace(serial)
	lot = strings.TrimSpace(lot)

	fail := func(format string, args ...any) (models.TrackingType, error) {
		return "", &models.InvalidTrackingError{
			Serial:   serial,
			Lot:      lot,
			Declared: declared,
			Kind:     kind,
			Reason:   fmt.Sprintf(format, args...),
		}
	}

	if serial != "" && lot != "" {
		return fail("both serial number %q and lot number %q supplied", serial, lot)
	}

	var resolved models.TrackingType
	switch models.TrackingType(strings.ToLower(strings.TrimSpace(string(declared)))) {
	case "", models.TrackingNone:
		switch {
		case serial != "":
			resolved = models.TrackingSerial
		case lot != "":
			resolved = models.TrackingLot
		default:
			return fail("neither serial number nor lot number supplied")
		}
	case models.TrackingSerial:
		if serial == "" {
			if lot != "" {
				return fail("declared serial tracking but only lot number %q supplied", lot)
			}
			return fail("declared serial tracking but no serial number supplied")
		}
		resolved = models.TrackingSerial
	case models.TrackingLot:
		if lot == "" {
			if serial != "" {
				return fail("declared lot tracking but only serial number %q supplied", serial)
			}
			return fail("declared lot tracking but no lot number supplied")
		}
		resolved = models.TrackingLot
	default:
		return fail("unknown tracking type %q", declared)
	}

	if kind != "" && !kind.Supports(resolved) {
		return fail("%s items cannot be %s-tracked", kind, resolved)
	}
	return resolved, nil
}

// ResolveDeclared normalizes a declared tag without requiring identifiers. It is used
// at goods receipt to decide whether a lot number must be minted before validation.
// Kinds that only hold one tracking type resolve to it when nothing is declared.
func ResolveDeclared(kind models.ItemKind, declared models.TrackingType) models.TrackingType {
	d := models.TrackingType(strings.ToLower(strings.TrimSpace(string(declared))))
	if d == models.TrackingSerial || d == models.TrackingLot {
		return d
	}
	switch {
	case kind == "":
		return ""
	case kind.Supports(models.TrackingLot) && !kind.Supports(models.TrackingSerial):
		return models.TrackingLot
	case kind.Supports(models.TrackingSerial) && !kind.Supports(models.TrackingLot):
		return models.TrackingSerial
	}
	return ""
}

// CheckItem re-validates a fully built item, including the serial quantity rule.
func CheckItem(item *models.Item) error {
	tt, err := Validate(item.SerialNumber, item.LotNumber, item.Kind, item.TrackingType)
	if err != nil {
		return err
	}
	if tt == models.TrackingSerial && !item.Quantity.Equal(one) {
		return &models.InvalidQuantityError{
			Requested: item.Quantity,
			Reason:    "serial-tracked items always have quantity 1",
		}
	}
	return nil
}
