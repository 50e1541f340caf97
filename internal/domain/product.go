package domain

import (
	"fmt"
	"strings"
)

// ProductFamily identifies which of the payment products a consent or
// submission belongs to. Consent ids are system-generated with a family
// prefix, so the family is always derivable from the id.
type ProductFamily string

const (
	FamilyDomestic                   ProductFamily = "domestic"
	FamilyDomesticScheduled          ProductFamily = "domestic-scheduled"
	FamilyDomesticStandingOrder      ProductFamily = "domestic-standing-order"
	FamilyInternational              ProductFamily = "international"
	FamilyInternationalScheduled     ProductFamily = "international-scheduled"
	FamilyInternationalStandingOrder ProductFamily = "international-standing-order"
	FamilyFile                       ProductFamily = "file"
)

// Consent id prefixes, one per product family. Longer prefixes are matched
// first so "pisc" is never mistaken for "pic".
var familyPrefixes = []struct {
	prefix string
	family ProductFamily
}{
	{"pdsoc", FamilyDomesticStandingOrder},
	{"pisoc", FamilyInternationalStandingOrder},
	{"pdsc", FamilyDomesticScheduled},
	{"pisc", FamilyInternationalScheduled},
	{"pdc", FamilyDomestic},
	{"pic", FamilyInternational},
	{"pfc", FamilyFile},
}

// FamilyFromConsentID derives the product family from a consent id prefix.
// Ids are system-generated, so an unrecognized prefix is a configuration
// fault rather than a client error.
func FamilyFromConsentID(id string) (ProductFamily, error) {
	for _, fp := range familyPrefixes {
		if strings.HasPrefix(id, fp.prefix+"-") {
			return fp.family, nil
		}
	}
	return "", fmt.Errorf("%w: consent id %q", ErrUnknownProductFamily, id)
}

// ConsentIDPrefix returns the id prefix used when minting consent ids for
// this family.
func (f ProductFamily) ConsentIDPrefix() string {
	for _, fp := range familyPrefixes {
		if fp.family == f {
			return fp.prefix
		}
	}
	return ""
}

// IsInternational reports whether the family carries exchange-rate terms.
func (f ProductFamily) IsInternational() bool {
	switch f {
	case FamilyInternational, FamilyInternationalScheduled, FamilyInternationalStandingOrder:
		return true
	default:
		return false
	}
}
