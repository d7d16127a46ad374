// Package addressrules decides which optional address fields a carrier
// will accept for a given destination country. Carriers reject payloads
// carrying a state/province for countries that have none, so the request
// builder consults this table before populating the recipient address.
package addressrules

import "strings"

// FieldState is the only optional field carriers have rejected so far.
const FieldState = "state"

// noState lists country/territory codes whose carrier APIs reject a
// state/province field. Includes non-ISO sub-codes used by carriers for
// dependent territories (e.g. "IC" Canary Islands, "XY" Saint Barthelemy
// as seen in DHL's reference data).
var noState = map[string]bool{
	"AE": true, // United Arab Emirates
	"AT": true,
	"BE": true,
	"BH": true,
	"CH": true,
	"CZ": true,
	"DE": true,
	"DK": true,
	"FI": true,
	"FR": true,
	"GB": true,
	"HK": true,
	"IC": true, // Canary Islands (carrier sub-code)
	"IL": true,
	"KW": true,
	"LU": true,
	"NL": true,
	"NO": true,
	"NZ": true,
	"PL": true,
	"PT": true,
	"QA": true,
	"SA": true,
	"SE": true,
	"SG": true,
	"XB": true, // Bonaire (carrier sub-code)
	"XC": true, // Curacao (carrier sub-code)
	"XY": true, // Saint Barthelemy (carrier sub-code)
}

// AcceptsField reports whether the carrier payload for countryCode may
// include the named address field.
//
// Unknown country codes default to accept. That is a deliberate policy:
// rejecting shipments to territories we have not modeled yet would be
// worse than occasionally sending a field a carrier ignores.
func AcceptsField(countryCode, field string) bool {
	if field != FieldState {
		return true
	}
	return !noState[strings.ToUpper(strings.TrimSpace(countryCode))]
}
