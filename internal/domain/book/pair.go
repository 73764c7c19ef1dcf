package book

import "strings"

// AssetID identifies one leg of a trading pair. The native coin is
// represented by the zero value (an empty string), never by a
// magic constant, so callers can't forget to special-case it.
type AssetID string

// IsNative reports whether the id refers to the chain's native coin
// rather than an issued 32-byte asset.
func (a AssetID) IsNative() bool { return a == "" }

// Pair is an ordered pair of assets: (amount asset, price asset).
// Its canonical string form is used as the book actor's id and as the
// journal/snapshot namespace key.
type Pair struct {
	AmountAsset AssetID
	PriceAsset  AssetID
}

// Canonical renders the pair in "amountAsset-priceAsset" form, using
// "WAVES" for the native-coin sentinel the way the rest of the pack's
// market-data services name pairs.
func (p Pair) Canonical() string {
	amount := string(p.AmountAsset)
	if p.AmountAsset.IsNative() {
		amount = "WAVES"
	}
	price := string(p.PriceAsset)
	if p.PriceAsset.IsNative() {
		price = "WAVES"
	}
	return amount + "-" + price
}

func (p Pair) String() string { return p.Canonical() }

// ParsePair parses the canonical "amountAsset-priceAsset" form back
// into a Pair. It is the inverse of Canonical for any pair produced by
// it.
func ParsePair(s string) (Pair, bool) {
	idx := strings.IndexByte(s, '-')
	if idx < 0 {
		return Pair{}, false
	}
	amount, price := s[:idx], s[idx+1:]
	if amount == "" || price == "" {
		return Pair{}, false
	}
	if amount == "WAVES" {
		amount = ""
	}
	if price == "WAVES" {
		price = ""
	}
	return Pair{AmountAsset: AssetID(amount), PriceAsset: AssetID(price)}, true
}
