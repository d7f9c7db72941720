package volumes

import (
	"math/big"
	"regexp"

	"github.com/pkg/errors"
)

// diskutil prints sizes with decimal prefixes.
const (
	kilo int64 = 1000
	mega       = kilo * 1000
	giga       = mega * 1000
	tera       = giga * 1000
)

var decimalNumber = regexp.MustCompile(`^(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)$`)

func unitMultiplier(prefix byte) int64 {
	switch prefix {
	case 'T':
		return tera
	case 'G':
		return giga
	case 'M':
		return mega
	case 'K':
		return kilo
	default:
		return 1
	}
}

// CapacityFromUnits converts a diskutil size such as ("500.1", 'G') into
// bytes. Any prefix other than K, M, G or T leaves the number unscaled.
// The product is computed exactly and truncated toward zero.
func CapacityFromUnits(number string, prefix byte) (int64, error) {
	if !decimalNumber.MatchString(number) {
		return 0, errors.Wrapf(ErrMalformedCapacity, "%q", number)
	}
	r, ok := new(big.Rat).SetString(number)
	if !ok {
		return 0, errors.Wrapf(ErrMalformedCapacity, "%q", number)
	}
	r.Mul(r, new(big.Rat).SetInt64(unitMultiplier(prefix)))

	bytes := new(big.Int).Quo(r.Num(), r.Denom())
	if !bytes.IsInt64() {
		return 0, errors.Wrapf(ErrMalformedCapacity, "%q %cB overflows", number, prefix)
	}
	return bytes.Int64(), nil
}
