package tracking

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)

// One returns the fixed quantity of a serial-tracked unit.
func One() decimal.Decimal { return one }
