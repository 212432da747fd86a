package orders

import (
	"fmt"
	"math"
)

// Cents is an amount in minor currency units. Totals are summed in Cents so
// the result does not depend on the order items are added in.
type Cents int64

func ToCents(price float64) Cents {
	return Cents(math.Round(price * 100))
}

func (c Cents) Float() float64 { return float64(c) / 100 }

func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

func LineTotal(price float64, qty int) Cents {
	return ToCents(price) * Cents(qty)
}
