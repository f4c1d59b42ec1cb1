package holdem

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Chips is a currency amount in minor units (1/100).
type Chips int64

// Whole converts whole currency units into Chips.
func Whole(units int64) Chips { return Chips(units * 100) }

// ChipsFromFloat rounds a decimal amount to the nearest minor unit.
func ChipsFromFloat(v float64) Chips {
	return Chips(math.Round(v * 100))
}

func (c Chips) Float() float64 { return float64(c) / 100 }

func (c Chips) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON writes a plain decimal number with two places.
func (c Chips) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Chips) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		// accept quoted amounts too
		var s string
		if err2 := json.Unmarshal(data, &s); err2 != nil {
			return err
		}
		f, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
	}
	*c = ChipsFromFloat(f)
	return nil
}

func minChips(a, b Chips) Chips {
	if a < b {
		return a
	}
	return b
}

func maxChips(a, b Chips) Chips {
	if a > b {
		return a
	}
	return b
}
