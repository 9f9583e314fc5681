package state

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type numberKind int

const (
	notANumber numberKind = iota
	integerNumber
	floatNumber
	decimalNumber
)

var bigTen = big.NewInt(10)

func kindOfNumber(v interface{}) numberKind {
	switch v.(type) {
	case int, int32, int64:
		return integerNumber
	case float32, float64:
		return floatNumber
	case primitive.Decimal128:
		return decimalNumber
	}
	return notANumber
}

// IsNumber - Whether the value is one of the numeric types the server reports metrics in
func IsNumber(v interface{}) bool {
	return kindOfNumber(v) != notANumber
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	}
	return 0
}

// NumberToFloat - Converts any metric number to a float64, losing precision for large decimals
func NumberToFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case int, int32, int64:
		return float64(toInt64(n)), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case primitive.Decimal128:
		return strconv.ParseFloat(n.String(), 64)
	}
	return 0, fmt.Errorf("unsupported numeric type %T", v)
}

// decimalParts returns the value as unscaled * 10^exp
func decimalParts(v interface{}) (*big.Int, int, error) {
	switch n := v.(type) {
	case primitive.Decimal128:
		unscaled, exp, err := n.BigInt()
		if err != nil {
			return nil, 0, fmt.Errorf("decimal %s: %s", n.String(), err)
		}
		return unscaled, exp, nil
	case int, int32, int64:
		return big.NewInt(toInt64(n)), 0, nil
	}
	return nil, 0, fmt.Errorf("unsupported numeric type %T", v)
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(bigTen, big.NewInt(int64(n)), nil)
}

// SubtractNumbers - Computes curr - prev, keeping the representation of the inputs:
// integers stay int64, anything involving a float becomes float64, and decimals
// without floats are subtracted exactly and returned as Decimal128.
func SubtractNumbers(curr interface{}, prev interface{}) (interface{}, error) {
	currKind := kindOfNumber(curr)
	prevKind := kindOfNumber(prev)
	if currKind == notANumber {
		return nil, fmt.Errorf("unsupported numeric type %T", curr)
	}
	if prevKind == notANumber {
		return nil, fmt.Errorf("unsupported numeric type %T", prev)
	}

	if currKind == integerNumber && prevKind == integerNumber {
		return toInt64(curr) - toInt64(prev), nil
	}

	if currKind == floatNumber || prevKind == floatNumber {
		c, err := NumberToFloat(curr)
		if err != nil {
			return nil, err
		}
		p, err := NumberToFloat(prev)
		if err != nil {
			return nil, err
		}
		return c - p, nil
	}

	cUnscaled, cExp, err := decimalParts(curr)
	if err != nil {
		return nil, err
	}
	pUnscaled, pExp, err := decimalParts(prev)
	if err != nil {
		return nil, err
	}
	exp := cExp
	if pExp < exp {
		exp = pExp
	}
	cUnscaled.Mul(cUnscaled, pow10(cExp-exp))
	pUnscaled.Mul(pUnscaled, pow10(pExp-exp))

	result, ok := primitive.ParseDecimal128FromBigInt(new(big.Int).Sub(cUnscaled, pUnscaled), exp)
	if !ok {
		return nil, fmt.Errorf("decimal difference out of range")
	}
	return result, nil
}

// ExactInteger - Converts a metric number to an exact integer, truncating any
// fractional part toward zero
func ExactInteger(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case int, int32, int64:
		return big.NewInt(toInt64(n)), nil
	case float32, float64:
		f, _ := NumberToFloat(n)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("cannot convert %v to an integer", f)
		}
		i, _ := big.NewFloat(f).Int(nil)
		return i, nil
	case primitive.Decimal128:
		unscaled, exp, err := decimalParts(n)
		if err != nil {
			return nil, err
		}
		if exp > 0 {
			return unscaled.Mul(unscaled, pow10(exp)), nil
		}
		if exp < 0 {
			return unscaled.Quo(unscaled, pow10(-exp)), nil
		}
		return unscaled, nil
	}
	return nil, fmt.Errorf("unsupported numeric type %T", v)
}

// IntegerValue - Returns the integer as int64 when it fits, or as Decimal128 otherwise
func IntegerValue(i *big.Int) (interface{}, error) {
	if i.IsInt64() {
		return i.Int64(), nil
	}
	d, ok := primitive.ParseDecimal128FromBigInt(i, 0)
	if !ok {
		return nil, fmt.Errorf("integer %s out of decimal range", i.String())
	}
	return d, nil
}
