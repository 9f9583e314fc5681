package state

import (
	"math"
	"math/big"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// numbersEqual compares decimals by value, everything else by type and value
func numbersEqual(a interface{}, b interface{}) bool {
	da, aIsDecimal := a.(primitive.Decimal128)
	db, bIsDecimal := b.(primitive.Decimal128)
	if aIsDecimal || bIsDecimal {
		return aIsDecimal && bIsDecimal && da.String() == db.String()
	}
	return a == b
}

var subtractNumbersTests = []struct {
	curr     interface{}
	prev     interface{}
	expected interface{}
}{
	{int32(50), int32(20), int64(30)},
	{int64(20), int32(50), int64(-30)},
	{int(7), int64(2), int64(5)},
	{7.5, int32(5), 2.5},
	{int64(3), 0.5, 2.5},
	{mustDecimal("10.5"), mustDecimal("0.25"), mustDecimal("10.25")},
	{mustDecimal("200000"), int64(80000), mustDecimal("120000")},
	{mustDecimal("1.5"), 0.5, 1.0},
}

func TestSubtractNumbers(t *testing.T) {
	for _, test := range subtractNumbersTests {
		actual, err := SubtractNumbers(test.curr, test.prev)
		if err != nil {
			t.Errorf("%v - %v: unexpected error: %s", test.curr, test.prev, err)
			continue
		}
		if !numbersEqual(actual, test.expected) {
			t.Errorf("%v - %v\nexpected %v (%T)\nactual %v (%T)\n\n", test.curr, test.prev, test.expected, test.expected, actual, actual)
		}
	}
}

func TestSubtractNumbersInvalid(t *testing.T) {
	if _, err := SubtractNumbers("5", int32(1)); err == nil {
		t.Errorf("Expected error for string operand, got nil")
	}
	if _, err := SubtractNumbers(int32(5), nil); err == nil {
		t.Errorf("Expected error for nil operand, got nil")
	}
}

var exactIntegerTests = []struct {
	value    interface{}
	expected string
}{
	{int32(12), "12"},
	{int64(-4), "-4"},
	{3.99, "3"},
	{-3.99, "-3"},
	{mustDecimal("200000"), "200000"},
	{mustDecimal("1.5E+3"), "1500"},
	{mustDecimal("12345.678"), "12345"},
	{mustDecimal("123456789012345678901234567890"), "123456789012345678901234567890"},
}

func TestExactInteger(t *testing.T) {
	for _, test := range exactIntegerTests {
		actual, err := ExactInteger(test.value)
		if err != nil {
			t.Errorf("%v: unexpected error: %s", test.value, err)
			continue
		}
		if actual.String() != test.expected {
			t.Errorf("%v\nexpected %s\nactual %s\n\n", test.value, test.expected, actual.String())
		}
	}
}

func TestExactIntegerInvalid(t *testing.T) {
	for _, value := range []interface{}{math.NaN(), math.Inf(1), mustDecimal("Infinity"), "1"} {
		if _, err := ExactInteger(value); err == nil {
			t.Errorf("%v: expected error, got nil", value)
		}
	}
}

func TestIntegerValue(t *testing.T) {
	small, err := IntegerValue(big.NewInt(120000))
	if err != nil {
		t.Fatalf("Error: %s", err)
	}
	if small != int64(120000) {
		t.Errorf("expected int64(120000), got %v (%T)", small, small)
	}

	huge, _ := new(big.Int).SetString("99999999999999999999999", 10)
	large, err := IntegerValue(huge)
	if err != nil {
		t.Fatalf("Error: %s", err)
	}
	if !numbersEqual(large, mustDecimal("99999999999999999999999")) {
		t.Errorf("expected decimal 99999999999999999999999, got %v (%T)", large, large)
	}
}
