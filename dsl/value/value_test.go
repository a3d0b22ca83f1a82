package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthiness(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Null, false},
		{"empty string", String(""), false},
		{"nonempty string", String("x"), true},
		{"zero integer", Integer(0), false},
		{"nonzero integer", Integer(1), true},
		{"zero decimal", Decimal(0), false},
		{"boolean false", Boolean(false), false},
		{"boolean true", Boolean(true), true},
		{"date always true", Date(time.Now()), true},
		{"empty array", Array(nil), false},
		{"nonempty array", Array([]Value{Integer(1)}), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Truthiness(c.v))
		})
	}
}

func TestToIntegerRejectsFractionalString(t *testing.T) {
	_, err := ToInteger(String("3.5"))
	require.Error(t, err)
}

func TestToIntegerFromWholeDecimal(t *testing.T) {
	i, err := ToInteger(Decimal(4.0))
	require.NoError(t, err)
	assert.Equal(t, int64(4), i)

	_, err = ToInteger(Decimal(4.5))
	require.Error(t, err)
}

func TestToBooleanLiteralsOnly(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "false", "1", "0"} {
		_, err := ToBoolean(String(s))
		require.NoError(t, err, s)
	}
	_, err := ToBoolean(String("yes"))
	require.Error(t, err)
}

func TestToDecimalRejectsBoolean(t *testing.T) {
	// Boolean -> Decimal is explicitly disallowed by §3.
	_, err := ToDecimal(Boolean(true))
	require.Error(t, err)
}

func TestToDateStrictISO8601(t *testing.T) {
	d, err := ToDate(String("2024-01-15"))
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())

	_, err = ToDate(String("01/15/2024"))
	require.Error(t, err)
}

func TestCoercionRoundTrip(t *testing.T) {
	// Coercion totality property: coerce to T, to String, back to T, stable.
	orig, err := ToInteger(String("42"))
	require.NoError(t, err)
	again, err := ToInteger(String(ToString(Integer(orig))))
	require.NoError(t, err)
	assert.Equal(t, orig, again)
}

func TestEqualNumericCrossPromotion(t *testing.T) {
	assert.True(t, Equal(Integer(3), Decimal(3.0)))
	assert.False(t, Equal(Integer(3), Decimal(3.1)))
}

func TestEqualArrayElementwise(t *testing.T) {
	a := Array([]Value{Integer(1), String("x")})
	b := Array([]Value{Integer(1), String("x")})
	c := Array([]Value{Integer(1), String("y")})
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
}

func TestCompareRejectsNonOrderable(t *testing.T) {
	_, err := Compare(Boolean(true), Boolean(false))
	require.Error(t, err)
	_, err = Compare(Array(nil), Array(nil))
	require.Error(t, err)
}

func TestCompareDateChronological(t *testing.T) {
	d1, _ := ToDate(String("2024-01-01"))
	d2, _ := ToDate(String("2024-06-01"))
	c, err := Compare(Date(d1), Date(d2))
	require.NoError(t, err)
	assert.Equal(t, -1, c)
}

func TestConcatNullRendersEmpty(t *testing.T) {
	assert.Equal(t, "", ToString(Null))
}

func TestToStringNumberNoTrailingZeros(t *testing.T) {
	assert.Equal(t, "3", ToString(Decimal(3.0)))
	assert.Equal(t, "3.5", ToString(Decimal(3.5)))
}
