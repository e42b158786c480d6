package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAmountSeparators(t *testing.T) {
	t.Parallel()

	comma, rej := Amount("1234,5")
	require.Nil(t, rej)
	dot, rej := Amount("1234.5")
	require.Nil(t, rej)
	require.True(t, comma.Amount.Equal(dot.Amount), "comma and dot inputs must parse identically")
	require.Equal(t, "1234.5", comma.Amount.String())
}

func TestAmountRejects(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "abc", "12,34,56", "--5"} {
		_, rej := Amount(raw)
		require.NotNil(t, rej, "input %q should be rejected", raw)
		require.NotEmpty(t, rej.Hint)
	}

	_, rej := Amount("-10")
	require.NotNil(t, rej)

	zero, rej := Amount("0")
	require.Nil(t, rej)
	require.True(t, zero.Amount.IsZero())

	_, rej = PositiveAmount("0")
	require.NotNil(t, rej, "positive amount must reject zero")
}

func TestDateStrictLayout(t *testing.T) {
	t.Parallel()

	v, rej := Date("01.01.2024")
	require.Nil(t, rej)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), v.Date)

	for _, raw := range []string{"2024-01-01", "1.1.2024", "32.01.2024", "01/01/2024", ""} {
		_, rej := Date(raw)
		require.NotNil(t, rej, "input %q should be rejected", raw)
	}
}

func TestNonEmptyVerbatim(t *testing.T) {
	t.Parallel()

	v, rej := NonEmpty("  Lenina 5 🏠 ")
	require.Nil(t, rej)
	require.Equal(t, "  Lenina 5 🏠 ", v.Text, "accepted text must be kept verbatim")

	_, rej = NonEmpty("   ")
	require.NotNil(t, rej)
}

func TestPositiveInt(t *testing.T) {
	t.Parallel()

	v, rej := PositiveInt("90")
	require.Nil(t, rej)
	require.Equal(t, int64(90), v.Int)

	for _, raw := range []string{"0", "-3", "3.5", "ninety"} {
		_, rej := PositiveInt(raw)
		require.NotNil(t, rej, "input %q should be rejected", raw)
	}
}

func TestOneOfExactMatch(t *testing.T) {
	t.Parallel()

	f := OneOf([]string{"Lenina 5 - Shop", "Mira 12 - Warehouse"})

	v, rej := f("Lenina 5 - Shop")
	require.Nil(t, rej)
	require.Equal(t, "Lenina 5 - Shop", v.Text)

	_, rej = f("Lenina 5 - shop")
	require.NotNil(t, rej, "choice matching is exact, not case-folded")
	_, rej = f("")
	require.NotNil(t, rej)
}
