//go:build unit

package money_test

import (
	"testing"

	"gearshare/internal/domain/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want string
	}{
		{name: "exact two decimals unchanged", in: 10.25, want: "10.25"},
		{name: "half rounds up", in: 10.255, want: "10.26"},
		{name: "below half rounds down", in: 10.254, want: "10.25"},
		{name: "whole number keeps two places", in: 100, want: "100.00"},
		{name: "repeating fraction", in: 33.333333, want: "33.33"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := money.FromFloat(tc.in).Round2()
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("valid decimal string", func(t *testing.T) {
		got, err := money.Parse(" 155.00 ")
		require.NoError(t, err)
		assert.Equal(t, "155.00", got.String())
	})

	t.Run("malformed string is an error, not zero", func(t *testing.T) {
		cases := []string{"", "abc", "12.3.4", "NaN"}
		for _, in := range cases {
			_, err := money.Parse(in)
			require.Error(t, err, "input %q", in)
		}
	})
}

func TestArithmetic(t *testing.T) {
	t.Run("add and subtract", func(t *testing.T) {
		a := money.FromFloat(10.10)
		b := money.FromFloat(0.90)

		assert.Equal(t, "11.00", a.Add(b).String())
		assert.Equal(t, "9.20", a.Sub(b).String())
	})

	t.Run("float arithmetic stays exact", func(t *testing.T) {
		// 0.1 + 0.2 must be exactly 0.3, not 0.30000000000000004.
		sum := money.FromFloat(0.1).Add(money.FromFloat(0.2))
		assert.True(t, sum.Equal(money.FromFloat(0.3)))
	})

	t.Run("multiplication", func(t *testing.T) {
		rate := money.FromFloat(15.50)
		assert.Equal(t, "46.50", rate.MulInt(3).String())
		assert.Equal(t, "1.55", rate.MulFloat(0.1).Round2().String())
	})
}

func TestNew(t *testing.T) {
	t.Run("rejects negative amounts", func(t *testing.T) {
		_, err := money.New(-1)
		require.ErrorIs(t, err, money.ErrNegativeAmount)
	})

	t.Run("accepts zero", func(t *testing.T) {
		m, err := money.New(0)
		require.NoError(t, err)
		assert.True(t, m.IsZero())
	})
}

func TestPredicates(t *testing.T) {
	assert.True(t, money.Zero().IsZero())
	assert.True(t, money.FromFloat(5).IsPositive())
	assert.True(t, money.FromFloat(5).Sub(money.FromFloat(10)).IsNegative())
	assert.Equal(t, -1, money.FromFloat(1).Cmp(money.FromFloat(2)))
}
