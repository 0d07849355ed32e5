package cboe

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractMonthNames(t *testing.T) {
	t.Parallel()

	c := NewContractMonth(2004, time.May)
	assert.Equal(t, ContractMonth(200405), c)
	assert.Equal(t, 2004, c.Year())
	assert.Equal(t, time.May, c.Month())
	assert.Equal(t, "K04", c.Code())
	assert.Equal(t, "K (May 04)", c.Label())
	assert.Equal(t, "CFE_K04_VX.csv", c.FileName())
	assert.Equal(t, "200405", c.String())

	assert.Equal(t, "Z (Dec 14)", NewContractMonth(2014, time.December).Label())
	assert.Equal(t, "F15", NewContractMonth(2015, time.January).Code())
}

func TestMonthCodes(t *testing.T) {
	t.Parallel()

	for m := time.January; m <= time.December; m++ {
		got, ok := MonthForCode(MonthCode(m))
		require.True(t, ok, m)
		assert.Equal(t, m, got)
	}
	assert.Equal(t, "", MonthCode(13))
	_, ok := MonthForCode("A")
	assert.False(t, ok)
}

func TestParseContractLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label string
		want  ContractMonth
	}{
		{"K (May 04)", 200405},
		{"Z (Dec 14)", 201412},
		{"F  (Jan 15)", 201501},
		{" G (Feb 10) ", 201002},
	}
	for _, tc := range tests {
		got, err := ParseContractLabel(tc.label)
		require.NoError(t, err, tc.label)
		assert.Equal(t, tc.want, got, tc.label)
	}

	for _, bad := range []string{"", "May 04", "A (Jan 04)", "K (May 2004)"} {
		_, err := ParseContractLabel(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, ErrInvalidContractLabel))
	}
}

func TestParseFileName(t *testing.T) {
	t.Parallel()

	c, err := ParseFileName("CFE_K04_VX.csv")
	require.NoError(t, err)
	assert.Equal(t, ContractMonth(200405), c)

	_, err = ParseFileName("vix_futures.csv")
	assert.True(t, errors.Is(err, ErrInvalidContractLabel))
	_, err = ParseFileName("CFE_K04_VX.csv.bak")
	assert.Error(t, err)
}

func TestContractMonthsOrderByExpiry(t *testing.T) {
	t.Parallel()

	assert.Less(t, NewContractMonth(2014, time.December), NewContractMonth(2015, time.January))
	assert.Less(t, NewContractMonth(2014, time.January), NewContractMonth(2014, time.February))
}
