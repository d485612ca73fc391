package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchName(t *testing.T) {
	testCases := []struct {
		name     string
		matchers []string
		expected bool
	}{
		{name: "ACME CAPITAL MANAGEMENT LLC", matchers: []string{"acme capital"}, expected: true},
		{name: "Acme\n  Capital", matchers: []string{"ACME CAPITAL"}, expected: true},
		{name: "Berkshire Hathaway Inc", matchers: []string{"acme"}, expected: false},
		{name: "Berkshire Hathaway Inc", matchers: []string{"", "  "}, expected: false},
		{name: "Berkshire Hathaway Inc", matchers: []string{"acme", "hathaway"}, expected: true},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, MatchName(test.name, test.matchers...))
		})
	}
}

func TestSameIdentifier(t *testing.T) {
	require.True(t, SameIdentifier("0001067983", "1067983"))
	require.True(t, SameIdentifier(" 123 ", "0000123"))
	require.False(t, SameIdentifier("123", "1234"))
	require.False(t, SameIdentifier("", ""))
	require.Equal(t, "0", TrimLeadingZeros("0000"))
}
