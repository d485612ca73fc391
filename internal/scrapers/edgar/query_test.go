package edgar

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEntityQuery(t *testing.T) {
	testCases := []struct {
		input    string
		expected EntityQuery
		invalid  bool
	}{
		{input: "Acme Capital | 0000123456", expected: EntityQuery{CIK: "0000123456", Name: "Acme Capital"}},
		{input: "0000123456|Acme Capital", expected: EntityQuery{CIK: "0000123456", Name: "Acme Capital"}},
		{input: "  0001166559  ", expected: EntityQuery{CIK: "0001166559"}},
		{input: "Bill & Melinda Gates Foundation", expected: EntityQuery{Name: "Bill & Melinda Gates Foundation"}},
		{input: "", invalid: true},
		{input: "   ", invalid: true},
		{input: "Acme | ", invalid: true},
		{input: "Acme | Capital", invalid: true},
		{input: "Acme | 1 | 2", invalid: true},
	}
	for _, test := range testCases {
		q, err := ParseEntityQuery(test.input)
		if test.invalid {
			require.ErrorIs(t, err, ErrUserInput, test.input)
			continue
		}
		require.NoError(t, err, test.input)
		require.Equal(t, test.expected, q, test.input)
	}
}

func TestEntityQueryString(t *testing.T) {
	require.Equal(t, "Acme | 42", EntityQuery{CIK: "42", Name: "Acme"}.String())
	require.Equal(t, "42", EntityQuery{CIK: "42"}.String())
	require.Equal(t, "Acme", EntityQuery{Name: "Acme"}.String())
	require.True(t, EntityQuery{}.IsZero())
}

func TestSearchUrl(t *testing.T) {
	base, err := url.Parse(DefaultBaseUrl)
	require.NoError(t, err)

	byCik, err := SearchUrl(base, EntityQuery{CIK: "0001166559", Name: "Gates Foundation"})
	require.NoError(t, err)
	require.Equal(
		t,
		"https://www.sec.gov/cgi-bin/browse-edgar?action=getcompany&CIK=0001166559&type=&dateb=&owner=exclude&count=100",
		byCik.String(),
	)

	byName, err := SearchUrl(base, EntityQuery{Name: "Bill & Melinda"})
	require.NoError(t, err)
	require.Equal(
		t,
		"https://www.sec.gov/cgi-bin/browse-edgar?company=Bill+%26+Melinda&owner=exclude&action=getcompany",
		byName.String(),
	)

	_, err = SearchUrl(base, EntityQuery{})
	require.ErrorIs(t, err, ErrUserInput)
}
