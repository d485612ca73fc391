package filings

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	_ "embed"
)

//go:embed testdata/primary_doc.xml
var primaryDoc []byte

//go:embed testdata/infotable.xml
var infoTable []byte

//go:embed testdata/infotable_ns1.xml
var infoTableNs1 []byte

func recordMaps(t *testing.T, body []byte, f Flattener) []map[string]string {
	doc, err := Parse(body)
	require.NoError(t, err)
	Normalize(doc)
	records, err := f.Holdings(doc)
	require.NoError(t, err)

	out := make([]map[string]string, len(records))
	for i, r := range records {
		out[i] = r.Map()
	}
	return out
}

func TestCanonicalName(t *testing.T) {
	require.Equal(t, "infotable", canonicalName("ns1:infoTable"))
	require.Equal(t, "infotable", canonicalName("infoTable"))
	require.Equal(t, "votingauthority", canonicalName("VotingAuthority"))
}

func TestRootElement(t *testing.T) {
	testCases := []struct {
		body     string
		expected string
		ok       bool
	}{
		{body: string(primaryDoc), expected: "edgarsubmission", ok: true},
		{body: string(infoTableNs1), expected: "informationtable", ok: true},
		{body: "  <!-- comment --><informationTable/>", expected: "informationtable", ok: true},
		{body: "<html><body>hi</body></html>", expected: "html", ok: true},
		{body: "plain text", ok: false},
		{body: "", ok: false},
	}
	for _, test := range testCases {
		name, ok := RootElement([]byte(test.body))
		require.Equal(t, test.ok, ok, test.body)
		require.Equal(t, test.expected, name, test.body)
	}
}

func TestHoldings(t *testing.T) {
	expected := []map[string]string{
		{
			"nameofissuer":           "APPLE INC",
			"titleofclass":           "COM",
			"cusip":                  "037833100",
			"value":                  "1000",
			"sshprnamt":              "500",
			"sshprnamttype":          "SH",
			"investmentdiscretion":   "SOLE",
			"votingauthority_sole":   "500",
			"votingauthority_shared": "0",
			"votingauthority_none":   "0",
		},
		{
			"nameofissuer":           "BANK AMER CORP",
			"titleofclass":           "COM",
			"cusip":                  "060505104",
			"value":                  "250",
			"sshprnamt":              "100",
			"sshprnamttype":          "SH",
			"putcall":                "Put",
			"investmentdiscretion":   "DFND",
			"othermanager":           "1",
			"votingauthority_sole":   "0",
			"votingauthority_shared": "100",
		},
	}

	plain := recordMaps(t, infoTable, Flattener{Strict: true})
	diff := cmp.Diff(expected, plain)
	if diff != "" {
		t.Fatal(diff)
	}

	prefixed := recordMaps(t, infoTableNs1, Flattener{Strict: true})
	diff = cmp.Diff(plain, prefixed)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestHoldingsFirstSeenOrder(t *testing.T) {
	doc, err := Parse(infoTable)
	require.NoError(t, err)
	Normalize(doc)
	records, err := Flattener{}.Holdings(doc)
	require.NoError(t, err)

	require.Equal(t, []string{
		"nameofissuer",
		"titleofclass",
		"cusip",
		"value",
		"sshprnamt",
		"sshprnamttype",
		"investmentdiscretion",
		"votingauthority_sole",
		"votingauthority_shared",
		"votingauthority_none",
	}, records[0].Keys())
}

func TestPrimary(t *testing.T) {
	doc, err := Parse(primaryDoc)
	require.NoError(t, err)
	require.True(t, doc.IsPrimary())
	Normalize(doc)

	record, err := Flattener{Strict: true}.Primary(doc)
	require.NoError(t, err)

	expected := map[string]string{
		"submissiontype":                        "13F-HR",
		"livetestflag":                          "LIVE",
		"confirmingcopyflag":                    "false",
		"returncopyflag":                        "true",
		"overrideinternetflag":                  "false",
		"filer_cik":                             "0000123456",
		"filer_ccc":                             "XXXXXXXX",
		"periodofreport":                        "06-30-2023",
		"reportcalendarorquarter":               "06-30-2023",
		"isamendment":                           "false",
		"filingmanager_name":                    "Acme Capital",
		"filingmanager_address_street1":         "1 Main Street",
		"filingmanager_address_city":            "Boston",
		"filingmanager_address_stateorcountry":  "MA",
		"filingmanager_address_zipcode":         "02110",
		"reporttype":                            "13F HOLDINGS REPORT",
		"form13ffilenumber":                     "028-12345",
		"provideinfoforinstruction5":            "N",
		"signatureblock_name":                   "Jane Doe",
		"signatureblock_title":                  "Chief Compliance Officer",
		"signatureblock_phone":                  "617-555-0100",
		"signatureblock_signature":              "/s/ Jane Doe",
		"signatureblock_city":                   "Boston",
		"signatureblock_stateorcountry":         "MA",
		"signatureblock_signaturedate":          "08-14-2023",
		"otherincludedmanagerscount":            "0",
		"tableentrytotal":                       "2",
		"tablevaluetotal":                       "1250",
		"isconfidentialomitted":                 "false",
	}
	diff := cmp.Diff(expected, record.Map())
	if diff != "" {
		t.Fatal(diff)
	}

	_, hasStreet2 := record.Get("filingmanager_address_street2")
	require.False(t, hasStreet2)
}

func TestPrimaryRejectsHoldings(t *testing.T) {
	doc, err := Parse(infoTable)
	require.NoError(t, err)
	_, err = Flattener{}.Primary(doc)
	require.ErrorIs(t, err, ErrMalformedDocument)
}

func TestHoldingsRejectsPrimary(t *testing.T) {
	doc, err := Parse(primaryDoc)
	require.NoError(t, err)
	require.True(t, doc.IsPrimary())
	require.False(t, doc.IsHoldings())

	_, err = Flattener{}.Holdings(doc)
	require.ErrorIs(t, err, ErrMalformedDocument)
	require.Contains(t, err.Error(), "<informationtable>")

	// a holdings block under the wrong root is still rejected
	doc, err = Parse([]byte("<edgarSubmission><infoTable><cusip>1</cusip></infoTable></edgarSubmission>"))
	require.NoError(t, err)
	_, err = Flattener{}.Holdings(doc)
	require.ErrorIs(t, err, ErrMalformedDocument)
}

func TestFlattenIdempotent(t *testing.T) {
	doc, err := Parse(primaryDoc)
	require.NoError(t, err)
	Normalize(doc)

	first, err := Flattener{}.Primary(doc)
	require.NoError(t, err)
	second, err := Flattener{}.Primary(doc)
	require.NoError(t, err)
	require.Equal(t, first.Map(), second.Map())

	// normalizing an already normalized tree changes nothing
	Normalize(doc)
	third, err := Flattener{}.Primary(doc)
	require.NoError(t, err)
	require.Equal(t, first.Map(), third.Map())
}

func TestCollision(t *testing.T) {
	body := []byte(`<informationTable>
  <infoTable>
    <nameOfIssuer>APPLE INC</nameOfIssuer>
    <extra><value>1</value></extra>
    <value>2</value>
  </infoTable>
</informationTable>`)

	lenient := recordMaps(t, body, Flattener{})
	require.Equal(t, "2", lenient[0]["value"])

	doc, err := Parse(body)
	require.NoError(t, err)
	Normalize(doc)
	_, err = Flattener{Strict: true}.Holdings(doc)
	require.ErrorIs(t, err, ErrFieldCollision)
}

func TestMalformed(t *testing.T) {
	_, err := Parse([]byte("<informationTable><infoTable>"))
	require.ErrorIs(t, err, ErrMalformedDocument)

	doc, err := Parse([]byte("<informationTable></informationTable>"))
	require.NoError(t, err)
	_, err = Flattener{}.Holdings(doc)
	require.ErrorIs(t, err, ErrMalformedDocument)
}
