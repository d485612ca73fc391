package edgar

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"text/template"

	"edgar13f/internal/fetch"

	"github.com/stretchr/testify/require"
)

type filingDetail struct {
	Accession string
	Folder    string
	Date      string
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return body
}

var detailTemplate = template.Must(template.ParseFiles(filepath.Join("testdata", "filing_detail.html")))

func renderDetail(t *testing.T, detail filingDetail) []byte {
	t.Helper()
	var buffer bytes.Buffer
	require.NoError(t, detailTemplate.Execute(&buffer, detail))
	return buffer.Bytes()
}

func newTestResponse(t *testing.T, rawUrl, contentType string, body []byte) *fetch.Response {
	t.Helper()
	req, err := fetch.ParseRequest(rawUrl)
	require.NoError(t, err)
	header := http.Header{}
	header.Set("Content-Type", contentType)
	return fetch.NewResponse(req, nil, http.StatusOK, header, body)
}
