package tabular

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"edgar13f/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestHoldingsFilename(t *testing.T) {
	require.Equal(t, "0001067983_13f_holdings_2024_02_14.tsv", HoldingsFilename("0001067983", "2024-02-14"))
	require.Equal(t, "abc_13f_holdings_2024_02_14.tsv", HoldingsFilename(" ABC ", "2024-02-14"))
}

func TestMergeSummary(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewStore(dir, telemetry.NewRecorder())
	require.NoError(t, err)

	path := filepath.Join(dir, SummaryFilename)

	replaced, err := store.MergeSummary(ctx, summaryRecord("0000123", "Acme Capital", "2023-06-30"))
	require.NoError(t, err)
	require.False(t, replaced)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(
		t,
		"filer_cik\tfilingmanager_name\treportcalendarorquarter\n"+
			"0000123\tAcme Capital\t2023-06-30\n",
		string(contents),
	)

	replaced, err = store.MergeSummary(ctx, summaryRecord("0000999", "Acme Capital", "2023-06-30"))
	require.NoError(t, err)
	require.True(t, replaced)

	contents, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(
		t,
		"filer_cik\tfilingmanager_name\treportcalendarorquarter\n"+
			"0000999\tAcme Capital\t2023-06-30\n",
		string(contents),
	)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestMergeSummaryConcurrent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewStore(dir, telemetry.NewRecorder())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.MergeSummary(ctx, summaryRecord(
				fmt.Sprint(i),
				fmt.Sprintf("Fund %d", i),
				"2023-06-30",
			))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	d, err := Load(filepath.Join(dir, SummaryFilename))
	require.NoError(t, err)
	require.Equal(t, 16, d.Len())
}

func TestWriteHoldingsReplacesFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "nested", "reports"), telemetry.NewRecorder())
	require.NoError(t, err)

	first := []Record{
		NewRecord(Field{Name: "nameofissuer", Value: "APPLE INC"}, Field{Name: "value", Value: "1"}),
		NewRecord(Field{Name: "nameofissuer", Value: "MICROSOFT CORP"}, Field{Name: "value", Value: "2"}),
	}
	path, err := store.WriteHoldings(ctx, "0000123", "2023-08-14", first)
	require.NoError(t, err)
	require.Equal(t, "0000123_13f_holdings_2023_08_14.tsv", filepath.Base(path))

	second := []Record{
		NewRecord(Field{Name: "cusip", Value: "037833100"}),
	}
	_, err = store.WriteHoldings(ctx, "0000123", "2023-08-14", second)
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "cusip\n037833100\n", string(contents))
}

func TestStorePersistenceError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := NewStore(filepath.Join(blocker, "reports"), telemetry.NewRecorder())
	require.True(t, errors.Is(err, ErrPersistence))
}
