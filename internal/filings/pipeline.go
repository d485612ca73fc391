package filings

import (
	"context"
	"fmt"

	"edgar13f/internal/assert"
	"edgar13f/internal/components/telemetry"
	"edgar13f/internal/tabular"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("edgar13f/internal/filings")

const (
	report_pipeline_summary  = "pipeline.summary"
	report_pipeline_holdings = "pipeline.holdings"
)

// Pipeline normalizes, flattens and persists filing documents.
type Pipeline struct {
	store     *tabular.Store
	flattener Flattener
	tel       telemetry.API
}

func NewPipeline(store *tabular.Store, flattener Flattener, tel telemetry.API) *Pipeline {
	assert.NotNil(store)
	assert.NotNil(tel)
	return &Pipeline{
		store:     store,
		flattener: flattener,
		tel:       telemetry.NewScopedAPI("filings", tel),
	}
}

// Summary merges a primary document into the summary dataset.
func (p *Pipeline) Summary(ctx context.Context, body []byte) error {
	ctx, span := tracer.Start(ctx, "Summary")
	defer span.End()

	record, err := p.summaryRecord(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.tel.ReportBroken(report_pipeline_summary, err)
		return err
	}

	replaced, err := p.store.MergeSummary(ctx, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(
		attribute.String("filingmanager_name", record.Cell(tabular.FieldFilingManagerName)),
		attribute.Bool("replaced", replaced),
	)
	p.tel.ReportDebug(
		"merged summary",
		record.Cell(tabular.FieldFilingManagerName),
		record.Cell(tabular.FieldReportPeriod),
		replaced,
	)
	return nil
}

func (p *Pipeline) summaryRecord(body []byte) (tabular.Record, error) {
	doc, err := Parse(body)
	if err != nil {
		return tabular.Record{}, err
	}
	Normalize(doc)
	return p.flattener.Primary(doc)
}

// Holdings writes a holdings document into the file for cik and date.
func (p *Pipeline) Holdings(ctx context.Context, body []byte, cik, date string) error {
	ctx, span := tracer.Start(ctx, "Holdings")
	defer span.End()
	span.SetAttributes(
		attribute.String("cik", cik),
		attribute.String("date", date),
	)

	records, err := p.holdingsRecords(body)
	if err != nil {
		err = fmt.Errorf("holdings for %s on %s: %w", cik, date, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.tel.ReportBroken(report_pipeline_holdings, err)
		return err
	}

	path, err := p.store.WriteHoldings(ctx, cik, date, records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("records", len(records)))
	p.tel.ReportDebug("wrote holdings", path, len(records))
	return nil
}

func (p *Pipeline) holdingsRecords(body []byte) ([]tabular.Record, error) {
	doc, err := Parse(body)
	if err != nil {
		return nil, err
	}
	Normalize(doc)
	return p.flattener.Holdings(doc)
}
