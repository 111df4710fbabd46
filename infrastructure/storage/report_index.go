package storage

import (
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"chat-relay/domain/search"
	"context"
	"fmt"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

const (
	fieldReason    = "reason"
	fieldReported  = search.FieldReported
	fieldReporter  = search.FieldReporter
	fieldCreatedAt = "created_at"
)

// ReportIndex is a bluge full text index over report reasons.
type ReportIndex struct {
	writer *bluge.Writer
}

func NewReportIndex(writer *bluge.Writer) *ReportIndex {
	return &ReportIndex{writer: writer}
}

// OpenReportIndex opens an on-disk index, or an in-memory one when path is empty.
func OpenReportIndex(path string) (*ReportIndex, error) {
	cfg := bluge.InMemoryOnlyConfig()
	if path != "" {
		cfg = bluge.DefaultConfig(path)
	}
	writer, err := bluge.OpenWriter(cfg)
	if err != nil {
		return nil, fmt.Errorf("open report index: %w", err)
	}
	return NewReportIndex(writer), nil
}

// ReportHit locates a report in the store.
type ReportHit struct {
	ID        uuid.UUID
	Reported  domain.Identity
	CreatedAt time.Time
}

func (h ReportHit) key() []byte {
	return reportKeyOf(h.Reported, h.CreatedAt, h.ID)
}

func (i *ReportIndex) Index(report chat.Report) error {
	doc := bluge.NewDocument(report.ID.String()).
		AddField(bluge.NewTextField(fieldReason, report.Reason)).
		AddField(bluge.NewKeywordField(fieldReported, report.Reported.String()).StoreValue()).
		AddField(bluge.NewKeywordField(fieldReporter, report.Reporter.String()).StoreValue()).
		AddField(bluge.NewDateTimeField(fieldCreatedAt, report.CreatedAt).StoreValue().Sortable())
	return i.writer.Update(doc.ID(), doc)
}

// Search matches the query terms against reasons; its identity filters
// narrow the result. An empty query matches every report.
// Hits are ordered newest first; total counts all matches.
func (i *ReportIndex) Search(ctx context.Context, query search.Query, limit int) ([]ReportHit, uint64, error) {
	if limit <= 0 {
		limit = 50
	}
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, 0, fmt.Errorf("open index reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	request := bluge.NewTopNSearch(limit, buildQuery(query)).
		SortBy([]string{"-" + fieldCreatedAt}).
		WithStandardAggregations()
	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, 0, err
	}

	var hits []ReportHit
	next, err := matches.Next()
	for err == nil && next != nil {
		var hit ReportHit
		var visitErr error
		visitErr = next.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.ID, visitErr = uuid.ParseBytes(value)
			case fieldReported:
				hit.Reported = domain.Identity(value)
			case fieldCreatedAt:
				hit.CreatedAt, visitErr = bluge.DecodeDateTime(value)
			}
			return visitErr == nil
		})
		if visitErr != nil {
			return nil, 0, visitErr
		}
		hits = append(hits, hit)
		next, err = matches.Next()
	}
	if err != nil {
		return nil, 0, err
	}
	return hits, matches.Aggregations().Count(), nil
}

func buildQuery(q search.Query) bluge.Query {
	if q.IsEmpty() {
		return bluge.NewMatchAllQuery()
	}
	query := bluge.NewBooleanQuery()
	if q.Reported != "" {
		query.AddMust(bluge.NewTermQuery(q.Reported.String()).SetField(fieldReported))
	}
	if q.Reporter != "" {
		query.AddMust(bluge.NewTermQuery(q.Reporter.String()).SetField(fieldReporter))
	}
	if q.Terms != "" {
		query.AddMust(bluge.NewMatchQuery(q.Terms).SetField(fieldReason))
	}
	return query
}

func (i *ReportIndex) Close() error {
	return i.writer.Close()
}
