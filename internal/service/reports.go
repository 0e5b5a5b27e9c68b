package service

import (
	"context"
	"fmt"
	"time"

	"stocktake-service/internal/models"
	"stocktake-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportWriter persists an assembled ledger as a workbook and returns
// the generated filename.
type ReportWriter interface {
	Write(ledger *models.Ledger, now time.Time) (string, error)
}

// ReportPublisher publishes report lifecycle events.
type ReportPublisher interface {
	PublishReportGenerated(ctx context.Context, event *models.ReportGeneratedEvent) error
}

// ReportService drives report generation end to end: build the ledger,
// write the workbook, announce the result.
type ReportService struct {
	builder   *LedgerBuilder
	writer    ReportWriter
	publisher ReportPublisher
	logger    *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(builder *LedgerBuilder, writer ReportWriter, publisher ReportPublisher) *ReportService {
	return &ReportService{
		builder:   builder,
		writer:    writer,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// GenerateResult describes a generated report, including the counted
// items that could not be priced.
type GenerateResult struct {
	Filename  string                 `json:"filename"`
	LineCount int                    `json:"line_count"`
	Unmatched []models.UnmatchedItem `json:"unmatched,omitempty"`
}

// Generate builds the ledger from the current stock count and writes
// the stocktake workbook.
func (s *ReportService) Generate(ctx context.Context) (*GenerateResult, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.Generate")
	defer span.End()

	ledger, err := s.builder.BuildLedger(ctx)
	if err != nil {
		return nil, err
	}

	filename, err := s.writer.Write(ledger, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	util.ReportsGeneratedTotal.Inc()
	s.logger.Info("Report generated",
		zap.String("filename", filename),
		zap.Int("lines", len(ledger.Lines)),
		zap.Int("unmatched", len(ledger.Unmatched)))

	event := &models.ReportGeneratedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeReportGenerated,
			Timestamp: time.Now(),
		},
		Filename:       filename,
		LineCount:      len(ledger.Lines),
		UnmatchedCount: len(ledger.Unmatched),
	}
	if err := s.publisher.PublishReportGenerated(ctx, event); err != nil {
		s.logger.Error("Failed to publish ReportGenerated event", zap.Error(err))
	}

	return &GenerateResult{
		Filename:  filename,
		LineCount: len(ledger.Lines),
		Unmatched: ledger.Unmatched,
	}, nil
}
