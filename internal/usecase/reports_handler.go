package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"MandiPulse/internal/domain/models"
	"MandiPulse/internal/services/analytics"
	pkghttp "MandiPulse/pkg/http"
	pkgkafka "MandiPulse/pkg/kafka"
	applogger "MandiPulse/pkg/logger"
)

// ReportsHandler analyzes citizen price reports from Kafka. Reports that can
// never succeed are returned as permanent errors so they go to the DLQ.
type ReportsHandler struct {
	topic   string
	checker *PriceChecker
	l       *applogger.Logger
}

func NewReportsHandler(topic string, checker *PriceChecker, l *applogger.Logger) *ReportsHandler {
	if l == nil {
		l = applogger.NewNop()
	}
	return &ReportsHandler{topic: topic, checker: checker, l: l}
}

func (h *ReportsHandler) Topic() string { return h.topic }

func (h *ReportsHandler) Handle(ctx context.Context, b []byte) error {
	var r models.PriceReport
	if err := json.Unmarshal(b, &r); err != nil {
		h.checker.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode report: %w", err))
	}
	if errs := pkghttp.ValidateStruct(ctx, &r); len(errs) > 0 {
		h.checker.metrics.RecordError("consumer_validate")
		return pkgkafka.Permanent(fmt.Errorf("report %s: %w", r.ReportID, pkghttp.ValidationErrors(errs)))
	}

	check, err := Resolve(r.Month, r.CommodityName, r.MarketName, r.Price)
	if err != nil {
		h.checker.metrics.RecordError(ErrorKind(err))
		return pkgkafka.Permanent(fmt.Errorf("report %s: %w", r.ReportID, err))
	}

	res, err := h.checker.Evaluate(ctx, check)
	if err != nil {
		if errors.Is(err, analytics.ErrInference) || errors.Is(err, analytics.ErrDegenerateExpectedPrice) {
			return pkgkafka.Permanent(fmt.Errorf("report %s: %w", r.ReportID, err))
		}
		return err
	}

	v := h.checker.NewVerdict(check, res, models.SourceReport, r.ReportID)
	if err := h.checker.Record(ctx, &v); err != nil {
		return err
	}
	h.l.Debug("reports.verdict",
		applogger.String("report_id", r.ReportID),
		applogger.String("status", string(v.Status)),
		applogger.String("trace_id", pkgkafka.TraceIDFrom(ctx)),
	)
	return nil
}

var _ pkgkafka.MessageHandler = (*ReportsHandler)(nil)
