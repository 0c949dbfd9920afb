package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
)

// Reporter turns batch results and crashes into operator alerts.
type Reporter struct {
	alerter ports.Alerter
	logger  *slog.Logger
}

// NewReporter builds a reporter; a nil alerter only logs.
func NewReporter(alerter ports.Alerter, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{alerter: alerter, logger: logger}
}

// Report sends the run summary and, when the batch mostly failed, an extra alert.
func (r *Reporter) Report(ctx context.Context, result domain.BatchResult) {
	r.logger.Info("batch finished",
		"found", result.Found,
		"rewritten", result.Rewritten,
		"failed", result.Failed,
		"duration", result.Duration,
	)

	r.send(ctx, domain.AlertInfo, "Звіт", summaryText(result))

	switch {
	case result.Rewritten == 0 && result.Failed > 0:
		r.send(ctx, domain.AlertError, "Жодну статтю не переписано",
			fmt.Sprintf("Усі %d статей завершились помилкою. Перевірте ключі та квоти LLM.", result.Failed))
	case result.Failed > result.Rewritten:
		r.send(ctx, domain.AlertWarn, "Більшість статей з помилками",
			fmt.Sprintf("Успішно: %d, помилок: %d.", result.Rewritten, result.Failed))
	}
}

// Crash reports an error that stopped the run.
func (r *Reporter) Crash(ctx context.Context, err error) {
	r.logger.Error("run crashed", "error", err)
	r.send(ctx, domain.AlertCritical, "Pipeline впав", err.Error())
}

func (r *Reporter) send(ctx context.Context, level domain.AlertLevel, title, detail string) {
	if r.alerter == nil {
		return
	}
	if err := r.alerter.Alert(ctx, level, title, detail); err != nil {
		r.logger.Warn("alert not delivered", "level", level, "error", err)
	}
}

func summaryText(result domain.BatchResult) string {
	if result.Found == 0 {
		return "Нових новин не знайдено."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Знайдено: %d\nНа модерації: %d\nПомилок: %d\nЧас: %s",
		result.Found, result.Rewritten, result.Failed, result.Duration.Round(time.Second))
	if len(result.DraftIDs) > 0 {
		fmt.Fprintf(&b, "\nЧернетки: %s", strings.Join(result.DraftIDs, ", "))
	}
	return b.String()
}
