package factory

import (
	"context"
	"fmt"

	"github.com/mikey/llm-mail-triage/internal/adapters/gcal"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// CalendarFactory creates the meeting calendar
type CalendarFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCalendarFactory creates a new calendar factory
func NewCalendarFactory(cfg *config.Config, logger *zap.Logger) *CalendarFactory {
	return &CalendarFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCalendar creates the calendar selected by calendar.type. With
// "none" every booking fails and meeting requests get a pending reply.
func (f *CalendarFactory) CreateCalendar(ctx context.Context) (core.Calendar, error) {
	calendarCfg := f.cfg.GetCalendar()
	switch calendarCfg.Type {
	case "none":
		return gcal.Disabled{}, nil
	case "google":
		cal, err := gcal.NewFromFiles(ctx, calendarCfg, f.logger)
		if err != nil {
			return nil, err
		}
		return cal, nil
	default:
		return nil, fmt.Errorf("unsupported calendar type: %s", calendarCfg.Type)
	}
}
