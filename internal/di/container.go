package di

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/api"
	"github.com/mikey/llm-mail-triage/internal/catalog"
	"github.com/mikey/llm-mail-triage/internal/classifier"
	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/dispatch"
	"github.com/mikey/llm-mail-triage/internal/factory"
	"github.com/mikey/llm-mail-triage/internal/followup"
	"github.com/mikey/llm-mail-triage/internal/handlers"
	"github.com/mikey/llm-mail-triage/internal/logging"
	"github.com/mikey/llm-mail-triage/internal/metrics"
	"github.com/mikey/llm-mail-triage/internal/senderfilter"
	"github.com/mikey/llm-mail-triage/internal/store"
	"github.com/mikey/llm-mail-triage/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
// for the daemon
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		cfg, err := config.New()
		if err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideServices(container); err != nil {
		return nil, err
	}
	return container, nil
}

// provideServices registers everything below configuration and logging.
// Construction is lazy, so commands only build what they invoke.
func provideServices(container *dig.Container) error {
	providers := []any{
		// Metrics
		newRegistry,
		func(reg *prometheus.Registry) *metrics.Metrics {
			return metrics.New(reg)
		},

		// Factories
		factory.NewLLMFactory,
		factory.NewLedgerFactory,
		factory.NewTransportFactory,
		factory.NewCalendarFactory,
		factory.NewTextProcessorFactory,

		// Adapters
		func(f *factory.LLMFactory) (core.Oracle, error) {
			return f.CreateOracle(context.Background())
		},
		func(f *factory.TransportFactory) (*factory.Transport, error) {
			return f.CreateTransport(context.Background())
		},
		func(f *factory.CalendarFactory) (core.Calendar, error) {
			return f.CreateCalendar(context.Background())
		},
		func(f *factory.LedgerFactory) (core.Ledger, error) {
			return f.CreateLedger()
		},
		func(f *factory.TextProcessorFactory) *utils.TextProcessor {
			return f.CreateTextProcessor()
		},
		func(oracle core.Oracle, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *core.OracleService {
			return core.NewOracleService(oracle, cfg.GetLLM().Timeout, m, logger)
		},

		// Catalog and stores
		catalog.Default,
		func(cfg *config.Config, logger *zap.Logger) *store.ComplaintStore {
			return store.NewComplaintStore(cfg.GetStores().ComplaintsPath, logger)
		},
		func(cfg *config.Config, logger *zap.Logger) *store.QuoteStore {
			return store.NewQuoteStore(cfg.GetStores().QuotesPath, cfg.GetCalendar().Location, logger)
		},
		func(cfg *config.Config, logger *zap.Logger) *store.ConversationStore {
			return store.NewConversationStore(cfg.GetStores().ConversationsPath, logger)
		},

		// Classification and fulfillment
		handlerOptions,
		func(oracle *core.OracleService, cat *catalog.Catalog, text *utils.TextProcessor, m *metrics.Metrics, cfg *config.Config, logger *zap.Logger) *classifier.Classifier {
			return classifier.New(oracle, cat, text, m, classifier.Options{
				BusinessName: cfg.GetBusiness().Name,
				Temperature:  cfg.GetTemperatures().Structured,
				Location:     cfg.GetCalendar().Location,
			}, logger)
		},
		func(complaints *store.ComplaintStore, conversations *store.ConversationStore, oracle *core.OracleService, text *utils.TextProcessor, opts handlers.Options, logger *zap.Logger) *handlers.ComplaintHandler {
			return handlers.NewComplaintHandler(complaints, conversations, oracle, text, opts, logger)
		},
		func(cat *catalog.Catalog, quotes *store.QuoteStore, oracle *core.OracleService, text *utils.TextProcessor, opts handlers.Options, logger *zap.Logger) *handlers.SalesHandler {
			return handlers.NewSalesHandler(cat, quotes, oracle, text, opts, logger)
		},
		func(cat *catalog.Catalog, quotes *store.QuoteStore, oracle *core.OracleService, text *utils.TextProcessor, opts handlers.Options, logger *zap.Logger) *handlers.EstimateHandler {
			return handlers.NewEstimateHandler(cat, quotes, oracle, text, opts, logger)
		},
		handlers.NewMeetingHandler,
		handlers.NewOtherHandler,
		handlers.NewRouter,
		func(cfg *config.Config, logger *zap.Logger) *senderfilter.Checker {
			d := cfg.GetDispatcher()
			return senderfilter.NewChecker(d.IgnoredDomains, d.IgnoredSenders, logger)
		},

		// Dispatch and follow-ups
		func(t *factory.Transport, c *classifier.Classifier, r *handlers.Router, filter *senderfilter.Checker, l core.Ledger, lf *factory.LedgerFactory, m *metrics.Metrics, cfg *config.Config, logger *zap.Logger) *dispatch.Dispatcher {
			return dispatch.NewDispatcher(t, c, r, filter, l, m, dispatch.Options{
				DryRun:          cfg.GetDispatcher().DryRun,
				LedgerRetention: lf.Retention(),
			}, logger)
		},
		func(quotes *store.QuoteStore, t *factory.Transport, m *metrics.Metrics, cfg *config.Config, logger *zap.Logger) *followup.Scheduler {
			return followup.NewScheduler(quotes, t, m, followup.Options{
				BusinessName: cfg.GetBusiness().Name,
				DryRun:       cfg.GetDispatcher().DryRun,
			}, logger)
		},
		func(d *dispatch.Dispatcher, s *followup.Scheduler, m *metrics.Metrics, cfg *config.Config, logger *zap.Logger) *dispatch.Poller {
			return dispatch.NewPoller(d, s, cfg.GetDispatcher().PollInterval, cfg.GetFollowup().ThresholdDays, m, logger)
		},

		// Ops API
		newAPI,
		func(cfg *config.Config, a *api.API, logger *zap.Logger) *api.Server {
			return api.NewServer(cfg.GetAPI().ListenAddress, a.Handler(), logger)
		},
	}

	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return err
		}
	}
	return nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func handlerOptions(cfg *config.Config) handlers.Options {
	temps := cfg.GetTemperatures()
	stores := cfg.GetStores()
	cal := cfg.GetCalendar()
	return handlers.Options{
		BusinessName:          cfg.GetBusiness().Name,
		StructuredTemperature: temps.Structured,
		TextTemperature:       temps.Text,
		HistorySize:           stores.HistorySize,
		MaxMessageChars:       stores.MaxMessageChars,
		ReplyToOther:          cfg.GetDispatcher().ReplyToOther,
		AutoPromote:           cfg.GetBool("estimate.auto_promote"),
		MeetingDuration:       cal.DurationMinutes,
		Location:              cal.Location,
	}
}

// apiDeps gathers the API collaborators from the container
type apiDeps struct {
	dig.In

	Config        *config.Config
	Logger        *zap.Logger
	Registry      *prometheus.Registry
	Catalog       *catalog.Catalog
	Complaints    *store.ComplaintStore
	Quotes        *store.QuoteStore
	Conversations *store.ConversationStore
	Sales         *handlers.SalesHandler
	Estimates     *handlers.EstimateHandler
	Meetings      *handlers.MeetingHandler
	Scheduler     *followup.Scheduler
	Dispatcher    *dispatch.Dispatcher
	Transport     *factory.Transport
}

func newAPI(d apiDeps) *api.API {
	return api.New(api.Deps{
		Catalog:       d.Catalog,
		Complaints:    d.Complaints,
		Quotes:        d.Quotes,
		QuoteCreator:  d.Sales,
		Estimator:     d.Estimates,
		Conversations: d.Conversations,
		Meetings:      d.Meetings,
		Followups:     d.Scheduler,
		Dispatcher:    d.Dispatcher,
		Sender:        d.Transport,
		Gatherer:      d.Registry,
	}, api.Options{
		DryRun:        d.Config.GetDispatcher().DryRun,
		ThresholdDays: d.Config.GetFollowup().ThresholdDays,
		Location:      d.Config.GetCalendar().Location,
	}, d.Logger)
}
