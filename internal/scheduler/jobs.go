package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rmenon/pennywatch/internal/config"
	"github.com/rmenon/pennywatch/internal/modules/execution"
	"github.com/rmenon/pennywatch/internal/modules/fundamentals"
	"github.com/rmenon/pennywatch/internal/modules/marketdata"
	"github.com/rmenon/pennywatch/internal/modules/recommendations"
	"github.com/rmenon/pennywatch/internal/modules/scanner"
	"github.com/rmenon/pennywatch/internal/modules/strategy"
)

// HistorySyncJob imports the EOD CSV drop into history.db.
type HistorySyncJob struct {
	sync *marketdata.SyncService
}

// NewHistorySyncJob creates a new history sync job.
func NewHistorySyncJob(sync *marketdata.SyncService) *HistorySyncJob {
	return &HistorySyncJob{sync: sync}
}

// Name returns the job name
func (j *HistorySyncJob) Name() string { return "history_sync" }

// Run executes the sync.
func (j *HistorySyncJob) Run() error {
	_, err := j.sync.Sync()
	return err
}

// DailyScanJob runs the full post-close pipeline: refresh the universe
// mirror, scan, persist and export candidates, then build, persist, and
// export recommendations. A mutex serializes runs since overlapping runs
// would race on the output artifacts.
type DailyScanJob struct {
	mu sync.Mutex

	fundamentals *fundamentals.Repository
	universe     *fundamentals.UniverseRepository
	scanner      *scanner.Service
	candidates   *scanner.Repository
	builder      *recommendations.Builder
	recs         *recommendations.Repository
	dataDir      string
	log          zerolog.Logger
}

// NewDailyScanJob creates the post-close scan job.
func NewDailyScanJob(
	repo *fundamentals.Repository,
	universe *fundamentals.UniverseRepository,
	scan *scanner.Service,
	candidates *scanner.Repository,
	builder *recommendations.Builder,
	recs *recommendations.Repository,
	cfg *config.Config,
	log zerolog.Logger,
) *DailyScanJob {
	return &DailyScanJob{
		fundamentals: repo,
		universe:     universe,
		scanner:      scan,
		candidates:   candidates,
		builder:      builder,
		recs:         recs,
		dataDir:      cfg.DataDir,
		log:          log.With().Str("job", "daily_scan").Logger(),
	}
}

// Name returns the job name
func (j *DailyScanJob) Name() string { return "daily_scan" }

// Run executes one full pipeline pass. An empty scan or empty recommendation
// set is a valid terminal state, not an error.
func (j *DailyScanJob) Run() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	records, err := j.fundamentals.Load()
	if err != nil {
		return fmt.Errorf("fundamentals load failed: %w", err)
	}
	if err := j.universe.ReplaceAll(records); err != nil {
		return fmt.Errorf("universe mirror refresh failed: %w", err)
	}

	candidates, err := j.scanner.Scan()
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if err := j.candidates.ReplaceAll(candidates); err != nil {
		return fmt.Errorf("candidate persist failed: %w", err)
	}
	if err := scanner.WriteReport(filepath.Join(j.dataDir, "penny_candidates.csv"), candidates); err != nil {
		return fmt.Errorf("candidate report failed: %w", err)
	}

	if len(candidates) == 0 {
		j.log.Warn().Msg("Scan produced no candidates, skipping recommendations")
		return nil
	}

	recs := j.builder.Build(candidates)
	if err := j.recs.ReplaceAll(recs); err != nil {
		return fmt.Errorf("recommendation persist failed: %w", err)
	}
	if err := recommendations.WriteReport(filepath.Join(j.dataDir, "penny_recommendations.csv"), recs); err != nil {
		return fmt.Errorf("recommendation report failed: %w", err)
	}

	j.log.Info().
		Int("candidates", len(candidates)).
		Int("recommendations", len(recs)).
		Msg("Daily scan pipeline complete")
	return nil
}

// SwingScanJob evaluates the swing-trend strategy after close and stores the
// day's entry signals. When a static universe is configured it restricts the
// scan to those symbols; otherwise the whole fundamentals universe is
// evaluated.
type SwingScanJob struct {
	fundamentals *fundamentals.Repository
	source       marketdata.Source
	strategy     *strategy.SwingTrend
	signals      *strategy.Repository
	universe     map[string]bool
	lookbackDays int
	log          zerolog.Logger
}

// NewSwingScanJob creates the swing signal scan job.
func NewSwingScanJob(
	repo *fundamentals.Repository,
	source marketdata.Source,
	swing *strategy.SwingTrend,
	signals *strategy.Repository,
	cfg *config.Config,
	log zerolog.Logger,
) *SwingScanJob {
	universe := make(map[string]bool, len(cfg.Scan.Universe))
	for _, symbol := range cfg.Scan.Universe {
		universe[strings.ToUpper(symbol)] = true
	}

	return &SwingScanJob{
		fundamentals: repo,
		source:       source,
		strategy:     swing,
		signals:      signals,
		universe:     universe,
		lookbackDays: cfg.Scan.LookbackDays,
		log:          log.With().Str("job", "swing_scan").Logger(),
	}
}

// Name returns the job name
func (j *SwingScanJob) Name() string { return "swing_scan" }

// Run generates and stores today's swing signals. Per-symbol history
// failures are skipped, not fatal.
func (j *SwingScanJob) Run() error {
	records, err := j.fundamentals.GetAll()
	if err != nil {
		return fmt.Errorf("universe load failed: %w", err)
	}

	var signals []strategy.Signal
	for _, rec := range records {
		if len(j.universe) > 0 && !j.universe[strings.ToUpper(rec.Symbol)] {
			continue
		}
		hist, err := j.source.GetHistory(rec.Exchange, rec.Symbol, j.lookbackDays)
		if err != nil {
			j.log.Warn().Err(err).Str("symbol", rec.Symbol).Msg("History fetch failed, skipping")
			continue
		}
		if hist.Empty() {
			continue
		}
		if sig := j.strategy.GenerateSignal(rec.Symbol, hist); sig != nil {
			signals = append(signals, *sig)
		}
	}

	if len(signals) == 0 {
		j.log.Info().Msg("No swing signals today")
		return nil
	}
	if err := j.signals.SaveAll(signals); err != nil {
		return fmt.Errorf("signal persist failed: %w", err)
	}

	j.log.Info().Int("signals", len(signals)).Msg("Swing scan complete")
	return nil
}

// AutoTradeJob places orders for open recommendations during market hours.
type AutoTradeJob struct {
	trader *execution.AutoTrader
}

// NewAutoTradeJob creates the auto-trade job.
func NewAutoTradeJob(trader *execution.AutoTrader) *AutoTradeJob {
	return &AutoTradeJob{trader: trader}
}

// Name returns the job name
func (j *AutoTradeJob) Name() string { return "auto_trade" }

// Run executes one trading pass.
func (j *AutoTradeJob) Run() error {
	return j.trader.RunOnce(context.Background())
}

// PreopenExecuteJob places sized orders for yesterday's swing signals before
// the open.
type PreopenExecuteJob struct {
	executor *execution.PreopenExecutor
}

// NewPreopenExecuteJob creates the pre-open execution job.
func NewPreopenExecuteJob(executor *execution.PreopenExecutor) *PreopenExecuteJob {
	return &PreopenExecuteJob{executor: executor}
}

// Name returns the job name
func (j *PreopenExecuteJob) Name() string { return "preopen_execute" }

// Run executes the pre-open pass.
func (j *PreopenExecuteJob) Run() error {
	return j.executor.RunOnce(context.Background())
}
