package marketdata

import (
	"fmt"

	"github.com/rs/zerolog"
)

// SyncService imports the EOD CSV drop into history.db so downstream
// consumers (scanner, dashboard charts) read from the database rather than
// re-parsing the file on every run.
type SyncService struct {
	csv     *CSVSource
	history *HistoryDB
	log     zerolog.Logger
}

// NewSyncService creates a new history sync service.
func NewSyncService(csv *CSVSource, history *HistoryDB, log zerolog.Logger) *SyncService {
	return &SyncService{
		csv:     csv,
		history: history,
		log:     log.With().Str("service", "history_sync").Logger(),
	}
}

// Sync copies every series present in the CSV into the history database.
// Returns the number of series synced. A missing CSV is a no-op, not an
// error; a per-series write failure aborts the sync so a partial import is
// visible in the logs.
func (s *SyncService) Sync() (int, error) {
	pairs, err := s.csv.Pairs()
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate EOD series: %w", err)
	}

	synced := 0
	for _, pair := range pairs {
		hist, err := s.csv.GetHistory(pair.Exchange, pair.Symbol, 0)
		if err != nil {
			return synced, fmt.Errorf("failed to read series %s:%s: %w", pair.Exchange, pair.Symbol, err)
		}
		if hist.Empty() {
			continue
		}

		if err := s.history.ReplaceHistory(pair.Exchange, pair.Symbol, hist.Candles); err != nil {
			return synced, fmt.Errorf("failed to sync series %s:%s: %w", pair.Exchange, pair.Symbol, err)
		}
		synced++
	}

	s.log.Info().Int("series", synced).Msg("EOD history sync complete")
	return synced, nil
}
