package core

import (
	"fmt"
	"time"

	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/schema"
)

// runTracker records one analyze run in the analysis store. A zero id means tracking is off.
type runTracker struct {
	store contract.AnalysisStore
	id    int64
}

// beginTracking opens a run in the configured store, if any.
func beginTracking(cfg *contract.Config, repository string, mgr contract.StoreManager) runTracker {
	if mgr == nil {
		return runTracker{}
	}
	store := mgr.GetAnalysisStore()
	if store == nil {
		return runTracker{}
	}
	configParams := map[string]any{
		"days":      cfg.Days,
		"max_count": cfg.MaxCount,
		"since":     cfg.StartTime.UTC().Format(contract.DateTimeFormat),
		"until":     cfg.EndTime.UTC().Format(contract.DateTimeFormat),
		"anonymize": cfg.Anonymize,
		"output":    string(cfg.Output),
	}
	id, err := store.BeginAnalysis(time.Now(), repository, configParams)
	if err != nil {
		contract.LogWarn("Analysis tracking initialization failed", err)
		return runTracker{}
	}
	return runTracker{store: store, id: id}
}

// end stores the classified commits and closes the run.
func (t runTracker) end(records []schema.CommitRecord, stats schema.UsageStats) {
	if t.store == nil || t.id <= 0 {
		return
	}
	if err := t.store.RecordCommits(t.id, records); err != nil {
		contract.LogWarn(fmt.Sprintf("Analysis tracking failed for %d commits", len(records)), err)
	}
	if err := t.store.EndAnalysis(t.id, time.Now(), stats); err != nil {
		contract.LogWarn("Failed to finalize analysis tracking", err)
	}
}
