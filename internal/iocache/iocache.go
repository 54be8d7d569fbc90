// Package iocache persists analyze runs and the commits they classified.
package iocache

import (
	"sync"

	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/schema"
)

// AnalysisStoreManager holds the process-wide analysis store.
type AnalysisStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	analysis     contract.AnalysisStore
}

var _ contract.StoreManager = &AnalysisStoreManager{} // Compile-time check

// disabledStore is handed out before InitStores runs or when tracking is off.
var disabledStore contract.AnalysisStore = &AnalysisStoreImpl{backend: schema.NoneBackend}

// GetAnalysisStore returns the analysis store, or a no-op store when none is configured.
func (mgr *AnalysisStoreManager) GetAnalysisStore() contract.AnalysisStore {
	mgr.RLock()
	defer mgr.RUnlock()
	if mgr.analysis == nil {
		return disabledStore
	}
	return mgr.analysis
}
