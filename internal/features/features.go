package features

import (
	"sort"
	"sync"
)

// FeatureFlag represents a feature flag configuration.
type FeatureFlag struct {
	Name        string `json:"name"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

// Manager manages feature flags.
type Manager struct {
	mu    sync.RWMutex
	flags map[string]*FeatureFlag
}

// NewManager creates a new feature flag manager.
func NewManager() *Manager {
	return &Manager{flags: make(map[string]*FeatureFlag)}
}

// Register registers a new feature flag.
func (m *Manager) Register(name string, enabled bool, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.flags[name] = &FeatureFlag{
		Name:        name,
		Enabled:     enabled,
		Description: description,
	}
}

// IsEnabled checks if a feature flag is enabled. Unknown flags are disabled.
func (m *Manager) IsEnabled(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, exists := m.flags[name]
	if !exists {
		return false
	}

	return flag.Enabled
}

// Set switches a registered flag. It reports false for unknown flags.
func (m *Manager) Set(name string, enabled bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	flag, exists := m.flags[name]
	if !exists {
		return false
	}
	flag.Enabled = enabled
	return true
}

// All returns a snapshot of every flag, sorted by name.
func (m *Manager) All() []FeatureFlag {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]FeatureFlag, 0, len(m.flags))
	for _, v := range m.flags {
		result = append(result, *v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Predefined feature flag names
const (
	// FeatureDocumentCache serves sent offer documents from the cache
	FeatureDocumentCache = "document_cache"
	// FeatureExpirySweep runs the periodic expiry sweep
	FeatureExpirySweep = "expiry_sweep"
	// FeaturePDFAttachment attaches the rendered PDF to offer emails
	FeaturePDFAttachment = "pdf_attachment"
	// FeatureEventBroker forwards lifecycle events to the message broker
	FeatureEventBroker = "event_broker"
)

// Defaults registers the predefined flags with the given initial states.
func (m *Manager) Defaults(documentCache, expirySweep, pdfAttachment, eventBroker bool) {
	m.Register(FeatureDocumentCache, documentCache, "Serve sent offer documents from the cache")
	m.Register(FeatureExpirySweep, expirySweep, "Expire stale offers in the background")
	m.Register(FeaturePDFAttachment, pdfAttachment, "Attach the offer PDF to notification emails")
	m.Register(FeatureEventBroker, eventBroker, "Forward offer lifecycle events to RabbitMQ")
}
