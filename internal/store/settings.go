package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/kjstillabower/weather-client/internal/models"
)

// Settings holds the process-wide unit preferences. It is loaded once and changes only
// through Update.
type Settings struct {
	adapter *Adapter

	mu      sync.RWMutex
	current models.UserSettings
}

// LoadSettings reads the persisted settings (or defaults) into a new holder.
func LoadSettings(ctx context.Context, adapter *Adapter) *Settings {
	return &Settings{adapter: adapter, current: adapter.LoadSettings(ctx)}
}

// Current returns the applied settings.
func (s *Settings) Current() models.UserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update validates next, persists it and only then applies it to later fetches.
func (s *Settings) Update(ctx context.Context, next models.UserSettings) error {
	if !next.TemperatureUnit.Valid() {
		return fmt.Errorf("unsupported temperature unit %q", next.TemperatureUnit)
	}
	if !next.WindSpeedUnit.Valid() {
		return fmt.Errorf("unsupported wind speed unit %q", next.WindSpeedUnit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adapter.SaveSettings(ctx, next)
	s.current = next
	return nil
}
