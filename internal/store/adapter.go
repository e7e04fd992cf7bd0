package store

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-client/internal/models"
	"github.com/kjstillabower/weather-client/internal/observability"
)

// Fixed keys for user data. Snapshot keys are the gateway's cache keys.
const (
	SettingsKey  = "weather-settings"
	FavoritesKey = "weather-favorites"
	HomeKey      = "weather-home-city"
)

// Adapter is the durable store as callers see it: loads fall back to defaults and saves
// are fire-and-forget. Failures are logged and counted, never returned. A nil backend
// means no durable store is available for this run.
type Adapter struct {
	backend Backend
	logger  *zap.Logger

	// favMu serializes the favorites read-modify-write.
	favMu sync.Mutex
}

// NewAdapter wraps backend, which may be nil.
func NewAdapter(backend Backend, logger *zap.Logger) *Adapter {
	return &Adapter{backend: backend, logger: observability.OrNop(logger)}
}

// Available reports whether a durable backend is configured.
func (a *Adapter) Available() bool {
	return a.backend != nil
}

// Close releases the backend.
func (a *Adapter) Close() error {
	if a.backend == nil {
		return nil
	}
	return a.backend.Close()
}

// load decodes the value under key into dest. It returns false when the store is
// absent, the key is missing or anything fails.
func (a *Adapter) load(ctx context.Context, key string, dest any) bool {
	if a.backend == nil {
		return false
	}
	raw, ok, err := a.backend.Get(ctx, key)
	if err != nil {
		observability.StoreErrorsTotal.WithLabelValues("load").Inc()
		a.logger.Warn("durable store load failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		observability.StoreErrorsTotal.WithLabelValues("decode").Inc()
		a.logger.Warn("durable store value unreadable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (a *Adapter) save(ctx context.Context, key string, value any) {
	if a.backend == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		observability.StoreErrorsTotal.WithLabelValues("encode").Inc()
		a.logger.Warn("durable store encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := a.backend.Put(ctx, key, raw); err != nil {
		observability.StoreErrorsTotal.WithLabelValues("save").Inc()
		a.logger.Warn("durable store save failed", zap.String("key", key), zap.Error(err))
	}
}

// LoadSettings returns the persisted settings, or DefaultSettings when none are stored.
// Fields that are missing or hold an unknown unit take the default value.
func (a *Adapter) LoadSettings(ctx context.Context) models.UserSettings {
	def := models.DefaultSettings()
	var s models.UserSettings
	if !a.load(ctx, SettingsKey, &s) {
		return def
	}
	if !s.TemperatureUnit.Valid() {
		s.TemperatureUnit = def.TemperatureUnit
	}
	if !s.WindSpeedUnit.Valid() {
		s.WindSpeedUnit = def.WindSpeedUnit
	}
	return s
}

// SaveSettings persists settings.
func (a *Adapter) SaveSettings(ctx context.Context, s models.UserSettings) {
	a.save(ctx, SettingsKey, s)
}

// LoadFavorites returns the saved favorites in insertion order, never nil.
func (a *Adapter) LoadFavorites(ctx context.Context) []models.Location {
	var favs []models.Location
	if !a.load(ctx, FavoritesKey, &favs) || favs == nil {
		return []models.Location{}
	}
	return favs
}

// SaveFavorites replaces the saved favorites.
func (a *Adapter) SaveFavorites(ctx context.Context, favs []models.Location) {
	if favs == nil {
		favs = []models.Location{}
	}
	a.save(ctx, FavoritesKey, favs)
}

// AddFavorite appends loc unless a favorite with the same coordinates exists, in which
// case nothing is written. Returns the resulting list.
func (a *Adapter) AddFavorite(ctx context.Context, loc models.Location) []models.Location {
	a.favMu.Lock()
	defer a.favMu.Unlock()

	favs := a.LoadFavorites(ctx)
	for _, f := range favs {
		if f.SameCoordinates(loc) {
			return favs
		}
	}
	favs = append(favs, loc)
	a.SaveFavorites(ctx, favs)
	return favs
}

// RemoveFavorite drops every favorite with loc's coordinates and persists the result,
// even when nothing matched. Returns the resulting list.
func (a *Adapter) RemoveFavorite(ctx context.Context, loc models.Location) []models.Location {
	a.favMu.Lock()
	defer a.favMu.Unlock()

	favs := a.LoadFavorites(ctx)
	kept := make([]models.Location, 0, len(favs))
	for _, f := range favs {
		if !f.SameCoordinates(loc) {
			kept = append(kept, f)
		}
	}
	a.SaveFavorites(ctx, kept)
	return kept
}

// LoadHomeLocation returns the saved home location, if any.
func (a *Adapter) LoadHomeLocation(ctx context.Context) (models.Location, bool) {
	var loc models.Location
	if !a.load(ctx, HomeKey, &loc) {
		return models.Location{}, false
	}
	return loc, true
}

// SaveHomeLocation replaces the saved home location.
func (a *Adapter) SaveHomeLocation(ctx context.Context, loc models.Location) {
	a.save(ctx, HomeKey, loc)
}

// LoadSnapshot decodes the last-known-good payload stored under key into dest.
func (a *Adapter) LoadSnapshot(ctx context.Context, key string, dest any) bool {
	return a.load(ctx, key, dest)
}

// SaveSnapshot stores value as the last-known-good payload for key. Snapshots never expire.
func (a *Adapter) SaveSnapshot(ctx context.Context, key string, value any) {
	a.save(ctx, key, value)
}
