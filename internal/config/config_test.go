package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openbench/phasebridge/internal/config"
	"github.com/openbench/phasebridge/internal/models"
)

// --- JSONStore tests ---

func newTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "phasebridge-config-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func writeConfig(t *testing.T, store *config.JSONStore, body string) {
	t.Helper()
	if err := os.WriteFile(store.Path(), []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestJSONStore_LoadMissingFile_ReturnsDefault(t *testing.T) {
	store := config.NewJSONStore(newTempDir(t))

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
	if *cfg != models.DefaultConfig() {
		t.Errorf("Load() = %+v, want defaults", *cfg)
	}
}

func TestJSONStore_SaveLoadRoundTrip(t *testing.T) {
	store := config.NewJSONStore(newTempDir(t))

	cfg := models.DefaultConfig()
	cfg.LoopIntervalMS = 120
	cfg.SenseGain = 40
	cfg.DriverOnBoot = true

	if err := store.Save(&cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	// Flush to ensure the file is written
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != cfg {
		t.Errorf("Load() = %+v, want %+v", *loaded, cfg)
	}
}

func TestJSONStore_CorruptJSON_ReturnsDefault(t *testing.T) {
	store := config.NewJSONStore(newTempDir(t))
	writeConfig(t, store, "{invalid json!!!")

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if *cfg != models.DefaultConfig() {
		t.Errorf("corrupt JSON: Load() = %+v, want defaults", *cfg)
	}
}

func TestJSONStore_FlushWithoutSave_NoError(t *testing.T) {
	store := config.NewJSONStore(newTempDir(t))
	if err := store.Flush(); err != nil {
		t.Errorf("Flush() with no pending save: error = %v, want nil", err)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Errorf("Flush() without Save created %s", store.Path())
	}
}

func TestJSONStore_Path(t *testing.T) {
	dir := newTempDir(t)
	store := config.NewJSONStore(dir)
	if want := filepath.Join(dir, "phasebridge.json"); store.Path() != want {
		t.Errorf("Path() = %q, want %q", store.Path(), want)
	}
}

func TestJSONStore_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		interval int
		gain     int
	}{
		{"missing fields", `{"screen": false}`, models.DefaultLoopIntervalMS, models.DefaultSenseGain},
		{"interval too short", `{"loop_interval_ms": 1, "sense_gain": 30}`, models.MinLoopIntervalMS, 30},
		{"interval too long", `{"loop_interval_ms": 60000}`, models.MaxLoopIntervalMS, models.DefaultSenseGain},
		{"negative gain", `{"loop_interval_ms": 75, "sense_gain": -4}`, 75, models.DefaultSenseGain},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := config.NewJSONStore(newTempDir(t))
			writeConfig(t, store, tc.body)
			cfg, err := store.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.LoopIntervalMS != tc.interval || cfg.SenseGain != tc.gain {
				t.Errorf("Load() = (%d ms, gain %d), want (%d ms, gain %d)",
					cfg.LoopIntervalMS, cfg.SenseGain, tc.interval, tc.gain)
			}
		})
	}
}

func TestJSONStore_SaveDebounced(t *testing.T) {
	store := config.NewJSONStore(newTempDir(t))

	cfg := models.DefaultConfig()
	cfg.SenseGain = 33
	_ = store.Save(&cfg)
	cfg.SenseGain = 44
	_ = store.Save(&cfg)

	// Nothing hits the disk before the debounce delay.
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Fatalf("file written before debounce: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(store.Path()); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.SenseGain != 44 {
		t.Errorf("SenseGain = %d, want 44 (last save wins)", loaded.SenseGain)
	}
}

func TestJSONStore_LoadSeesPendingSave(t *testing.T) {
	dir := newTempDir(t)
	store := config.NewJSONStore(dir)

	cfg := models.DefaultConfig()
	cfg.SenseGain = 40
	_ = store.Save(&cfg)

	// A second read-modify-write inside the debounce window builds on the first.
	next, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if next.SenseGain != 40 {
		t.Fatalf("Load() before write: SenseGain = %d, want 40", next.SenseGain)
	}
	next.Screen = !next.Screen
	_ = store.Save(next)
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	onDisk, err := config.NewJSONStore(dir).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if onDisk.SenseGain != 40 || onDisk.Screen == cfg.Screen {
		t.Errorf("persisted config = %+v, want sense_gain 40 and screen toggled", *onDisk)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	store := config.NewJSONStore(newTempDir(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan models.Config, 4)
	if err := config.Watch(ctx, store, func(c models.Config) { got <- c }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeConfig(t, store, `{"loop_interval_ms": 200, "sense_gain": 25, "screen": true}`)

	select {
	case c := <-got:
		if c.LoopIntervalMS != 200 || c.SenseGain != 25 {
			t.Errorf("reloaded config = %+v", c)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatch_MissingDir(t *testing.T) {
	store := config.NewJSONStore(filepath.Join(newTempDir(t), "does", "not", "exist"))
	if err := config.Watch(context.Background(), store, func(models.Config) {}); err == nil {
		t.Error("Watch on a missing directory succeeded")
	}
}

// --- MemStore tests ---

func TestMemStore_SaveLoadRoundTrip(t *testing.T) {
	store := config.NewMemStore()

	cfg := models.DefaultConfig()
	cfg.Screen = false

	if err := store.Save(&cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Screen {
		t.Error("Screen = true, want false")
	}
	if store.Saves() != 1 {
		t.Errorf("Saves() = %d, want 1", store.Saves())
	}
}

func TestMemStore_MutationIsolation(t *testing.T) {
	store := config.NewMemStore()

	cfg := models.DefaultConfig()
	_ = store.Save(&cfg)

	loaded, _ := store.Load()
	loaded.SenseGain = 99

	loaded2, _ := store.Load()
	if loaded2.SenseGain != models.DefaultSenseGain {
		t.Errorf("isolation broken: SenseGain = %d", loaded2.SenseGain)
	}
}

func TestMemStore_Path(t *testing.T) {
	store := config.NewMemStore()
	if store.Path() != ":memory:" {
		t.Errorf("Path() = %q, want \":memory:\"", store.Path())
	}
	if err := store.Flush(); err != nil {
		t.Errorf("Flush() error = %v, want nil", err)
	}
}
