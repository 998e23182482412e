package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jgoulah/loadwatch/pkg/models"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing config file must not be an error: %v", err)
	}

	if cfg.GetDataDir() != "data" {
		t.Errorf("expected default data dir, got %q", cfg.GetDataDir())
	}
	if cfg.GetBaseURL() != "https://api.energy-charts.info" {
		t.Errorf("unexpected default base URL %q", cfg.GetBaseURL())
	}
	if cfg.GetTimeout() != 30*time.Second {
		t.Errorf("expected 30s default timeout, got %s", cfg.GetTimeout())
	}
	if cfg.GetAggregateCode() != "eu_sum" {
		t.Errorf("unexpected default aggregate code %q", cfg.GetAggregateCode())
	}
	if cfg.GetListen() != ":8600" {
		t.Errorf("unexpected default listen address %q", cfg.GetListen())
	}
	if cfg.GetCacheTTL() != 24*time.Hour {
		t.Errorf("expected 24h default TTL, got %s", cfg.GetCacheTTL())
	}

	epoch, err := cfg.GetEpochStart()
	if err != nil {
		t.Fatalf("default epoch: %v", err)
	}
	want := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	if !epoch.Equal(want) {
		t.Errorf("expected epoch %s, got %s", want, epoch)
	}
}

func TestDefaultEntityRegistry(t *testing.T) {
	cfg := &Config{}

	entities := cfg.GetEntities()
	if len(entities) != 6 {
		t.Fatalf("expected 6 default entities, got %d", len(entities))
	}
	if _, ok := cfg.Entity("de"); !ok {
		t.Fatalf("germany missing from the default registry")
	}
	if _, ok := cfg.Entity("xx"); ok {
		t.Fatalf("unknown code must not resolve")
	}

	members := cfg.AggregateMembers()
	for _, code := range members {
		if code == "ch" {
			t.Fatalf("switzerland is tracked but must stay out of the sum")
		}
	}
	if len(members) != 5 {
		t.Fatalf("expected 5 aggregate members, got %v", members)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	in := &Config{
		DataDir:    "/var/lib/loadwatch",
		Timezone:   "Europe/Paris",
		EpochStart: "2018-06-01",
		Entities: []models.Entity{
			{Code: "be", Name: "Belgium", Aggregate: true},
		},
		MQTT: MQTTConfig{Enabled: true, Broker: "broker.local:1883"},
	}

	if err := Save(path, in); err != nil {
		t.Fatalf("saving config: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if out.DataDir != in.DataDir || out.Timezone != in.Timezone {
		t.Fatalf("round trip lost fields: %+v", out)
	}
	epoch, err := out.GetEpochStart()
	if err != nil {
		t.Fatalf("parsing saved epoch: %v", err)
	}
	if !epoch.Equal(time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected epoch %s", epoch)
	}
	if len(out.GetEntities()) != 1 || out.GetEntities()[0].Code != "be" {
		t.Fatalf("explicit entity list must override the defaults: %+v", out.GetEntities())
	}
	if !out.MQTT.Enabled || out.MQTT.Broker != "broker.local:1883" {
		t.Fatalf("mqtt settings lost: %+v", out.MQTT)
	}
}

func TestBadEpochIsAnError(t *testing.T) {
	cfg := &Config{EpochStart: "01.06.2018"}
	if _, err := cfg.GetEpochStart(); err == nil {
		t.Fatalf("expected an error for a malformed epoch date")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data_dir: [unclosed"), 0600); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected a parse error for malformed yaml")
	}
}
