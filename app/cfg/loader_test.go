package cfg

import (
	"testing"
	"time"
)

func TestGetPanicsWhenNotLoaded(t *testing.T) {
	original := globalCfg
	globalCfg = nil
	defer func() { globalCfg = original }()

	defer func() {
		if recover() == nil {
			t.Error("Expected panic when configuration is not loaded")
		}
	}()
	Get()
}

func TestSetForTesting(t *testing.T) {
	original := globalCfg
	defer func() { globalCfg = original }()

	SetForTesting(&Cfg{Port: "9999"})

	if Get().Port != "9999" {
		t.Errorf("Expected port '9999', got: %s", Get().Port)
	}
}

func TestApplyTimezone(t *testing.T) {
	originalLocal := time.Local
	defer func() { time.Local = originalLocal }()

	if err := applyTimezone("America/New_York"); err != nil {
		t.Errorf("Expected no error for valid timezone, got: %v", err)
	}
	if time.Local.String() != "America/New_York" {
		t.Errorf("Expected local timezone updated, got: %s", time.Local)
	}

	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected error for invalid timezone")
	}
}

func TestGetVersion(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "1.2.3"
	if GetVersion() != "1.2.3" {
		t.Errorf("Expected version '1.2.3', got: %s", GetVersion())
	}

	Version = ""
	if GetVersion() != "unknown" {
		t.Errorf("Expected 'unknown' fallback, got: %s", GetVersion())
	}
}
