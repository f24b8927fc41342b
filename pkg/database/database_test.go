package database

import "testing"

// The repositories detect raced inserts by matching gorm.ErrDuplicatedKey,
// which only works when the driver error is translated.
func TestGormConfigTranslatesDriverErrors(t *testing.T) {
	cfg := gormConfig()
	if !cfg.TranslateError {
		t.Fatal("expected TranslateError to be enabled")
	}
}
