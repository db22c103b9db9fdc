package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/localnerve/callcard/internal/callcard"
	"github.com/localnerve/callcard/internal/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// DBSettings reads application settings from the app_settings table.
type DBSettings struct {
	db *gorm.DB
}

func NewDBSettings(db *gorm.DB) *DBSettings {
	return &DBSettings{db: db}
}

// Setting returns the value of key for the game type, or "" when unset
func (s *DBSettings) Setting(ctx context.Context, gameTypeID int, key string) (string, error) {
	var row models.AppSetting
	err := quiet(conn(ctx, s.db)).
		Where("game_type_id = ? AND setting_key = ?", gameTypeID, key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("setting %s: %w", key, err)
	}
	return row.Value, nil
}

// settingsFile is the YAML layout of a settings file:
//
//	defaults:
//	  PREVIOUS_VISITS_SUMMARY: "3"
//	gameTypes:
//	  7:
//	    INCLUDE_VISITS_GEO_INFO: "true"
type settingsFile struct {
	Defaults  map[string]string         `yaml:"defaults"`
	GameTypes map[int]map[string]string `yaml:"gameTypes"`
}

// FileSettings layers settings from a YAML file over another source. A key
// set for the game type wins over the file defaults, which win over next.
type FileSettings struct {
	file settingsFile
	next callcard.Settings
}

// LoadFileSettings reads path. next may be nil.
func LoadFileSettings(path string, next callcard.Settings) (*FileSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	return ParseFileSettings(data, next)
}

// ParseFileSettings decodes a YAML settings document.
func ParseFileSettings(data []byte, next callcard.Settings) (*FileSettings, error) {
	var f settingsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse settings file: %w", err)
	}
	return &FileSettings{file: f, next: next}, nil
}

func (s *FileSettings) Setting(ctx context.Context, gameTypeID int, key string) (string, error) {
	if v, ok := s.file.GameTypes[gameTypeID][key]; ok {
		return v, nil
	}
	if v, ok := s.file.Defaults[key]; ok {
		return v, nil
	}
	if s.next == nil {
		return "", nil
	}
	return s.next.Setting(ctx, gameTypeID, key)
}
