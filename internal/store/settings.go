package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deudbot/backend/internal/models"
)

// GetSetting returns the raw value for key, or ErrNotFound.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) setSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// LoadSettings reads every recognized key, falling back to the default for
// keys that are absent.
func (s *Store) LoadSettings(ctx context.Context) (models.Settings, error) {
	settings := models.DefaultSettings()

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return settings, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return settings, err
		}
		switch key {
		case models.SettingReminderTemplate:
			settings.ReminderTemplate = value
		case models.SettingReplyTemplate:
			settings.ReplyTemplate = value
		case models.SettingSchedulerEnabled:
			settings.SchedulerEnabled = value == "1"
		case models.SettingSchedulerTime:
			settings.SchedulerTime = value
		case models.SettingSchedulerDays:
			settings.SchedulerDays = value
		}
		// Unknown keys are ignored.
	}
	return settings, rows.Err()
}

// SaveSettings upserts every recognized key. Keys outside the Settings
// struct cannot be written through this path.
func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) error {
	enabled := "0"
	if settings.SchedulerEnabled {
		enabled = "1"
	}
	pairs := map[string]string{
		models.SettingReminderTemplate: settings.ReminderTemplate,
		models.SettingReplyTemplate:    settings.ReplyTemplate,
		models.SettingSchedulerEnabled: enabled,
		models.SettingSchedulerTime:    settings.SchedulerTime,
		models.SettingSchedulerDays:    settings.SchedulerDays,
	}
	for key, value := range pairs {
		if err := s.setSetting(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDefaultSettings seeds missing keys on first boot without touching
// existing values.
func (s *Store) EnsureDefaultSettings(ctx context.Context) error {
	defaults := models.DefaultSettings()
	enabled := "0"
	if defaults.SchedulerEnabled {
		enabled = "1"
	}
	pairs := map[string]string{
		models.SettingReminderTemplate: defaults.ReminderTemplate,
		models.SettingReplyTemplate:    defaults.ReplyTemplate,
		models.SettingSchedulerEnabled: enabled,
		models.SettingSchedulerTime:    defaults.SchedulerTime,
		models.SettingSchedulerDays:    defaults.SchedulerDays,
	}
	for key, value := range pairs {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO settings (key, value)
			VALUES ($1, $2)
			ON CONFLICT (key) DO NOTHING
		`, key, value)
		if err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}
	return nil
}
