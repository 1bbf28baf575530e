package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/deudbot/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings(t *testing.T) {
	t.Run("stored values override defaults", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT key, value FROM settings").
			WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
				AddRow(models.SettingReminderTemplate, "Hola {nombre}").
				AddRow(models.SettingSchedulerEnabled, "1").
				AddRow(models.SettingSchedulerTime, "18:30").
				AddRow("legacy_key", "ignored"))

		s := New(db)
		settings, err := s.LoadSettings(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "Hola {nombre}", settings.ReminderTemplate)
		assert.True(t, settings.SchedulerEnabled)
		assert.Equal(t, "18:30", settings.SchedulerTime)
		// Untouched keys keep their defaults.
		assert.Equal(t, models.DefaultSettings().SchedulerDays, settings.SchedulerDays)
		assert.Equal(t, models.DefaultSettings().ReplyTemplate, settings.ReplyTemplate)
	})

	t.Run("empty table yields defaults", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT key, value FROM settings").
			WillReturnRows(sqlmock.NewRows([]string{"key", "value"}))

		s := New(db)
		settings, err := s.LoadSettings(context.Background())

		require.NoError(t, err)
		assert.Equal(t, models.DefaultSettings(), settings)
	})
}

func TestSaveSettings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Map iteration order is not fixed.
	mock.MatchExpectationsInOrder(false)
	mock.ExpectExec("INSERT INTO settings").
		WithArgs(models.SettingReminderTemplate, "Hola {nombre}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO settings").
		WithArgs(models.SettingReplyTemplate, "Tu deuda: ${deuda}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO settings").
		WithArgs(models.SettingSchedulerEnabled, "1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO settings").
		WithArgs(models.SettingSchedulerTime, "10:00").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO settings").
		WithArgs(models.SettingSchedulerDays, "lunes,viernes").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := New(db)
	err = s.SaveSettings(context.Background(), models.Settings{
		ReminderTemplate: "Hola {nombre}",
		ReplyTemplate:    "Tu deuda: ${deuda}",
		SchedulerEnabled: true,
		SchedulerTime:    "10:00",
		SchedulerDays:    "lunes,viernes",
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSettingNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT value FROM settings").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	s := New(db)
	_, err = s.GetSetting(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}
