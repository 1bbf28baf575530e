package scheduler

import (
	"context"
	"testing"

	"github.com/deudbot/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronSpec(t *testing.T) {
	tests := []struct {
		name    string
		time    string
		days    string
		want    string
		wantErr bool
	}{
		{name: "single day", time: "09:00", days: "lunes", want: "0 9 * * 1"},
		{name: "default calendar", time: "09:00", days: "lunes,miercoles,viernes", want: "0 9 * * 1,3,5"},
		{name: "accented day names", time: "18:30", days: "miércoles,sábado", want: "30 18 * * 3,6"},
		{name: "english day names", time: "07:15", days: "monday,friday", want: "15 7 * * 1,5"},
		{name: "days are sorted and deduplicated", time: "10:00", days: "viernes,lunes,viernes", want: "0 10 * * 1,5"},
		{name: "unknown days are skipped", time: "10:00", days: "lunes,someday", want: "0 10 * * 1"},
		{name: "whitespace tolerated", time: "10:00", days: " lunes , martes ", want: "0 10 * * 1,2"},
		{name: "no valid day", time: "10:00", days: "someday", wantErr: true},
		{name: "empty days", time: "10:00", days: "", wantErr: true},
		{name: "bad time format", time: "1000", days: "lunes", wantErr: true},
		{name: "hour out of range", time: "24:00", days: "lunes", wantErr: true},
		{name: "minute out of range", time: "10:60", days: "lunes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CronSpec(models.Settings{SchedulerTime: tt.time, SchedulerDays: tt.days})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type staticSettings struct {
	settings models.Settings
}

func (s staticSettings) LoadSettings(ctx context.Context) (models.Settings, error) {
	return s.settings, nil
}

func TestSchedulerReload(t *testing.T) {
	t.Run("disabled settings leave no entry", func(t *testing.T) {
		s := New(staticSettings{settings: models.Settings{
			SchedulerEnabled: false,
			SchedulerTime:    "09:00",
			SchedulerDays:    "lunes",
		}}, func(ctx context.Context) {})
		defer s.Stop()

		require.NoError(t, s.Reload(context.Background()))
		assert.False(t, s.hasEntry)
	})

	t.Run("enabled settings arm one entry", func(t *testing.T) {
		s := New(staticSettings{settings: models.Settings{
			SchedulerEnabled: true,
			SchedulerTime:    "09:00",
			SchedulerDays:    "lunes,viernes",
		}}, func(ctx context.Context) {})
		defer s.Stop()

		require.NoError(t, s.Reload(context.Background()))
		assert.True(t, s.hasEntry)
		assert.Len(t, s.cron.Entries(), 1)

		// A second reload replaces the entry instead of stacking.
		require.NoError(t, s.Reload(context.Background()))
		assert.Len(t, s.cron.Entries(), 1)
	})

	t.Run("invalid calendar reports an error and disarms", func(t *testing.T) {
		s := New(staticSettings{settings: models.Settings{
			SchedulerEnabled: true,
			SchedulerTime:    "bad",
			SchedulerDays:    "lunes",
		}}, func(ctx context.Context) {})
		defer s.Stop()

		assert.Error(t, s.Reload(context.Background()))
		assert.False(t, s.hasEntry)
	})
}
