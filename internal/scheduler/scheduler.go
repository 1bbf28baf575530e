// Package scheduler fires the bulk reminder workflow on the calendar stored
// in settings (days of week + HH:MM).
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/deudbot/backend/internal/models"
	"github.com/robfig/cron/v3"
)

type SettingsStore interface {
	LoadSettings(ctx context.Context) (models.Settings, error)
}

type Scheduler struct {
	store   SettingsStore
	trigger func(ctx context.Context)

	mu       sync.Mutex
	cron     *cron.Cron
	entry    cron.EntryID
	hasEntry bool
}

// New builds a stopped scheduler; call Reload to arm it from settings.
func New(store SettingsStore, trigger func(ctx context.Context)) *Scheduler {
	c := cron.New()
	c.Start()
	return &Scheduler{store: store, trigger: trigger, cron: c}
}

// Reload re-reads the settings and replaces the scheduled entry. Called at
// boot and whenever settings are saved.
func (s *Scheduler) Reload(ctx context.Context) error {
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasEntry {
		s.cron.Remove(s.entry)
		s.hasEntry = false
	}

	if !settings.SchedulerEnabled {
		log.Printf("[SCHEDULER] automatic reminders disabled")
		return nil
	}

	spec, err := CronSpec(settings)
	if err != nil {
		return err
	}

	entry, err := s.cron.AddFunc(spec, func() {
		log.Printf("[SCHEDULER] running automatic reminders")
		runCtx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		s.trigger(runCtx)
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	s.entry = entry
	s.hasEntry = true
	log.Printf("[SCHEDULER] reminders scheduled: %s", spec)
	return nil
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cron.Stop()
}

var dayNumbers = map[string]int{
	"domingo": 0, "sunday": 0,
	"lunes": 1, "monday": 1,
	"martes": 2, "tuesday": 2,
	"miercoles": 3, "miércoles": 3, "wednesday": 3,
	"jueves": 4, "thursday": 4,
	"viernes": 5, "friday": 5,
	"sabado": 6, "sábado": 6, "saturday": 6,
}

// CronSpec translates the settings calendar into a standard 5-field cron
// expression. Unknown day names are skipped; no valid day is an error.
func CronSpec(settings models.Settings) (string, error) {
	parts := strings.SplitN(settings.SchedulerTime, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid scheduler time %q", settings.SchedulerTime)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid scheduler hour %q", parts[0])
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid scheduler minute %q", parts[1])
	}

	seen := make(map[int]bool)
	var days []int
	for _, name := range strings.Split(settings.SchedulerDays, ",") {
		num, ok := dayNumbers[strings.ToLower(strings.TrimSpace(name))]
		if !ok || seen[num] {
			continue
		}
		seen[num] = true
		days = append(days, num)
	}
	if len(days) == 0 {
		return "", fmt.Errorf("no valid days in %q", settings.SchedulerDays)
	}
	sort.Ints(days)

	dayList := make([]string, len(days))
	for i, d := range days {
		dayList[i] = strconv.Itoa(d)
	}
	return fmt.Sprintf("%d %d * * %s", minute, hour, strings.Join(dayList, ",")), nil
}
