package models

// Settings enumerates every recognized configuration key. Values live in the
// settings table as key/value rows; unknown keys are ignored on save.
type Settings struct {
	ReminderTemplate string `json:"reminderTemplate"`
	ReplyTemplate    string `json:"replyTemplate"`
	SchedulerEnabled bool   `json:"schedulerEnabled"`
	SchedulerTime    string `json:"schedulerTime"` // HH:MM, 24h
	SchedulerDays    string `json:"schedulerDays"` // comma-separated day names
}

// Storage keys for Settings fields.
const (
	SettingReminderTemplate = "reminder_template"
	SettingReplyTemplate    = "reply_template"
	SettingSchedulerEnabled = "scheduler_enabled"
	SettingSchedulerTime    = "scheduler_time"
	SettingSchedulerDays    = "scheduler_days"
)

// DefaultSettings seeds a fresh install.
func DefaultSettings() Settings {
	return Settings{
		ReminderTemplate: "Hola {nombre}, te recuerdo que tienes una deuda pendiente de ${deuda}. ¡Gracias por tu atención!",
		ReplyTemplate:    "Hola {nombre}, tu deuda actual es de ${deuda}. Si ya realizaste un pago, por favor notifica al administrador.",
		SchedulerEnabled: false,
		SchedulerTime:    "09:00",
		SchedulerDays:    "lunes,miercoles,viernes",
	}
}
