package delivery

import (
	"errors"

	"assignment-planner/pkg/logger"
	"assignment-planner/pkg/reminders"
)

// Log shows alerts as log lines.
type Log struct {
	log logger.Logger
}

// NewLog returns a surface writing to log.
func NewLog(log logger.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Deliver(msg reminders.Message) error {
	l.log.Info("Reminder [%s] %s: %s", msg.Tag, msg.Title, msg.Body)
	return nil
}

// Multi delivers to every surface. It fails only when every surface failed.
type Multi []reminders.Delivery

func (m Multi) Deliver(msg reminders.Message) error {
	var errs []error
	for _, d := range m {
		if err := d.Deliver(msg); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 && len(errs) == len(m) {
		return errors.Join(errs...)
	}
	return nil
}

var (
	_ reminders.Delivery = (*Log)(nil)
	_ reminders.Delivery = Multi(nil)
)
