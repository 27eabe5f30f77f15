package pipeline

import "starguard/pkg/models"

// EventWriter writes collected star events.
type EventWriter interface {
	WriteEvents(events []*models.StarEvent) error
	Close() error
}
