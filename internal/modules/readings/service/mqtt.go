package service

import (
	"context"
	"errors"
)

// MQTTSubscriber is implemented by the MQTT subscriber; payloads are raw
// message bodies.
type MQTTSubscriber interface {
	SetMessageHandler(handler func(payload []byte) error)
}

// RegisterMQTT feeds every MQTT payload through Ingest. Rejected payloads are
// logged and dropped; storage and publish failures are returned to the
// subscriber.
func (s *Service) RegisterMQTT(subscriber MQTTSubscriber) {
	subscriber.SetMessageHandler(func(payload []byte) error {
		reading, err := s.Ingest(context.Background(), payload)
		if err == nil {
			s.logger.Debug("stored mqtt reading", "datetime", reading.Datetime, "location", reading.Location)
			return nil
		}

		var e *Error
		if !errors.As(err, &e) {
			return err
		}
		switch e.Kind {
		case KindMalformedRequest, KindClientData:
			s.logger.Warn("rejected mqtt reading",
				"kind", e.Kind,
				"problems", e.Problems,
				"error", e.Err,
			)
			return nil
		case KindPublish:
			s.logger.Warn("stored mqtt reading but status page not updated",
				"datetime", reading.Datetime,
				"error", e.Err,
			)
			return err
		default:
			return err
		}
	})
}
