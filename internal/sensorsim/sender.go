package sensorsim

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Sender delivers one encoded reading.
type Sender interface {
	Send(ctx context.Context, body []byte) error
	Close()
}

type httpSender struct {
	client *http.Client
	url    string
}

func newHTTPSender(url string) *httpSender {
	return &httpSender{client: &http.Client{Timeout: 10 * time.Second}, url: url}
}

func (s *httpSender) Send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post reading: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusMultiStatus:
		slog.WarnContext(ctx, "reading stored but status page not updated", "warning", resp.Header.Get("Warning"))
		return nil
	default:
		return fmt.Errorf("post reading: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
}

func (s *httpSender) Close() {}

// mqttSender publishes readings with QoS 1.
type mqttSender struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger
}

func newMQTTSender(opts Options, logger *slog.Logger) *mqttSender {
	s := &mqttSender{topic: opts.Topic, logger: logger}

	mo := mqtt.NewClientOptions()
	mo.AddBroker(fmt.Sprintf("tcp://%s:%d", opts.Broker, opts.Port))
	mo.SetClientID(fmt.Sprintf("sensorsim-%d", time.Now().UnixNano()))
	mo.SetCleanSession(true)
	mo.SetAutoReconnect(true)
	mo.SetKeepAlive(30 * time.Second)
	mo.SetPingTimeout(10 * time.Second)

	mo.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("mqtt connected", "broker", opts.Broker, "port", opts.Port)
	})
	mo.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = mqtt.NewClient(mo)
	return s
}

// Connect waits for the initial connection and respects ctx.
func (s *mqttSender) Connect(ctx context.Context) error {
	token := s.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return ctx.Err()
		default:
		}
	}
}

func (s *mqttSender) Send(ctx context.Context, body []byte) error {
	if !s.client.IsConnectionOpen() {
		return fmt.Errorf("mqtt client not connected")
	}

	token := s.client.Publish(s.topic, 1, false, body)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout for topic %s", s.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish reading: %w", err)
	}
	return nil
}

func (s *mqttSender) Close() {
	s.client.Disconnect(250)
	s.logger.Info("mqtt disconnected")
}
