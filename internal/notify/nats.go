package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"emiteNota/internal/batch"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const DefaultSubject = "nfse.outcomes"

type NATSConfig struct {
	URL     string
	Subject string
}

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink публикует результаты в subject NATS в JSON
type NATSSink struct {
	conn    *nats.Conn
	pub     publisher
	subject string
	breaker *CircuitBreaker
	log     *zap.Logger
}

func NewNATSSink(cfg NATSConfig, log *zap.Logger) (*NATSSink, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	if log == nil {
		log = zap.NewNop()
	}

	nc, err := nats.Connect(url,
		nats.Name("emitenota"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("Соединение с NATS потеряно", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("Соединение с NATS восстановлено", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("подключение к NATS %s: %w", url, err)
	}

	s := newNATSSink(nc, cfg.Subject, log)
	s.conn = nc
	log.Info("Публикация результатов в NATS", zap.String("url", url), zap.String("subject", s.subject))
	return s, nil
}

func newNATSSink(pub publisher, subject string, log *zap.Logger) *NATSSink {
	if subject == "" {
		subject = DefaultSubject
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &NATSSink{
		pub:     pub,
		subject: subject,
		breaker: NewCircuitBreaker(5, 30*time.Second),
		log:     log,
	}
}

func (s *NATSSink) Publish(_ context.Context, o batch.Outcome) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("сериализация результата: %w", err)
	}
	return s.breaker.Call(func() error {
		return s.pub.Publish(s.subject, data)
	})
}

// Close отправляет буферизованные сообщения и закрывает соединение
func (s *NATSSink) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
		return err
	}
	return nil
}
