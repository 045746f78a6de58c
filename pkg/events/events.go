package events

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type EventType string

const (
	Login        EventType = "LOGIN"
	Logout       EventType = "LOGOUT"
	Refresh      EventType = "REFRESH"
	RefreshError EventType = "REFRESH_ERROR"
	Unauthorized EventType = "UNAUTHORIZED"
)

type SessionEvent struct {
	MsgType   EventType `json:"type"`
	UserName  string    `json:"userName,omitempty"`
	ServerUrl string    `json:"serverUrl"`
	Path      string    `json:"path,omitempty"`
	Error     string    `json:"error,omitempty"`
	Time      int64     `json:"time"`
}

type Publisher interface {
	Publish(ctx context.Context, e SessionEvent) error
	Close() error
}

type KafkaConfig struct {
	Brokers  []string
	Topic    string
	TLS      bool
	Insecure bool
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes session events as JSON, keyed by server url so every
// event of one registry lands on the same partition.
type KafkaPublisher struct {
	w      messageWriter
	logger *zap.Logger
	now    func() time.Time
}

func NewKafkaPublisher(cfg KafkaConfig, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka brokers and topic are required")
	}
	transport := &kafka.Transport{
		DialTimeout: 10 * time.Second,
	}
	if cfg.TLS {
		transport.TLS = &tls.Config{InsecureSkipVerify: cfg.Insecure}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
	return newKafkaPublisher(w, logger), nil
}

func newKafkaPublisher(w messageWriter, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{w: w, logger: logger, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e SessionEvent) error {
	if e.Time == 0 {
		e.Time = p.now().UnixMilli()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return errors.WithStack(err)
	}
	msg := kafka.Message{Key: []byte(e.ServerUrl), Value: value}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("publish session event", zap.String("type", string(e.MsgType)), zap.Error(err))
		return errors.Wrap(err, "publish session event")
	}
	p.logger.Debug("session event published", zap.ByteString("value", value))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, SessionEvent) error { return nil }

func (Nop) Close() error { return nil }
