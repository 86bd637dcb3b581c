package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/vxgen/ProductCheck/internal/config"
	"github.com/vxgen/ProductCheck/internal/models"
	"github.com/vxgen/ProductCheck/pkg/logger"
	"github.com/vxgen/ProductCheck/pkg/logger/log"
	"github.com/vxgen/ProductCheck/pkg/util"
	"go.uber.org/fx"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Publisher emits one event per merged scan observation.
type Publisher interface {
	Publish(ctx context.Context, event models.ScanEvent) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer       messageWriter
	topic        string
	metrics      *prometheus.HistogramVec
	writeTimeout time.Duration
}

func NewPublisher(lc fx.Lifecycle, conf *config.Config) (Publisher, error) {
	cfg := conf.Publisher
	if !cfg.Enabled {
		return &noopPublisher{}, nil
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	p, err := newPublisher(w, cfg.Topic)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Infof(ctx, "closing kafka publisher for topic: %s", cfg.Topic)
			return w.Close()
		},
	})
	return p, nil
}

func newPublisher(w messageWriter, topic string) (*kafkaPublisher, error) {
	metrics, err := util.GetHistogramVec("kafka_messages_produced", "code", "topic")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	return &kafkaPublisher{
		writer:       w,
		topic:        topic,
		metrics:      metrics,
		writeTimeout: 10 * time.Second,
	}, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, event models.ScanEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal scan event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	start := time.Now()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.URL),
		Value: value,
		Time:  event.ScannedAt,
	})
	duration := time.Since(start)

	code := getCode(err)
	log.Logw(ctx, getLogLevel(code), "publish scan event",
		"code", code.String(),
		"duration_ms", duration.Milliseconds(),
		"topic", p.topic,
		"key", event.URL,
		"value", json.RawMessage(value),
	)
	p.metrics.WithLabelValues(code.String(), p.topic).Observe(duration.Seconds())

	if err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func getCode(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	}
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		switch {
		case errors.Is(kerr, kafka.UnknownTopicOrPartition):
			return codes.NotFound
		case errors.Is(kerr, kafka.TopicAuthorizationFailed):
			return codes.PermissionDenied
		case errors.Is(kerr, kafka.MessageSizeTooLarge):
			return codes.InvalidArgument
		case kerr.Temporary():
			return codes.Unavailable
		}
		return codes.Internal
	}
	return status.Code(err)
}

func getLogLevel(code codes.Code) logger.Level {
	switch code {
	case codes.OK:
		return logger.DebugLevel
	case codes.Canceled,
		codes.InvalidArgument,
		codes.NotFound,
		codes.PermissionDenied,
		codes.Unavailable:
		return logger.WarnLevel
	default:
		return logger.ErrorLevel
	}
}

// noopPublisher is used when publishing is disabled
type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, models.ScanEvent) error {
	return nil
}
