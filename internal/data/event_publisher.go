package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/conf"
)

// eventPublisher 把 payout 事件发布到 watermill
type eventPublisher struct {
	publisher message.Publisher
	topic     string
	log       *log.Helper
}

// NewEventPublisher 配置了 brokers 时发布到 Kafka，否则使用进程内 gochannel
func NewEventPublisher(c *conf.Bootstrap, logger log.Logger) (biz.EventPublisher, func(), error) {
	helper := log.NewHelper(logger)
	wlogger := newWatermillLogger(logger)

	topic := conf.DefaultTopic
	var brokers []string
	if c != nil && c.Messaging != nil {
		if c.Messaging.Topic != "" {
			topic = c.Messaging.Topic
		}
		brokers = c.Messaging.Brokers
	}

	var pub message.Publisher
	if len(brokers) == 0 {
		helper.Info("no kafka brokers configured, payout events stay in process")
		pub = gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wlogger)
	} else {
		saramaConfig := kafka.DefaultSaramaSyncPublisherConfig()
		saramaConfig.ClientID = "settlement-service"
		saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
		saramaConfig.Producer.Timeout = 10 * time.Second
		kp, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:               brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaConfig,
		}, wlogger)
		if err != nil {
			return nil, nil, fmt.Errorf("create kafka publisher: %w", err)
		}
		pub = kp
	}

	cleanup := func() {
		if err := pub.Close(); err != nil {
			helper.Warnf("Failed to close event publisher: %v", err)
		}
	}
	return &eventPublisher{publisher: pub, topic: topic, log: helper}, cleanup, nil
}

func (p *eventPublisher) Publish(ctx context.Context, event *biz.PayoutEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", event.Type)
	msg.Metadata.Set("payout_id", event.PayoutID)
	msg.SetContext(ctx)
	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// watermillLogger 将 watermill 日志接入 kratos logger
type watermillLogger struct {
	logger log.Logger
	fields watermill.LogFields
}

func newWatermillLogger(logger log.Logger) watermill.LoggerAdapter {
	return &watermillLogger{logger: log.With(logger, "module", "watermill")}
}

func (l *watermillLogger) keyvals(msg string, fields watermill.LogFields) []interface{} {
	kv := []interface{}{"msg", msg}
	for k, v := range l.fields.Add(fields) {
		kv = append(kv, k, v)
	}
	return kv
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	_ = l.logger.Log(log.LevelError, append(l.keyvals(msg, fields), "error", err)...)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	_ = l.logger.Log(log.LevelInfo, l.keyvals(msg, fields)...)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	_ = l.logger.Log(log.LevelDebug, l.keyvals(msg, fields)...)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	_ = l.logger.Log(log.LevelDebug, l.keyvals(msg, fields)...)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{logger: l.logger, fields: l.fields.Add(fields)}
}
