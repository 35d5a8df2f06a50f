package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender queues messages on a topic consumed by the mail worker.
type KafkaSender struct {
	l     *slog.Logger
	w     messageWriter
	topic string
}

func NewKafkaSender(l *slog.Logger, brokers []string, topic string) *KafkaSender {
	l = l.WithGroup("kafka").With("topic", topic)

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		Async:                  true,
		Logger:                 &infoLogger{l: l},
		ErrorLogger:            &errorLogger{l: l},
		AllowAutoTopicCreation: true,
	}

	return &KafkaSender{l: l, w: w, topic: topic}
}

func (p *KafkaSender) Send(ctx context.Context, msg Message) error {
	if len(msg.Recipients) == 0 {
		return ErrNoRecipients
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mail message: %w", err)
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strings.Join(msg.Recipients, ",")),
		Value: b,
		Topic: p.topic,
	})
	if err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

func (p *KafkaSender) Close() {
	if err := p.w.Close(); err != nil {
		p.l.Error(fmt.Sprintf("close kafka writer: %s", err))
	}
}

// HandleMessage decodes a queued message and hands it to the delivering sender.
func HandleMessage(sender Sender) func(context.Context, kafka.Message) error {
	return func(ctx context.Context, km kafka.Message) error {
		var msg Message
		if err := json.Unmarshal(km.Value, &msg); err != nil {
			return fmt.Errorf("unmarshal mail message: %w", err)
		}
		if err := sender.Send(ctx, msg); err != nil {
			return fmt.Errorf("deliver mail message: %w", err)
		}
		return nil
	}
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	l             *slog.Logger
	r             messageReader
	wg            sync.WaitGroup
	topicHandlers map[string]func(context.Context, kafka.Message) error
}

func NewConsumer(l *slog.Logger, brokers []string, groupID string, topics ...string) *Consumer {
	l = l.WithGroup("kafka").With("group_id", groupID)

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		Logger:      &infoLogger{l: l},
		ErrorLogger: &errorLogger{l: l},
	})

	return newConsumer(l, r)
}

func newConsumer(l *slog.Logger, r messageReader) *Consumer {
	return &Consumer{
		l:             l,
		r:             r,
		topicHandlers: make(map[string]func(context.Context, kafka.Message) error),
	}
}

func (c *Consumer) Handle(topic string, handler func(context.Context, kafka.Message) error) *Consumer {
	c.topicHandlers[topic] = handler
	return c
}

// Consume reads until ctx is done or the reader is closed. Handler failures are
// logged and the message is skipped.
func (c *Consumer) Consume(ctx context.Context) *Consumer {
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		for {
			m, err := c.r.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, io.EOF) {
					c.l.Info("kafka consumer stopped")
					return
				}
				c.l.Error(fmt.Sprintf("read kafka msg: %s", err))
				continue
			}

			handler, ok := c.topicHandlers[m.Topic]
			if !ok {
				c.l.Warn("kafka handler not found", "topic", m.Topic)
				continue
			}

			if err := handler(ctx, m); err != nil {
				c.l.Error(fmt.Sprintf("handle kafka msg: %s", err), "topic", m.Topic)
			}
		}
	}()

	return c
}

func (c *Consumer) Close() {
	if err := c.r.Close(); err != nil {
		c.l.Error(fmt.Sprintf("close kafka reader: %s", err))
	}
	c.wg.Wait()
}

type infoLogger struct {
	l *slog.Logger
}

func (l *infoLogger) Printf(format string, v ...any) {
	l.l.Info(fmt.Sprintf(format, v...))
}

type errorLogger struct {
	l *slog.Logger
}

func (l *errorLogger) Printf(format string, v ...any) {
	l.l.Error(fmt.Sprintf(format, v...))
}
