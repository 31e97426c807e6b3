package events

import (
	"context"
	"errors"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var (
	ErrBufferFull = errors.New("event buffer full")
	ErrClosed     = errors.New("publisher closed")
)

const defaultBufferSize = 256

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaParams struct {
	Brokers    []string
	Topic      string
	BufferSize int
}

func (p KafkaParams) Validate() error {
	if len(p.Brokers) == 0 {
		return errors.New("kafka brokers are required")
	}
	if p.Topic == "" {
		return errors.New("kafka topic is required")
	}
	return nil
}

// ParseBrokers splits a comma separated broker list.
func ParseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// KafkaPublisher queues events in memory and writes them from a single
// worker so that Publish never waits on the broker.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	bucket chan Event
}

func NewKafkaPublisher(params KafkaParams, logger *zap.Logger) (*KafkaPublisher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(params.Brokers...),
		Topic:        params.Topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
	}
	return newKafkaPublisher(writer, params.BufferSize, logger), nil
}

func newKafkaPublisher(writer messageWriter, bufSize int, logger *zap.Logger) *KafkaPublisher {
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &KafkaPublisher{
		writer: writer,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		bucket: make(chan Event, bufSize),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.bucket <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}

func (p *KafkaPublisher) run() {
	defer p.wg.Done()
	for e := range p.bucket {
		if err := p.write(e); err != nil {
			p.logger.Error("publish event",
				zap.String("type", string(e.Type)),
				zap.String("tx", e.TxHash),
				zap.Error(err))
		}
	}
}

func (p *KafkaPublisher) write(e Event) error {
	msg, err := ToMessage(e)
	if err != nil {
		return err
	}
	serialized, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(p.ctx, kafka.Message{
		Key:   []byte(e.Account),
		Value: serialized,
	})
}

// Close drains queued events and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.bucket)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
	return p.writer.Close()
}

var _ Publisher = (*KafkaPublisher)(nil)
