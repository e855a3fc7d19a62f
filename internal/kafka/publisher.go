package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/UnendingLoop/ImageBatcher/internal/model"
	"github.com/wb-go/wbf/retry"
)

// Sender - контракт продюсера, *wbfkafka.Producer его реализует
type Sender interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, value []byte) error
}

// Стратегия ретрая отправки результата
var retryStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    500 * time.Millisecond,
	Backoff:  2,
}

// ResultPublisher sends every FileResult as a JSON event keyed by run id.
type ResultPublisher struct {
	sender Sender
}

func NewResultPublisher(s Sender) *ResultPublisher {
	return &ResultPublisher{sender: s}
}

func (p *ResultPublisher) Publish(ctx context.Context, res model.FileResult) error {
	if res.Err != nil && res.ErrMsg == "" {
		res.ErrMsg = res.Err.Error()
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result of %q: %w", res.Name, err)
	}

	if err := p.sender.SendWithRetry(ctx, retryStrategy, []byte(res.RunID.String()), payload); err != nil {
		return fmt.Errorf("publish result of %q: %w", res.Name, err)
	}
	return nil
}

// NoopPublisher - ЗАГЛУШКА, когда брокер не настроен
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, model.FileResult) error {
	return nil
}
