package httpserver

import (
	"context"
	"strconv"
	"time"

	"github.com/Skotchmaster/coffee_shop/internal/logging"
	"github.com/Skotchmaster/coffee_shop/internal/mykafka"
)

const publishTimeout = 5 * time.Second

// publish sends ev after the response outcome is decided. Broker errors are
// logged and never change the HTTP result.
func publish(ctx context.Context, p mykafka.Publisher, topic string, key uint, ev mykafka.Event) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, strconv.FormatUint(uint64(key), 10), ev); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", topic, "type", ev.Type, "error", err)
	}
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
