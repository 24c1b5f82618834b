package app

import (
	"context"
	"time"

	"github.com/cimillas/agora-market/internal/events"
	"go.uber.org/zap"
)

type serviceOptions struct {
	publisher events.Publisher
	logger    *zap.SugaredLogger
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		publisher: events.Nop{},
		logger:    zap.NewNop().Sugar(),
	}
}

// Option configures the optional collaborators of a service.
type Option func(*serviceOptions)

// WithPublisher sends committed market activity to p.
func WithPublisher(p events.Publisher) Option {
	return func(o *serviceOptions) {
		if p != nil {
			o.publisher = p
		}
	}
}

// WithLogger overrides the no-op logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func applyOptions(opts []Option) serviceOptions {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

const publishTimeout = 500 * time.Millisecond

// publish runs after commit, so a broker failure is logged rather than returned.
func (o serviceOptions) publish(ctx context.Context, evt events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := o.publisher.Publish(ctx, evt); err != nil {
		o.logger.Warnw("publish event failed",
			"type", evt.Type,
			"market_id", evt.MarketID,
			"error", err,
		)
	}
}
