package analytics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Daemon runs RefreshAll once on Start and then on every tick.
type Daemon struct {
	service  *Service
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewDaemon(service *Service, interval time.Duration) *Daemon {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Daemon{service: service, interval: interval}
}

func (d *Daemon) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})

	go func() {
		defer close(d.done)

		d.tick(ctx)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.tick(ctx)
			}
		}
	}()

	log.Info().Dur("interval", d.interval).Msg("Analytics daemon started")
}

// Stop cancels the running refresh and waits for it or for ctx.
func (d *Daemon) Stop(ctx context.Context) error {
	if d.cancel == nil {
		return nil
	}
	d.cancel()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Daemon) tick(ctx context.Context) {
	if err := d.service.RefreshAll(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("Analytics refresh failed")
	}
}
