// Package notify delivers lead events to buyers and administrators. Every
// delivery is independent: failures are collected and logged, never returned
// to the operation that triggered them.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/lead-marketplace/internal/entity"
	"github.com/xavierca1/lead-marketplace/internal/infra/metrics"
)

const (
	DefaultConcurrency = 8
	DefaultTimeout     = 60 * time.Second
)

// Channel delivers one message to one user.
type Channel interface {
	Name() string
	Send(ctx context.Context, to entity.User, msg entity.Message) error
}

type Delivery struct {
	Channel Channel
	To      entity.User
	Message entity.Message
}

type Fanout struct {
	Directory   entity.UserDirectory
	Email       Channel
	InApp       Channel
	Concurrency int
	Timeout     time.Duration
	BaseURL     string
	Logger      *zap.Logger

	wg sync.WaitGroup
}

type Options struct {
	Email       Channel
	InApp       Channel
	Concurrency int
	Timeout     time.Duration
	BaseURL     string
}

func NewFanout(directory entity.UserDirectory, opts Options, logger *zap.Logger) *Fanout {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Fanout{
		Directory:   directory,
		Email:       opts.Email,
		InApp:       opts.InApp,
		Concurrency: opts.Concurrency,
		Timeout:     opts.Timeout,
		BaseURL:     opts.BaseURL,
		Logger:      logger.Named("fanout"),
	}
}

// LeadAccepted announces a newly listed lead. It returns immediately.
func (f *Fanout) LeadAccepted(ctx context.Context, lead *entity.Lead) {
	snapshot := lead.Clone()
	f.dispatch(ctx, "lead_accepted", snapshot.ID, func(ctx context.Context) ([]Delivery, error) {
		return f.acceptedDeliveries(ctx, snapshot)
	})
}

// LeadPurchased confirms a sale to its buyer and records it for administrators.
// It returns immediately.
func (f *Fanout) LeadPurchased(ctx context.Context, lead *entity.Lead, purchase *entity.Purchase) {
	snapshot := lead.Clone()
	p := *purchase
	f.dispatch(ctx, "lead_purchased", snapshot.ID, func(ctx context.Context) ([]Delivery, error) {
		return f.purchasedDeliveries(ctx, snapshot, &p)
	})
}

// Wait blocks until every dispatched event has finished delivering.
func (f *Fanout) Wait() {
	f.wg.Wait()
}

// Shutdown waits for in-flight events or gives up when ctx is done.
func (f *Fanout) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fanout) dispatch(ctx context.Context, event, leadID string, plan func(context.Context) ([]Delivery, error)) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				f.Logger.Error("fan-out panicked",
					zap.String("event", event),
					zap.String("lead_id", leadID),
					zap.Any("panic", r),
				)
			}
		}()

		timeout := f.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		deliveries, err := plan(ctx)
		if err != nil {
			f.Logger.Error("failed to resolve recipients",
				zap.String("event", event),
				zap.String("lead_id", leadID),
				zap.Error(err),
			)
			return
		}

		err = f.Deliver(ctx, deliveries)
		failed := len(multierr.Errors(err))
		if err != nil {
			f.Logger.Warn("some notifications were not delivered",
				zap.String("event", event),
				zap.String("lead_id", leadID),
				zap.Int("failed", failed),
				zap.Int("total", len(deliveries)),
				zap.Error(err),
			)
			return
		}
		f.Logger.Debug("notifications delivered",
			zap.String("event", event),
			zap.String("lead_id", leadID),
			zap.Int("total", len(deliveries)),
		)
	}()
}

// Deliver attempts every delivery, at most Concurrency at a time, and returns
// the combined failures. One failed or panicking delivery never stops another.
func (f *Fanout) Deliver(ctx context.Context, deliveries []Delivery) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)
	g.SetLimit(max(f.Concurrency, 1))

	for _, d := range deliveries {
		g.Go(func() error {
			if err := f.send(ctx, d); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

func (f *Fanout) send(ctx context.Context, d Delivery) (err error) {
	channel := d.Channel.Name()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s to %s panicked: %v", channel, d.To.ID, r)
		}
		metrics.RecordDelivery(channel, err)
		if err != nil {
			f.Logger.Error("notification delivery failed",
				zap.String("channel", channel),
				zap.String("user_id", d.To.ID),
				zap.String("kind", string(d.Message.Kind)),
				zap.Error(err),
			)
		}
	}()

	if err := d.Channel.Send(ctx, d.To, d.Message); err != nil {
		return fmt.Errorf("%s to %s: %w", channel, d.To.ID, err)
	}
	return nil
}

// acceptedDeliveries sends every interested active buyer an email (when opted
// in) and an in-app notice; administrators get the in-app notice only.
func (f *Fanout) acceptedDeliveries(ctx context.Context, lead *entity.Lead) ([]Delivery, error) {
	buyers, err := f.Directory.ListByRole(ctx, entity.RoleBuyer)
	if err != nil {
		return nil, fmt.Errorf("list buyers: %w", err)
	}
	admins, err := f.Directory.ListByRole(ctx, entity.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	available := leadAvailableMessage(lead, f.BaseURL)
	var out []Delivery
	for _, u := range buyers {
		if !u.Active || !u.InterestedIn(lead.Specialty) {
			continue
		}
		if f.Email != nil && u.EmailOptIn && u.Email != "" {
			out = append(out, Delivery{Channel: f.Email, To: u, Message: available})
		}
		if f.InApp != nil {
			out = append(out, Delivery{Channel: f.InApp, To: u, Message: available})
		}
	}

	if f.InApp != nil {
		accepted := leadAcceptedMessage(lead, f.BaseURL)
		for _, u := range admins {
			if u.Active {
				out = append(out, Delivery{Channel: f.InApp, To: u, Message: accepted})
			}
		}
	}
	return out, nil
}

func (f *Fanout) purchasedDeliveries(ctx context.Context, lead *entity.Lead, p *entity.Purchase) ([]Delivery, error) {
	var out []Delivery

	buyer := entity.User{ID: p.BuyerID, Role: entity.RoleBuyer}
	if u, err := f.Directory.FindByID(ctx, p.BuyerID); err == nil {
		buyer = *u
	} else {
		f.Logger.Warn("buyer not in directory, confirming in-app only",
			zap.String("buyer_id", p.BuyerID),
			zap.Error(err),
		)
	}

	confirmation := purchaseConfirmedMessage(lead, p, f.BaseURL)
	if f.Email != nil && buyer.EmailOptIn && buyer.Email != "" {
		out = append(out, Delivery{Channel: f.Email, To: buyer, Message: confirmation})
	}
	if f.InApp != nil {
		out = append(out, Delivery{Channel: f.InApp, To: buyer, Message: confirmation})

		admins, err := f.Directory.ListByRole(ctx, entity.RoleAdmin)
		if err != nil {
			f.Logger.Warn("failed to list admins, skipping sale audit", zap.Error(err))
			return out, nil
		}
		sold := leadSoldMessage(lead, p, f.BaseURL)
		for _, u := range admins {
			if u.Active {
				out = append(out, Delivery{Channel: f.InApp, To: u, Message: sold})
			}
		}
	}
	return out, nil
}
