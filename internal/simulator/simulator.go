// Package simulator stands in for a real venue: it consumes Orders and
// returns deterministic full Fills, so the executor's state machine is
// exercisable end-to-end without modeling venue liquidity.
package simulator

import (
	"context"
	"fmt"
	"time"

	"arbitrage/internal/bus"
	"arbitrage/internal/models"
	"arbitrage/pkg/utils"
)

const (
	inputStream  = "orders.new"
	outputStream = "orders.fills"
	groupName    = "sim"
	consumerName = "sim-1"
)

// Simulator drives the orders.new -> orders.fills consumer loop.
type Simulator struct {
	b   bus.Bus
	log *utils.Logger
}

func New(b bus.Bus, log *utils.Logger) *Simulator {
	return &Simulator{b: b, log: log.WithComponent("simulator")}
}

// Run ensures the consumer group exists and processes Orders until ctx
// is canceled.
func (s *Simulator) Run(ctx context.Context) error {
	if err := s.b.EnsureGroup(ctx, inputStream, groupName); err != nil {
		return fmt.Errorf("ensure group: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		entries, err := s.b.Read(ctx, inputStream, groupName, consumerName, 50, time.Second)
		if err == bus.ErrNoEntries {
			continue
		}
		if err != nil {
			s.log.Warn("read failed", utils.Err(err))
			time.Sleep(300 * time.Millisecond)
			continue
		}

		for _, entry := range entries {
			s.process(ctx, entry)
		}
	}
}

func (s *Simulator) process(ctx context.Context, entry bus.Entry) {
	defer func() {
		if err := s.b.Ack(ctx, inputStream, groupName, entry.ID); err != nil {
			s.log.Warn("ack failed", utils.Err(err))
		}
	}()

	var order models.Order
	if err := models.Unmarshal(entry.Data, &order); err != nil {
		ordersRejected.WithLabelValues("parse_error").Inc()
		return
	}

	fill := Fill(order)

	ts, err := s.b.Now(ctx)
	if err != nil {
		s.log.Warn("read bus clock failed, fill not sent", utils.Err(err))
		return
	}
	fill.Ts = ts

	data, err := models.Marshal(fill)
	if err != nil {
		s.log.Error("marshal fill", utils.Err(err))
		return
	}
	if _, err := s.b.Append(ctx, outputStream, data); err != nil {
		s.log.Warn("append fill failed", utils.Err(err))
		return
	}
	fillsEmitted.Inc()
}

// Fill builds the deterministic full Fill for order: px equals the
// order's estimated price, and both requestedSize and filledSize equal
// the order's size (always a complete fill).
func Fill(order models.Order) models.Fill {
	p := order.Payload
	return models.Fill{
		ID:   fmt.Sprintf("fill-%s-%d", p.CorrID, p.LegIndex),
		Type: models.FillEntryType,
		Payload: models.FillPayload{
			CorrID:        p.CorrID,
			LegIndex:      p.LegIndex,
			Exchange:      p.Exchange,
			InstrumentID:  p.InstrumentID,
			Side:          p.Side,
			Px:            p.EstPx,
			RequestedSize: p.Size,
			FilledSize:    p.Size,
			Mode:          p.Mode,
		},
	}
}
