package ws

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/quantdesk/screener/internal/scan"
)

// streamFrame is the payload pushed to subscribers on every sweep.
type streamFrame struct {
	Timestamp string           `json:"timestamp"`
	Watchlist string           `json:"watchlist"`
	Buys      []scan.SignalRow `json:"buys"`
	Sells     []scan.SignalRow `json:"sells"`
}

// Resolver maps a watchlist name to its ticker list.
type Resolver func(name string) ([]string, bool)

// Streamer periodically re-runs the signal scan for every watchlist
// with active subscribers and broadcasts the results per group.
type Streamer struct {
	hub      *Hub
	scanner  *scan.SignalScanner
	resolve  Resolver
	interval time.Duration
	logger   *zap.Logger
}

// NewStreamer creates a new Streamer.
func NewStreamer(hub *Hub, scanner *scan.SignalScanner, resolve Resolver, interval time.Duration, logger *zap.Logger) *Streamer {
	return &Streamer{
		hub:      hub,
		scanner:  scanner,
		resolve:  resolve,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the streaming loop. Call in a goroutine.
// Returns when context is cancelled.
func (s *Streamer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("signal streamer started",
		zap.Duration("interval", s.interval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("signal streamer stopping")
			return

		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep scans every active watchlist group and broadcasts one frame each.
func (s *Streamer) sweep(ctx context.Context) {
	for _, group := range s.hub.ActiveGroups() {
		tickers, ok := s.resolve(group)
		if !ok {
			s.logger.Warn("subscribed watchlist no longer configured", zap.String("watchlist", group))
			continue
		}

		buys, err := s.scanner.Scan(ctx, tickers, scan.Buy)
		if err != nil {
			s.logger.Warn("buy sweep failed",
				zap.String("watchlist", group),
				zap.Error(err),
			)
			continue
		}

		sells, err := s.scanner.Scan(ctx, tickers, scan.Sell)
		if err != nil {
			s.logger.Warn("sell sweep failed",
				zap.String("watchlist", group),
				zap.Error(err),
			)
			continue
		}

		payload, err := json.Marshal(streamFrame{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Watchlist: group,
			Buys:      buys.Rows,
			Sells:     sells.Rows,
		})
		if err != nil {
			s.logger.Warn("failed to encode stream frame", zap.Error(err))
			continue
		}

		s.hub.Broadcast(group, payload)

		s.logger.Debug("broadcast signal frame",
			zap.String("watchlist", group),
			zap.Int("buys", len(buys.Rows)),
			zap.Int("sells", len(sells.Rows)),
		)
	}
}
