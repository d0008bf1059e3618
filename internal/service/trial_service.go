package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/jmylchreest/pricing-detective/internal/constants"
	"github.com/jmylchreest/pricing-detective/internal/metrics"
	"github.com/jmylchreest/pricing-detective/internal/models"
)

// ErrTrialExhausted is returned when a device has used all free analyses and has no paid balance.
var ErrTrialExhausted = errors.New("free trial exhausted")

// TrialStore holds per-device usage counts.
type TrialStore interface {
	Count(ctx context.Context, key string) (int, error)
	// Acquire increments key only if its count is below limit. It returns
	// the count after the call and whether the increment happened.
	Acquire(ctx context.Context, key string, limit int) (used int, ok bool, err error)
	// Release decrements key, never below zero.
	Release(ctx context.Context, key string) error
}

// TokenBalance lets paid credit bypass the trial limit.
type TokenBalance interface {
	// Spend consumes one token for deviceID, reporting false when there is no credit.
	Spend(ctx context.Context, deviceID string) (bool, error)
}

// MemoryTrialStore is a process-local TrialStore. Counts are lost on restart.
type MemoryTrialStore struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryTrialStore creates an empty in-memory store.
func NewMemoryTrialStore() *MemoryTrialStore {
	return &MemoryTrialStore{counts: make(map[string]int)}
}

func (s *MemoryTrialStore) Count(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[key], nil
}

func (s *MemoryTrialStore) Acquire(_ context.Context, key string, limit int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	used := s.counts[key]
	if used >= limit {
		return used, false, nil
	}
	used++
	s.counts[key] = used
	return used, true, nil
}

func (s *MemoryTrialStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts[key] > 1 {
		s.counts[key]--
	} else {
		delete(s.counts, key)
	}
	return nil
}

// TrialGrant records how an analysis was paid for.
type TrialGrant struct {
	DeviceID string
	Paid     bool // Spent a token rather than a free analysis
	Used     int  // Free analyses used after this grant
}

// TrialServiceConfig configures a TrialService.
type TrialServiceConfig struct {
	Limit           int  // Default: constants.FreeTrialLimit
	RefundOnFailure bool // Give the free analysis back when the analysis fails
	Balance         TokenBalance
}

// TrialService gates analyses behind the per-device free trial.
type TrialService struct {
	store           TrialStore
	limit           int
	refundOnFailure bool
	balance         TokenBalance
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

// NewTrialService creates a new trial service.
func NewTrialService(store TrialStore, cfg TrialServiceConfig, m *metrics.Metrics, logger *slog.Logger) *TrialService {
	if store == nil {
		store = NewMemoryTrialStore()
	}
	if cfg.Limit <= 0 {
		cfg.Limit = constants.FreeTrialLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TrialService{
		store:           store,
		limit:           cfg.Limit,
		refundOnFailure: cfg.RefundOnFailure,
		balance:         cfg.Balance,
		metrics:         m,
		logger:          logger,
	}
}

// Limit returns the number of free analyses per device.
func (s *TrialService) Limit() int {
	return s.limit
}

// Consume charges one analysis to deviceID. Rejected calls never increment the counter.
func (s *TrialService) Consume(ctx context.Context, deviceID string) (*TrialGrant, error) {
	deviceID = normalizeDeviceID(deviceID)

	used, ok, err := s.store.Acquire(ctx, deviceID, s.limit)
	if err != nil {
		return nil, err
	}
	if ok {
		s.metrics.RecordFreeTrialUse()
		s.logger.Debug("free trial used", "device_id", deviceID, "used", used, "limit", s.limit)
		return &TrialGrant{DeviceID: deviceID, Used: used}, nil
	}

	if s.balance != nil {
		spent, err := s.balance.Spend(ctx, deviceID)
		if err != nil {
			return nil, err
		}
		if spent {
			return &TrialGrant{DeviceID: deviceID, Paid: true, Used: used}, nil
		}
	}

	s.logger.Info("free trial exhausted", "device_id", deviceID, "used", used)
	return nil, ErrTrialExhausted
}

// Refund gives back a free analysis when refunds are enabled. Paid grants are not refunded.
func (s *TrialService) Refund(ctx context.Context, grant *TrialGrant) {
	if !s.refundOnFailure || grant == nil || grant.Paid {
		return
	}
	if err := s.store.Release(ctx, grant.DeviceID); err != nil {
		s.logger.Warn("failed to refund free trial", "device_id", grant.DeviceID, "error", err)
	}
}

// Status reports trial usage for deviceID.
func (s *TrialService) Status(ctx context.Context, deviceID string) (models.TrialStatus, error) {
	used, err := s.store.Count(ctx, normalizeDeviceID(deviceID))
	if err != nil {
		return models.TrialStatus{}, err
	}
	return models.NewTrialStatus(used, s.limit), nil
}

func normalizeDeviceID(deviceID string) string {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return constants.AnonymousDeviceID
	}
	return deviceID
}
