package statistics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"atelier/internal/storage"
)

type StatisticsStorage interface {
	OrderStatusCounts(ctx context.Context) (map[storage.OrderStatus]int, error)
	OverdueOrders(ctx context.Context, now time.Time) (int, error)
	StageLoads(ctx context.Context) ([]storage.StageLoad, error)
	ResourceUtilization(ctx context.Context) (storage.ResourceUtilization, error)
}

type StatisticsService struct {
	storage StatisticsStorage
	now     func() time.Time
}

func NewStatisticsService(storage StatisticsStorage) *StatisticsService {
	return &StatisticsService{
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// FlowStatistics gathers the order, stage and resource aggregates in parallel.
func (s *StatisticsService) FlowStatistics(ctx context.Context) (storage.FlowStatistics, error) {
	now := s.now()

	var (
		counts  map[storage.OrderStatus]int
		overdue int
		loads   []storage.StageLoad
		util    storage.ResourceUtilization
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.storage.OrderStatusCounts(gCtx)
		if err != nil {
			return fmt.Errorf("order counts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		overdue, err = s.storage.OverdueOrders(gCtx, now)
		if err != nil {
			return fmt.Errorf("overdue orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		loads, err = s.storage.StageLoads(gCtx)
		if err != nil {
			return fmt.Errorf("stage loads: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		util, err = s.storage.ResourceUtilization(gCtx)
		if err != nil {
			return fmt.Errorf("resources: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return storage.FlowStatistics{}, fmt.Errorf("service.statistics.FlowStatistics: %w", err)
	}

	byStatus := map[storage.OrderStatus]int{
		storage.OrderPending:    0,
		storage.OrderInProgress: 0,
		storage.OrderCompleted:  0,
		storage.OrderCancelled:  0,
	}
	total := 0
	for status, n := range counts {
		byStatus[status] = n
		total += n
	}
	if loads == nil {
		loads = []storage.StageLoad{}
	}

	return storage.FlowStatistics{
		OrdersByStatus: byStatus,
		TotalOrders:    total,
		OverdueOrders:  overdue,
		Stages:         loads,
		Resources:      util,
		GeneratedAt:    now,
	}, nil
}
