package production

import (
	"context"
	"fmt"

	"atelier/internal/storage"
)

const (
	BucketAll       = "all"
	BucketPending   = "pending"
	BucketCompleted = "completed"
)

func stageBucketKey(stageID int64) string {
	return fmt.Sprintf("stage_%d", stageID)
}

// FlowBoard groups orders into the all bucket, one bucket per active stage,
// pending and completed. An order sits in a stage bucket when its ledger has
// that stage in progress.
func (s *Service) FlowBoard(ctx context.Context) (storage.FlowBoard, error) {
	const op = "service.production.FlowBoard"

	var (
		stages []storage.Stage
		orders []storage.BoardOrder
	)
	err := s.inTx(ctx, op, func(ctx context.Context, tx Tx) error {
		var err error
		if stages, err = tx.ActiveStages(ctx); err != nil {
			return err
		}
		orders, err = tx.BoardOrders(ctx)
		return err
	})
	if err != nil {
		return storage.FlowBoard{}, err
	}

	return buildBoard(stages, orders), nil
}

func buildBoard(stages []storage.Stage, orders []storage.BoardOrder) storage.FlowBoard {
	buckets := make([]storage.BoardBucket, 0, len(stages)+3)
	buckets = append(buckets, storage.BoardBucket{Key: BucketAll, Label: "All orders", Orders: []storage.BoardOrder{}})

	byStage := make(map[int64]int, len(stages))
	for _, st := range stages {
		id := st.ID
		byStage[id] = len(buckets)
		buckets = append(buckets, storage.BoardBucket{
			Key:     stageBucketKey(id),
			Label:   st.Name,
			StageID: &id,
			Orders:  []storage.BoardOrder{},
		})
	}

	pending := len(buckets)
	buckets = append(buckets, storage.BoardBucket{Key: BucketPending, Label: "Pending", Orders: []storage.BoardOrder{}})
	completed := len(buckets)
	buckets = append(buckets, storage.BoardBucket{Key: BucketCompleted, Label: "Completed", Orders: []storage.BoardOrder{}})

	for _, o := range orders {
		buckets[0].Orders = append(buckets[0].Orders, o)

		if o.InProgressStageID != nil {
			if i, ok := byStage[*o.InProgressStageID]; ok {
				buckets[i].Orders = append(buckets[i].Orders, o)
			}
		} else if o.Status == storage.OrderPending {
			buckets[pending].Orders = append(buckets[pending].Orders, o)
		}

		if o.Status == storage.OrderCompleted {
			buckets[completed].Orders = append(buckets[completed].Orders, o)
		}
	}

	for i := range buckets {
		buckets[i].Count = len(buckets[i].Orders)
	}
	return storage.FlowBoard{Buckets: buckets}
}
