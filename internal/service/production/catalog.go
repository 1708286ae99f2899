package production

import (
	"context"
	"math"

	"atelier/internal/lib/apperr"
	"atelier/internal/storage"
)

// ListActiveStages returns the active catalog ascending by order_sequence.
func (s *Service) ListActiveStages(ctx context.Context) ([]storage.Stage, error) {
	const op = "service.production.ListActiveStages"

	var stages []storage.Stage
	err := s.inTx(ctx, op, func(ctx context.Context, tx Tx) error {
		var err error
		stages, err = tx.ActiveStages(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if stages == nil {
		stages = []storage.Stage{}
	}
	return stages, nil
}

func stageIndex(stages []storage.Stage, stageID int64) int {
	for i, st := range stages {
		if st.ID == stageID {
			return i
		}
	}
	return -1
}

func activeStage(stages []storage.Stage, stageID int64) (storage.Stage, error) {
	i := stageIndex(stages, stageID)
	if i < 0 {
		return storage.Stage{}, apperr.NotFound(apperr.CodeStageNotFound, "production stage not found or inactive", nil)
	}
	return stages[i], nil
}

// nextStage is the first active stage whose sequence follows sequence.
func nextStage(stages []storage.Stage, sequence int) (storage.Stage, bool) {
	for _, st := range stages {
		if st.OrderSequence > sequence {
			return st, true
		}
	}
	return storage.Stage{}, false
}

// progressFor is the share of the active catalog reached once the order is in
// stageID, as a percentage rounded to the nearest integer.
func progressFor(stages []storage.Stage, stageID int64) int {
	i := stageIndex(stages, stageID)
	if i < 0 || len(stages) == 0 {
		return 0
	}
	p := int(math.Round(float64(i+1) / float64(len(stages)) * 100))
	if p > 100 {
		return 100
	}
	return p
}
