package ladder

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultIntervals(t *testing.T) {
	if err := DefaultIntervals.Validate(3, 1); err != nil {
		t.Errorf("DefaultIntervals.Validate: %v", err)
	}
	if DefaultIntervals[1] != Day || DefaultIntervals[2] != 7*Day || DefaultIntervals[3] != 30*Day {
		t.Errorf("DefaultIntervals = %v, want 1d/7d/30d", DefaultIntervals)
	}
}

func TestValidateMissingStage(t *testing.T) {
	table := IntervalTable{1: Day, 3: 30 * Day}
	err := table.Validate(3, 1)
	if !errors.Is(err, ErrStageUnmapped) {
		t.Errorf("err = %v, want ErrStageUnmapped", err)
	}
}

func TestValidateMissingResetStage(t *testing.T) {
	table := IntervalTable{1: Day, 2: 7 * Day}
	err := table.Validate(2, 5)
	if !errors.Is(err, ErrStageUnmapped) {
		t.Errorf("err = %v, want ErrStageUnmapped", err)
	}
}

func TestValidateNonPositiveInterval(t *testing.T) {
	table := IntervalTable{1: Day, 2: -time.Hour}
	err := table.Validate(2, 1)
	if !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("err = %v, want ErrInvalidInterval", err)
	}
}

func TestClone(t *testing.T) {
	table := IntervalTable{1: Day}
	copied := table.clone()
	copied[1] = time.Hour
	if table[1] != Day {
		t.Errorf("clone shares storage with original")
	}
}
