// Package ladder implements a stage-ladder spaced repetition scheduler.
//
// ladder schedules reviews on a small ladder of stages, each mapped to a
// fixed interval (for example 1 day, then 7 days, then 30 days). A passing
// review climbs one stage; once an item reaches the top of the ladder,
// passing reviews hold it there and count mastery iterations instead. A
// failing review keeps the item's stage and iteration and reschedules it at
// the reset stage's interval.
//
// Basic usage:
//
//	s, err := ladder.NewScheduler(ladder.SchedulerConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	score := 0.9
//	next, err := s.Review(ladder.State{Stage: 1}, &score, time.Now())
package ladder
