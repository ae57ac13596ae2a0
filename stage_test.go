package mpipe

import (
	"context"
	"time"

	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(StageTestSuite))

type StageTestSuite struct{}

// A Stage is independently usable without a Pipeline, the same way
// stage_test.go exercises StageRunners directly.
func (s *StageTestSuite) TestStagePutGetStandalone(c *gc.C) {
	stage, err := NewUnorderedStage("double", func(_ context.Context, task interface{}) (interface{}, error) {
		return task.(int) * 2, nil
	}, 2)
	c.Assert(err, gc.IsNil)

	// Stand-alone stages still need their worker pool started to do
	// anything; build it directly without going through Pipeline.
	stage.build(make(chan error, 1))

	c.Assert(stage.Put(21), gc.IsNil)
	v, ok := stage.Get(5 * time.Second)
	c.Assert(ok, gc.Equals, true)
	c.Assert(v, gc.Equals, 42)

	stage.Stop()
	v, ok = stage.Get(5 * time.Second)
	c.Assert(ok, gc.Equals, true)
	c.Assert(v, gc.IsNil)
}

func (s *StageTestSuite) TestLeavesOfUnlinkedStageIsItself(c *gc.C) {
	stage, err := NewOrderedStage("solo", func(_ context.Context, task interface{}) (interface{}, error) {
		return task, nil
	}, 1)
	c.Assert(err, gc.IsNil)

	leaves := stage.Leaves()
	c.Assert(leaves, gc.HasLen, 1)
	c.Assert(leaves[0], gc.Equals, stage)
}

func (s *StageTestSuite) TestDoubleBuildPanics(c *gc.C) {
	stage, err := NewOrderedStage("solo", func(_ context.Context, task interface{}) (interface{}, error) {
		return task, nil
	}, 1)
	c.Assert(err, gc.IsNil)

	stage.build(make(chan error, 1))
	c.Assert(func() { stage.build(make(chan error, 1)) }, gc.PanicMatches, ".*already built.*")
}
