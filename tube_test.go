package mpipe

import (
	"sync"
	"time"

	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(TubeTestSuite))

type TubeTestSuite struct{}

func (s *TubeTestSuite) TestPTubeFIFO(c *gc.C) {
	tube := NewPTube()
	go func() {
		tube.put(dataEnvelope(1))
		tube.put(dataEnvelope(2))
		tube.put(dataEnvelope(3))
	}()

	c.Assert(tube.get().payload, gc.Equals, 1)
	c.Assert(tube.get().payload, gc.Equals, 2)
	c.Assert(tube.get().payload, gc.Equals, 3)
}

func (s *TubeTestSuite) TestPTubeTimeout(c *gc.C) {
	tube := NewPTube()
	_, ok := tube.getTimeout(20 * time.Millisecond)
	c.Assert(ok, gc.Equals, false)

	tube.put(dataEnvelope("hi"))
	env, ok := tube.getTimeout(time.Second)
	c.Assert(ok, gc.Equals, true)
	c.Assert(env.payload, gc.Equals, "hi")
}

func (s *TubeTestSuite) TestQTubeFIFO(c *gc.C) {
	tube := NewQTube()
	for i := 0; i < 5; i++ {
		tube.put(dataEnvelope(i))
	}
	for i := 0; i < 5; i++ {
		c.Assert(tube.get().payload, gc.Equals, i)
	}
}

func (s *TubeTestSuite) TestQTubeConcurrentProducersConsumers(c *gc.C) {
	const (
		producers   = 4
		perProducer = 50
	)
	tube := NewQTube()

	for i := 0; i < producers; i++ {
		go func(base int) {
			for j := 0; j < perProducer; j++ {
				tube.put(dataEnvelope(base*perProducer + j))
			}
		}(i)
	}

	seen := make(map[interface{}]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(producers)
	for i := 0; i < producers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				env := tube.get()
				mu.Lock()
				seen[env.payload] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	c.Assert(seen, gc.HasLen, producers*perProducer)
}

func (s *TubeTestSuite) TestQTubeTimeoutDoesNotLoseItem(c *gc.C) {
	tube := NewQTube()
	_, ok := tube.getTimeout(20 * time.Millisecond)
	c.Assert(ok, gc.Equals, false)

	tube.put(dataEnvelope(42))
	env, ok := tube.getTimeout(time.Second)
	c.Assert(ok, gc.Equals, true)
	c.Assert(env.payload, gc.Equals, 42)
}
