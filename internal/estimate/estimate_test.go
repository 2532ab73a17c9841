package estimate

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManufacturingTime_BoundsUnqualified(t *testing.T) {
	e := New(rand.New(rand.NewSource(1)))
	names := []string{"Radio", "Bluetooth"} // base 5*3 + 9*3 = 42

	for i := 0; i < 1000; i++ {
		got := e.ManufacturingTime(names, false)
		assert.GreaterOrEqual(t, got, 43)
		assert.LessOrEqual(t, got, 132)
	}
}

func TestManufacturingTime_QualifiedNeverSlower(t *testing.T) {
	names := []string{"Sunroof", "Air Conditioning", "Tow Hook"}

	// Same seed for both runs: the base draw is identical, the qualified
	// run only adds the divisor draw on top.
	for seed := int64(0); seed < 50; seed++ {
		plain := New(rand.New(rand.NewSource(seed))).ManufacturingTime(names, false)
		fast := New(rand.New(rand.NewSource(seed))).ManufacturingTime(names, true)
		assert.LessOrEqual(t, fast, plain, "seed %d", seed)
		assert.Greater(t, fast, 0, "seed %d", seed)
	}
}

func TestManufacturingTime_TrimsNames(t *testing.T) {
	a := New(rand.New(rand.NewSource(7))).ManufacturingTime([]string{"Radio"}, false)
	b := New(rand.New(rand.NewSource(7))).ManufacturingTime([]string{"  Radio  "}, false)
	assert.Equal(t, a, b)
}

// The HTTP layer serves estimates on concurrent goroutines through one
// shared Estimator; every draw must stay within bounds under -race.
func TestManufacturingTime_ConcurrentCallers(t *testing.T) {
	e := New(rand.New(rand.NewSource(11)))
	names := []string{"Radio", "Bluetooth"} // base 42

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				got := e.ManufacturingTime(names, i%2 == 0)
				if got < 1 || got > 132 {
					t.Errorf("estimate %d out of bounds", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestManufacturingTime_NoAccessories(t *testing.T) {
	e := New(rand.New(rand.NewSource(3)))
	got := e.ManufacturingTime(nil, false)
	assert.GreaterOrEqual(t, got, 1)
	assert.LessOrEqual(t, got, 90)
}
