package ratelimit_test

import (
	"fmt"
	"time"

	"primeload/internal/config"
	"primeload/internal/ratelimit"
)

func ExamplePhaseManager_State() {
	pm := ratelimit.NewPhaseManager([]config.Phase{
		{Name: "ramp_up", Duration: time.Minute, StartActors: 1, EndActors: 20},
		{Name: "steady", Duration: 5 * time.Minute, Actors: 20, RPS: 40},
	})

	s := pm.State()
	fmt.Printf("phase=%s actors=%d\n", s.Name, s.TargetActors)
	// Output: phase=ramp_up actors=1
}

func ExampleLimiter_SetRate() {
	l := ratelimit.NewLimiter(10)
	l.SetRate(40)

	fmt.Println(l.Rate())
	// Output: 40
}
