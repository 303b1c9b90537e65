package design

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/samplemv"

	"github.com/thalesfsp/oed"
)

func checkBaseline(n int, bounds oed.Bounds) error {
	if n <= 0 {
		return fmt.Errorf("design: number of designs must be positive, got %d", n)
	}

	return bounds.Validate()
}

func sourceOrClock(src rand.Source) rand.Source {
	if src != nil {
		return src
	}

	seed := uint64(time.Now().UnixNano())

	return rand.NewPCG(seed, seed>>7)
}

// NewRandom draws n points uniformly from bounds. A nil src seeds from the
// clock.
func NewRandom(n int, bounds oed.Bounds, src rand.Source) (*Design, error) {
	if err := checkBaseline(n, bounds); err != nil {
		return nil, err
	}

	uniform := distmv.NewUniform(bounds.Intervals(), sourceOrClock(src))
	points := mat.NewDense(n, bounds.Dim(), nil)

	for i := 0; i < n; i++ {
		uniform.Rand(points.RawRowView(i))
	}

	return &Design{name: NameRandom, points: points}, nil
}

// NewLatinHypercube draws n points from bounds with Latin hypercube
// sampling: every coordinate range is split into n equal strata and each
// stratum holds exactly one point. A nil src seeds from the clock.
func NewLatinHypercube(n int, bounds oed.Bounds, src rand.Source) (*Design, error) {
	if err := checkBaseline(n, bounds); err != nil {
		return nil, err
	}

	src = sourceOrClock(src)
	points := mat.NewDense(n, bounds.Dim(), nil)

	lhs := samplemv.LatinHypercube{
		Q:   distmv.NewUniform(bounds.Intervals(), src),
		Src: src,
	}
	lhs.Sample(points)

	return &Design{name: NameLatinHypercube, points: points}, nil
}
