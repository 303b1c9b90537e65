package oed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundsValidate(t *testing.T) {
	tests := []struct {
		name    string
		bounds  Bounds
		wantErr bool
	}{
		{name: "valid", bounds: Bounds{Lower: []float64{0, 1}, Upper: []float64{1, 2}}},
		{name: "pinned", bounds: Bounds{Lower: []float64{1}, Upper: []float64{1}}},
		{name: "empty", bounds: Bounds{}, wantErr: true},
		{name: "length mismatch", bounds: Bounds{Lower: []float64{0, 0}, Upper: []float64{1}}, wantErr: true},
		{name: "inverted", bounds: Bounds{Lower: []float64{2}, Upper: []float64{1}}, wantErr: true},
		{name: "infinite", bounds: Bounds{Lower: []float64{math.Inf(-1)}, Upper: []float64{1}}, wantErr: true},
		{name: "nan", bounds: Bounds{Lower: []float64{0}, Upper: []float64{math.NaN()}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bounds.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBounds)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewBoundsCopies(t *testing.T) {
	lower := []float64{0, 0}
	b, err := NewBounds(lower, []float64{1, 1})
	require.NoError(t, err)

	lower[0] = 5
	assert.Equal(t, 0.0, b.Lower[0])

	_, err = NewBounds([]float64{1}, []float64{0})
	assert.ErrorIs(t, err, ErrInvalidBounds)
}

func TestBoundsCheck(t *testing.T) {
	b := Bounds{Lower: []float64{0, 10}, Upper: []float64{1, 20}}

	assert.NoError(t, b.Check("x", []float64{0, 20}))
	assert.True(t, b.Contains([]float64{0.5, 15}))

	err := b.Check("x", []float64{0.5, 21})
	require.ErrorIs(t, err, ErrDomain)

	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "x", domainErr.Input)
	assert.Equal(t, 1, domainErr.Index)

	err = b.Check("theta", []float64{0.5})
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, -1, domainErr.Index)

	assert.False(t, b.Contains([]float64{math.NaN(), 15}))
}

func TestBoundsRepeat(t *testing.T) {
	b := Bounds{Lower: []float64{0, 10}, Upper: []float64{1, 20}}
	r := b.Repeat(3)

	assert.Equal(t, []float64{0, 10, 0, 10, 0, 10}, r.Lower)
	assert.Equal(t, []float64{1, 20, 1, 20, 1, 20}, r.Upper)
	assert.Equal(t, 6, r.Dim())
}

func TestBoundsProjectAndIntervals(t *testing.T) {
	b := Bounds{Lower: []float64{0, 10}, Upper: []float64{1, 20}}

	v := []float64{-1, 25}
	assert.Equal(t, []float64{0, 20}, b.Project(v))
	assert.Equal(t, []float64{0, 20}, v)

	iv := b.Intervals()
	require.Len(t, iv, 2)
	assert.Equal(t, 10.0, iv[1].Min)
	assert.Equal(t, 20.0, iv[1].Max)
	assert.Equal(t, 10.0, b.Width(1))
}
