package watchface

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLayoutFullScreen(t *testing.T) {
	l := ComputeLayout(image.Rect(0, 0, 180, 180))

	assert.Equal(t, image.Rect(0, 65, 170, 115), l.Time)
	assert.Equal(t, image.Rect(0, 35, 170, 65), l.Date)
	assert.Equal(t, image.Rect(130, 35, 170, 65), l.DateSuffix)
	assert.Equal(t, image.Rect(0, 35, 130, 65), l.DateMonth)

	assert.Equal(t, image.Rect(27, 132, 45, 162), l.Week[0])
	assert.Equal(t, image.Rect(135, 132, 153, 162), l.Week[6])
	for i := 1; i < 7; i++ {
		assert.Equal(t, l.Week[i-1].Max.X, l.Week[i].Min.X)
		assert.Equal(t, l.Week[0].Size(), l.Week[i].Size())
	}

	assert.Equal(t, image.Rect(27, 162, 45, 165), l.Underline(0))
	assert.Equal(t, image.Rectangle{}, l.Underline(7))
}

func TestComputeLayoutObstructed(t *testing.T) {
	l := ComputeLayout(image.Rect(0, 0, 180, 129))

	assert.Equal(t, image.Rect(0, 39, 170, 89), l.Time)
	assert.Equal(t, image.Rect(0, 9, 170, 39), l.Date)
	assert.Equal(t, 94, l.Week[3].Min.Y)
	assert.True(t, l.Underline(3).Max.Y <= 129)
}

func TestComputeLayoutNarrow(t *testing.T) {
	l := ComputeLayout(image.Rect(0, 0, 70, 180))
	assert.Equal(t, 10, l.Week[0].Dx())
	assert.Equal(t, 0, l.Week[0].Min.X)
	assert.Equal(t, 70, l.Week[6].Max.X)
}

func TestEngineSkipsIdenticalBounds(t *testing.T) {
	var e Engine

	full := image.Rect(0, 0, 180, 180)
	a, changed := e.Apply(full)
	assert.True(t, changed)

	b, changed := e.Apply(full)
	assert.False(t, changed)
	assert.Equal(t, a, b)

	c, changed := e.Apply(image.Rect(0, 0, 180, 129))
	assert.True(t, changed)
	assert.NotEqual(t, a.Time, c.Time)
}
