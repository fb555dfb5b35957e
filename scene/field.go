package scene

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	DefaultPointCount = 8000
	DefaultSpread     = 15.0
)

// Field is a fixed cloud of points, stored as consecutive x, y, z triples.
type Field struct {
	Positions []float32
}

// NewField scatters count points uniformly in a cube of side spread centered at the origin.
func NewField(count int, spread float64, rng *rand.Rand) *Field {
	positions := make([]float32, count*3)
	for i := range positions {
		positions[i] = float32((rng.Float64() - 0.5) * spread)
	}
	return &Field{Positions: positions}
}

func (f *Field) Count() int {
	return len(f.Positions) / 3
}

// Pointer is a pointer position in normalized device coordinates: both axes in [-1, 1], y up.
type Pointer struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NormalizePointer converts window client coordinates into a Pointer.
func NormalizePointer(clientX, clientY, width, height float64) Pointer {
	if width <= 0 || height <= 0 {
		return Pointer{}
	}
	return Pointer{
		X: (clientX/width)*2 - 1,
		Y: -(clientY/height)*2 + 1,
	}
}

// Transform is the pose and tint of the field for one frame.
type Transform struct {
	RotationX float64 `json:"rotationX"`
	RotationY float64 `json:"rotationY"`
	PositionX float64 `json:"positionX"`
	PositionY float64 `json:"positionY"`
	Hue       float64 `json:"hue"`
	Color     string  `json:"color"`
}

// FrameAt computes the transform after elapsed seconds with the pointer at p.
func FrameAt(elapsed float64, p Pointer) Transform {
	hue := math.Mod(elapsed*10, 360)
	return Transform{
		RotationX: math.Sin(elapsed*0.1)*0.1 + p.Y*0.01,
		RotationY: math.Sin(elapsed*0.15)*0.1 + p.X*0.01,
		PositionX: math.Sin(elapsed*0.05) * 0.5,
		PositionY: math.Cos(elapsed*0.03) * 0.3,
		Hue:       hue,
		Color:     fmt.Sprintf("hsl(%.0f, 70%%, 80%%)", hue),
	}
}
