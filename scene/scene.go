package scene

import (
	"math/rand"
	"sync"
	"time"
)

type Camera struct {
	Position [3]float64 `json:"position"`
	FOV      float64    `json:"fov"`
}

type Controls struct {
	EnableZoom      bool    `json:"enableZoom"`
	EnablePan       bool    `json:"enablePan"`
	EnableRotate    bool    `json:"enableRotate"`
	AutoRotate      bool    `json:"autoRotate"`
	AutoRotateSpeed float64 `json:"autoRotateSpeed"`
}

// Description is everything the page needs to draw the scene, sent once per page.
type Description struct {
	Camera       Camera    `json:"camera"`
	AmbientLight float64   `json:"ambientLight"`
	Controls     Controls  `json:"controls"`
	PointSize    float64   `json:"pointSize"`
	Opacity      float64   `json:"opacity"`
	Positions    []float32 `json:"positions"`
	Frame        Transform `json:"frame"`
}

// Scene hosts a Background behind a fixed camera. Frames are rendered when asked for,
// from the time elapsed since mount.
type Scene struct {
	background *Background
	now        func() time.Time

	mu      sync.Mutex
	started time.Time
	mounted bool
}

func NewScene(bus *PointerBus, rng *rand.Rand) *Scene {
	return &Scene{
		background: NewBackground(bus, rng),
		now:        time.Now,
	}
}

func (s *Scene) Mount() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mounted {
		return
	}
	s.background.Mount()
	s.started = s.now()
	s.mounted = true
}

func (s *Scene) Unmount() {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return
	}
	s.mounted = false
	s.mu.Unlock()

	s.background.Unmount()
}

// Frame renders the transform for the current time. An unmounted scene keeps its last frame.
func (s *Scene) Frame() Transform {
	s.mu.Lock()
	mounted, started := s.mounted, s.started
	s.mu.Unlock()

	if !mounted {
		return s.background.Transform()
	}
	return s.background.Advance(s.now().Sub(started).Seconds())
}

func (s *Scene) Describe() Description {
	return Description{
		Camera:       Camera{Position: [3]float64{0, 0, 5}, FOV: 75},
		AmbientLight: 0.5,
		Controls: Controls{
			EnableZoom:      false,
			EnablePan:       false,
			EnableRotate:    false,
			AutoRotate:      true,
			AutoRotateSpeed: 0.5,
		},
		PointSize: 0.015,
		Opacity:   0.8,
		Positions: s.background.Field().Positions,
		Frame:     s.Frame(),
	}
}
