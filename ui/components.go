package ui

import (
	"strings"
	"sync"
	"time"

	"github.com/changeset-demo/changeset-demo/common"
)

const (
	SizeSm = "sm"
	SizeMd = "md"
	SizeLg = "lg"

	clockLayout = "3:04:05 PM"
)

// StatusConfig is the look of the status badge for one health state.
type StatusConfig struct {
	Color     string
	BgClass   string
	TextClass string
	DotClass  string
	Icon      string
}

var (
	unreachableConfig = StatusConfig{
		Color:     "gray",
		BgClass:   "bg-gray-500/20",
		TextClass: "text-gray-200",
		DotClass:  "bg-gray-400",
		Icon:      "⚫",
	}

	statusConfigs = map[common.HealthState]StatusConfig{
		common.HealthHealthy: {
			Color:     "green",
			BgClass:   "bg-green-500/20",
			TextClass: "text-green-200",
			DotClass:  "bg-green-400",
			Icon:      "🟢",
		},
		common.HealthUnhealthy: {
			Color:     "red",
			BgClass:   "bg-red-500/20",
			TextClass: "text-red-200",
			DotClass:  "bg-red-400",
			Icon:      "🔴",
		},
		common.HealthChecking: {
			Color:     "yellow",
			BgClass:   "bg-yellow-500/20",
			TextClass: "text-yellow-200",
			DotClass:  "bg-yellow-400",
			Icon:      "🟡",
		},
		common.HealthUnreachable: unreachableConfig,
	}

	sizeClasses = map[string]string{
		SizeSm: "px-2 py-1 text-xs",
		SizeMd: "px-3 py-1 text-sm",
		SizeLg: "px-4 py-2 text-base",
	}
)

// StatusConfigFor maps a health state onto its badge look. Unknown states look unreachable.
func StatusConfigFor(state common.HealthState) StatusConfig {
	if config, ok := statusConfigs[state]; ok {
		return config
	}
	return unreachableConfig
}

// SizeClass returns the padding and text classes of a badge size, md for unknown sizes.
func SizeClass(size string) string {
	if class, ok := sizeClasses[size]; ok {
		return class
	}
	return sizeClasses[SizeMd]
}

// IndicatorView is what the status badge template renders.
type IndicatorView struct {
	StatusConfig
	Label     string
	SizeClass string
	Time      string
}

// StatusIndicator renders a health state as a badge next to a clock.
// The clock runs on its own ticker and has nothing to do with how often health is checked.
type StatusIndicator struct {
	label        string
	size         string
	tickInterval time.Duration
	now          func() time.Time

	mu          sync.Mutex
	currentTime time.Time
	ticker      *time.Ticker
	done        chan struct{}
	wg          sync.WaitGroup
}

// NewStatusIndicator creates an indicator. An empty label shows the capitalized state instead.
func NewStatusIndicator(label string, size string, tickInterval time.Duration) *StatusIndicator {
	return &StatusIndicator{
		label:        label,
		size:         size,
		tickInterval: tickInterval,
		now:          time.Now,
		currentTime:  time.Now(),
	}
}

func (si *StatusIndicator) Mount() {
	si.mu.Lock()
	defer si.mu.Unlock()

	if si.ticker != nil {
		return
	}
	si.currentTime = si.now()
	si.ticker = time.NewTicker(si.tickInterval)
	si.done = make(chan struct{})

	ticker, done := si.ticker, si.done
	si.wg.Add(1)
	go func() {
		defer si.wg.Done()
		for {
			select {
			case <-ticker.C:
				now := si.now()
				si.mu.Lock()
				si.currentTime = now
				si.mu.Unlock()
			case <-done:
				return
			}
		}
	}()
}

func (si *StatusIndicator) Unmount() {
	si.mu.Lock()
	if si.ticker == nil {
		si.mu.Unlock()
		return
	}
	si.ticker.Stop()
	close(si.done)
	si.ticker = nil
	si.mu.Unlock()

	si.wg.Wait()
}

// CurrentTime is the time of the last clock tick.
func (si *StatusIndicator) CurrentTime() time.Time {
	si.mu.Lock()
	defer si.mu.Unlock()
	return si.currentTime
}

func (si *StatusIndicator) View(state common.HealthState) IndicatorView {
	label := si.label
	if label == "" {
		label = capitalize(string(state))
	}

	return IndicatorView{
		StatusConfig: StatusConfigFor(state),
		Label:        label,
		SizeClass:    SizeClass(si.size),
		Time:         si.CurrentTime().Format(clockLayout),
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
