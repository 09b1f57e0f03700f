package notify

import (
	"time"

	"github.com/dailybuddy/core/internal/domain/entities"
)

// tonePreset fixes the synthesized tone parameters for one sound type.
type tonePreset struct {
	frequency float64
	duration  time.Duration
	waveform  string
}

// Preset table keyed by sound type. Frequencies are rough musical cues,
// not calibrated pitches.
var tonePresets = map[entities.SoundType]tonePreset{
	entities.SoundGentle: {frequency: 440, duration: 400 * time.Millisecond, waveform: "sine"},
	entities.SoundChime:  {frequency: 660, duration: 600 * time.Millisecond, waveform: "sine"},
	entities.SoundBell:   {frequency: 880, duration: 800 * time.Millisecond, waveform: "triangle"},
	entities.SoundAlert:  {frequency: 520, duration: 300 * time.Millisecond, waveform: "square"},
	entities.SoundBeep:   {frequency: 1000, duration: 150 * time.Millisecond, waveform: "square"},
}

// Gain maps a 0-100 volume input linearly to a 0.0-1.0 gain. Out-of-range
// values are clamped.
func Gain(volume int) float64 {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	return float64(volume) / 100.0
}

// NewCue builds the tone descriptor for a sound type and volume. Unknown
// sound types fall back to the gentle preset.
func NewCue(soundType entities.SoundType, volume int) *entities.SoundCue {
	preset, ok := tonePresets[soundType]
	if !ok {
		preset = tonePresets[entities.SoundGentle]
	}
	return &entities.SoundCue{
		Frequency: preset.frequency,
		Duration:  preset.duration,
		Waveform:  preset.waveform,
		Gain:      Gain(volume),
	}
}
