// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"fmt"
	"time"
)

// Window is an inclusive range of acceptable delays.
type Window struct {
	Min time.Duration
	Max time.Duration
}

// Contains returns whether Min <= d <= Max.
func (w Window) Contains(d time.Duration) bool {
	return d >= w.Min && d <= w.Max
}

// String implements [fmt.Stringer].
func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Min, w.Max)
}

// Timing contains the delay windows scenarios check.
//
// Construct using [DefaultTiming].
type Timing struct {
	// ProbeSpacing is the delay between consecutive probes.
	ProbeSpacing Window

	// DefenseDelay is the delay between a conflicting probe and the
	// response defending the name.
	DefenseDelay Window

	// FirstAnnounce is the delay between the first and second announcement.
	FirstAnnounce Window

	// SecondAnnounce is the delay between the second and third announcement.
	SecondAnnounce Window
}

// DefaultTiming returns the windows used by the accepted traces.
func DefaultTiming() Timing {
	return Timing{
		ProbeSpacing:   Window{Min: 200 * time.Millisecond, Max: 300 * time.Millisecond},
		DefenseDelay:   Window{Min: 0, Max: 100 * time.Millisecond},
		FirstAnnounce:  Window{Min: 900 * time.Millisecond, Max: 1100 * time.Millisecond},
		SecondAnnounce: Window{Min: 1900 * time.Millisecond, Max: 2100 * time.Millisecond},
	}
}

// CheckProbes checks the spacing of a probe series.
func (t Timing) CheckProbes(phase string, probes ...Message) error {
	return checkSeries(phase, probes, t.ProbeSpacing, t.ProbeSpacing)
}

// CheckAnnouncements checks the backoff of an announcement series.
func (t Timing) CheckAnnouncements(phase string, announcements ...Message) error {
	return checkSeries(phase, announcements, t.FirstAnnounce, t.SecondAnnounce)
}

// CheckDefense checks the delay between a conflicting probe and its defense.
func (t Timing) CheckDefense(phase string, probe, defense Message) error {
	return CheckDelay(phase, probe, defense, t.DefenseDelay)
}

// CheckDelay checks that the delay from first to second is within w.
func CheckDelay(phase string, first, second Message, w Window) error {
	t1 := first.Datagram().Packet.Time
	t2 := second.Datagram().Packet.Time
	if delay := t2 - t1; !w.Contains(delay) {
		return &TimingError{Phase: phase, First: t1, Second: t2, Delay: delay, Window: w}
	}
	return nil
}

// checkSeries checks each consecutive pair of msgs against the
// corresponding window. It panics if there are not enough windows.
func checkSeries(phase string, msgs []Message, windows ...Window) error {
	for idx := 1; idx < len(msgs); idx++ {
		if err := CheckDelay(phase, msgs[idx-1], msgs[idx], windows[idx-1]); err != nil {
			return err
		}
	}
	return nil
}
