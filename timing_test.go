// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWindow(t *testing.T) {
	w := DefaultTiming().ProbeSpacing
	require.Equal(t, "[200ms, 300ms]", w.String())
	require.True(t, w.Contains(200*time.Millisecond))
	require.True(t, w.Contains(300*time.Millisecond))
	require.False(t, w.Contains(199*time.Millisecond))
	require.False(t, w.Contains(300*time.Millisecond+time.Microsecond))
}

func TestTimingCheckProbes(t *testing.T) {
	timing := DefaultTiming()

	t.Run("Success", func(t *testing.T) {
		msgs := (&traceBuilder{}).
			probe(0, greaterHost, hostName).
			probe(ms(250), greaterHost, hostName).
			probe(ms(500), greaterHost, hostName).
			mustMessages(t)
		require.NoError(t, timing.CheckProbes("probes", msgs...))
	})

	t.Run("InclusiveBounds", func(t *testing.T) {
		msgs := (&traceBuilder{}).
			probe(0, greaterHost, hostName).
			probe(ms(200), greaterHost, hostName).
			probe(ms(500), greaterHost, hostName).
			mustMessages(t)
		require.NoError(t, timing.CheckProbes("probes", msgs...))
	})

	t.Run("FirstPairTooSlow", func(t *testing.T) {
		msgs := (&traceBuilder{}).
			probe(0, greaterHost, hostName).
			probe(ms(350), greaterHost, hostName).
			probe(ms(600), greaterHost, hostName).
			mustMessages(t)
		err := timing.CheckProbes("probes", msgs...)
		require.ErrorIs(t, err, ErrTimingViolation)
		var timingErr *TimingError
		require.ErrorAs(t, err, &timingErr)
		require.Equal(t, &TimingError{
			Phase:  "probes",
			First:  0,
			Second: ms(350),
			Delay:  ms(350),
			Window: timing.ProbeSpacing,
		}, timingErr)
		require.Equal(t,
			"timing violation: probes: delay 350ms between t=0.000000s and t=0.350000s not in [200ms, 300ms]",
			err.Error())
	})
}

func TestTimingCheckAnnouncements(t *testing.T) {
	timing := DefaultTiming()
	b := (&traceBuilder{}).
		announce(ms(1500), greaterHost, hostName).
		announce(ms(2500), greaterHost, hostName).
		announce(ms(4500), greaterHost, hostName)
	require.NoError(t, timing.CheckAnnouncements("announcements", b.mustMessages(t)...))

	b = (&traceBuilder{}).
		announce(ms(1500), greaterHost, hostName).
		announce(ms(2500), greaterHost, hostName).
		announce(ms(3500), greaterHost, hostName)
	err := timing.CheckAnnouncements("announcements", b.mustMessages(t)...)
	var timingErr *TimingError
	require.ErrorAs(t, err, &timingErr)
	require.Equal(t, timing.SecondAnnounce, timingErr.Window)
	require.Equal(t, ms(2500), timingErr.First)
}

func TestTimingCheckDefense(t *testing.T) {
	timing := DefaultTiming()
	msgs := (&traceBuilder{}).
		probe(ms(1000), lesserHost, hostName).
		add(ms(1000), greaterHost, lesserHost, announcePayload(hostName, greaterHost)).
		add(ms(1150), greaterHost, lesserHost, announcePayload(hostName, greaterHost)).
		mustMessages(t)
	require.NoError(t, timing.CheckDefense("defense", msgs[0], msgs[1]))
	require.ErrorIs(t, timing.CheckDefense("defense", msgs[0], msgs[2]), ErrTimingViolation)
}
