// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

// Label suffixes for each kind of series. The suffix of the first
// message is empty, so the series base (e.g., "t1") labels it.
var (
	probeLabels        = []string{"", "+~250ms", "+~500ms"}
	announcementLabels = []string{"", "+~1s", "+~2s"}
	defenseLabels      = []string{"", "+~0ms"}
)

// Step is a verified message along with its symbolic timestamp label.
type Step struct {
	Label   string
	Message Message
}

// Transcript is the outcome of a successful scenario verification.
type Transcript struct {
	// Scenario is the name of the verified scenario.
	Scenario string

	// Steps contains the messages in the order they are dumped.
	Steps []Step
}

// Messages returns the messages of all the steps.
func (t *Transcript) Messages() []Message {
	out := make([]Message, 0, len(t.Steps))
	for _, step := range t.Steps {
		out = append(out, step.Message)
	}
	return out
}

// appendSeries labels msgs as base plus the corresponding suffix and
// appends them to the transcript. Callers invoke it only once all the
// timing checks on msgs are done, since labels replace timestamps in
// the dump.
func (t *Transcript) appendSeries(base string, suffixes []string, msgs ...Message) {
	for idx, msg := range msgs {
		label := base + suffixes[idx]
		msg.Datagram().Packet.setLabel(label)
		t.Steps = append(t.Steps, Step{Label: label, Message: msg})
	}
}
