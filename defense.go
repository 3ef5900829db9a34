// SPDX-License-Identifier: GPL-3.0-or-later

package mdnstrace

import (
	"errors"
	"fmt"
)

// ErrInvalidDefense means a defense does not answer the probe it defends against.
var ErrInvalidDefense = errors.New("invalid defense")

// ValidateDefense checks that defense is a response that claims the name
// proposed by probe. On success it returns the defending answers.
func ValidateDefense(probe, defense Message) ([]ResourceRecord, error) {
	// 1. make sure the probe actually proposes a name
	name := probedName(probe)
	if name == "" {
		return nil, fmt.Errorf("%w: not a probe", ErrInvalidDefense)
	}

	// 2. make sure the defense is a response
	resp, ok := defense.(*Response)
	if !ok {
		return nil, fmt.Errorf("%w: not a response", ErrInvalidDefense)
	}

	// 3. keep the answers for the probed name
	var valid []ResourceRecord
	for _, rr := range resp.Answers {
		if SameName(rr.Name, name) {
			valid = append(valid, rr)
		}
	}
	if len(valid) <= 0 {
		return nil, fmt.Errorf("%w: no answer for %s", ErrInvalidDefense, name)
	}
	return valid, nil
}
