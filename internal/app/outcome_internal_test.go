package app

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/llpbakery/effmap/internal/adapters/mq/worker"
	"github.com/llpbakery/effmap/internal/domain/combiner"
	"github.com/llpbakery/effmap/internal/domain/scan"
	"github.com/llpbakery/effmap/internal/domain/survival"
)

func TestFailureReason(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("event 3: %w", survival.ErrAtRest), "invalid_kinematics"},
		{survival.ErrNonPositiveMass, "invalid_kinematics"},
		{survival.ErrNegativeWidth, "invalid_kinematics"},
		{scan.ErrNoEvents, "no_events"},
		{combiner.ErrMalformedEvent, "malformed_event"},
		{combiner.ErrMissingEfficiency, "missing_efficiency"},
		{fmt.Errorf("open: %w", os.ErrNotExist), "not_found"},
		{worker.ErrPanic, "panic"},
		{errors.New("disk full"), "io"},
	}
	for _, tc := range cases {
		if got := failureReason(tc.err); got != tc.want {
			t.Errorf("failureReason(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
