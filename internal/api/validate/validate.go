package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

const (
	maxLabelLen    = 200
	maxFeedbackLen = 2000
)

// DateKey requires a YYYY-MM-DD calendar date.
func DateKey(v string) error {
	if v == "" {
		return fmt.Errorf("%w: date is required", model.ErrValidation)
	}
	return model.ValidateDateKey(v)
}

// Label validates a manual event label. Empty clears the label.
func Label(v string) error {
	if len(v) > maxLabelLen {
		return fmt.Errorf("%w: label exceeds %d characters", model.ErrValidation, maxLabelLen)
	}
	if strings.ContainsAny(v, "\r\n") {
		return fmt.Errorf("%w: label must be a single line", model.ErrValidation)
	}
	return nil
}

func Feedback(v string) error {
	if len(v) > maxFeedbackLen {
		return fmt.Errorf("%w: feedback exceeds %d characters", model.ErrValidation, maxFeedbackLen)
	}
	return nil
}

// Goals requires positive finite targets.
func Goals(g model.Goals) error {
	if !positive(g.WaterMl) {
		return fmt.Errorf("%w: waterMl must be positive", model.ErrValidation)
	}
	if !positive(g.StudyMinutes) {
		return fmt.Errorf("%w: studyMinutes must be positive", model.ErrValidation)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
