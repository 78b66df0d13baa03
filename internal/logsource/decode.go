package logsource

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

const (
	defaultWaterMl    = 200
	framesPerMinute   = 30
	notAnalyzed       = "Not Analyzed"
	defaultPurpose    = "study"
	defaultCategory   = "lecture"
	bookObjectKeyword = "book"
)

// number accepts a JSON number or a string with a leading number ("250ml").
type number struct {
	v  float64
	ok bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = number{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, ok := leadingNumber(s)
		*n = number{v: v, ok: ok}
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		*n = number{}
		return nil
	}
	*n = number{v: v, ok: !math.IsNaN(v) && !math.IsInf(v, 0)}
	return nil
}

func leadingNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.' || (end == 0 && s[end] == '-')) {
		end++
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// text accepts a JSON string or number.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	*t = text(b)
	return nil
}

type waterRecord struct {
	ID          text   `json:"id"`
	Time        string `json:"time"`
	Timestamp   string `json:"timestamp"`
	Amount      number `json:"amount"`
	AIResult    string `json:"ai_result"`
	ManualLabel string `json:"manual_label"`
}

type studyRecord struct {
	ID             text   `json:"id"`
	Object         string `json:"object"`
	Timestamp      string `json:"timestamp"`
	Time           string `json:"time"`
	DurationMin    number `json:"duration_min"`
	DurationFrames number `json:"duration_frames"`
	Category       string `json:"category"`
	Purpose        string `json:"purpose"`
	SourceFile     string `json:"source_file"`
	ManualLabel    string `json:"manual_label"`
	AIResult       string `json:"ai_result"`
}

type studyEnvelope struct {
	Logs []studyRecord `json:"logs"`
}

// DecodeWater normalizes the water endpoint payload.
func DecodeWater(body []byte) ([]model.ActivityEvent, error) {
	var recs []waterRecord
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, err
	}
	out := make([]model.ActivityEvent, 0, len(recs))
	for _, r := range recs {
		amount := r.Amount.v
		if !r.Amount.ok || amount <= 0 {
			amount = defaultWaterMl
		}
		// water rows carry a user-editable "time" that overrides the sensor
		// timestamp; study rows derive "time" from "timestamp", so the order flips
		out = append(out, model.ActivityEvent{
			ID:         idOrNew(r.ID),
			Timestamp:  firstNonEmpty(r.Time, r.Timestamp),
			Amount:     amount,
			Annotation: annotation(r.ManualLabel, r.AIResult),
		})
	}
	return out, nil
}

// DecodeStudy normalizes the study endpoint payload into book and laptop events.
// Both {"logs": [...]} and a bare array are accepted.
func DecodeStudy(body []byte) (book, laptop []model.ActivityEvent, err error) {
	var recs []studyRecord
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &recs)
	} else {
		var env studyEnvelope
		err = json.Unmarshal(trimmed, &env)
		recs = env.Logs
	}
	if err != nil {
		return nil, nil, err
	}
	for _, r := range recs {
		dur := r.DurationMin.v
		if !r.DurationMin.ok || dur <= 0 {
			dur = math.Round(r.DurationFrames.v / framesPerMinute)
		}
		if dur < 0 || math.IsNaN(dur) {
			dur = 0
		}
		e := model.ActivityEvent{
			ID:              idOrNew(r.ID),
			Timestamp:       firstNonEmpty(r.Timestamp, r.Time),
			DurationMinutes: dur,
			Annotation:      annotation(r.ManualLabel, r.AIResult),
		}
		if strings.Contains(strings.ToLower(r.Object), bookObjectKeyword) {
			e.Category = firstNonEmpty(r.Purpose, defaultPurpose)
			e.SourceGroup = r.SourceFile
			book = append(book, e)
			continue
		}
		e.Category = firstNonEmpty(r.Category, defaultCategory)
		laptop = append(laptop, e)
	}
	return book, laptop, nil
}

func annotation(manual, ai string) string {
	if ai == notAnalyzed {
		ai = ""
	}
	return firstNonEmpty(strings.TrimSpace(manual), strings.TrimSpace(ai))
}

func idOrNew(id text) string {
	if id == "" {
		return uuid.New().String()
	}
	return string(id)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
