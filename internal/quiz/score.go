package quiz

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/text/cases"
)

// Grades assigned by Score.
const (
	GradePerfect      = "perfect"
	GradeGreat        = "great"
	GradeGood         = "good"
	GradeKeepWatching = "keep_watching"
)

var feedback = map[string]string{
	GradePerfect:      "Perfect score! You really know your movies.",
	GradeGreat:        "Great job! Only a few slipped past you.",
	GradeGood:         "Good effort. A couple more movie nights and you'll ace it.",
	GradeKeepWatching: "Keep watching! Every film you see makes the next quiz easier.",
}

// Answer names a choice either by index or by text.
type Answer struct {
	Index *int
	Text  string
}

// IndexAnswer selects the choice at i.
func IndexAnswer(i int) Answer { return Answer{Index: &i} }

// TextAnswer selects the choice whose text matches s.
func TextAnswer(s string) Answer { return Answer{Text: s} }

// ParseAnswer reads a CLI-style answer: "#2" selects index 2, anything else
// is matched as text.
func ParseAnswer(s string) Answer {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "#"); ok {
		if i, err := strconv.Atoi(rest); err == nil {
			return IndexAnswer(i)
		}
	}
	return TextAnswer(s)
}

// UnmarshalJSON accepts a number (index) or a string (choice text).
func (a *Answer) UnmarshalJSON(data []byte) error {
	var i int
	if err := json.Unmarshal(data, &i); err == nil {
		*a = IndexAnswer(i)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = TextAnswer(s)
	return nil
}

// MarshalJSON writes the index when set, otherwise the text.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.Index != nil {
		return json.Marshal(*a.Index)
	}
	return json.Marshal(a.Text)
}

func (a Answer) empty() bool {
	return a.Index == nil && strings.TrimSpace(a.Text) == ""
}

// Outcome records how one question was answered.
type Outcome struct {
	QuestionID string `json:"question_id"`
	Answered   bool   `json:"answered"`
	Correct    bool   `json:"correct"`
	Expected   string `json:"expected"`
}

// Result summarizes a scored quiz.
type Result struct {
	Correct  int       `json:"correct"`
	Total    int       `json:"total"`
	Percent  int       `json:"percent"`
	Grade    string    `json:"grade"`
	Feedback string    `json:"feedback"`
	Outcomes []Outcome `json:"outcomes"`
}

// Score grades answers against questions. Unanswered questions count as
// incorrect; an empty quiz scores 0.
func Score(questions []Question, answers map[string]Answer) Result {
	res := Result{Total: len(questions), Outcomes: make([]Outcome, 0, len(questions))}
	for _, q := range questions {
		out := Outcome{QuestionID: q.ID}
		if q.Answer >= 0 && q.Answer < len(q.Choices) {
			out.Expected = q.Choices[q.Answer]
		}
		if a, ok := answers[q.ID]; ok && !a.empty() {
			out.Answered = true
			out.Correct = matches(q, a)
		}
		if out.Correct {
			res.Correct++
		}
		res.Outcomes = append(res.Outcomes, out)
	}
	if res.Total > 0 {
		res.Percent = int(math.Round(100 * float64(res.Correct) / float64(res.Total)))
	}
	res.Grade = grade(res.Correct, res.Total)
	res.Feedback = feedback[res.Grade]
	return res
}

func matches(q Question, a Answer) bool {
	if q.Answer < 0 || q.Answer >= len(q.Choices) {
		return false
	}
	if a.Index != nil {
		return *a.Index == q.Answer
	}
	return fold(a.Text) == fold(q.Choices[q.Answer])
}

// grade works on the exact ratio so a rounded 100% with a miss is not perfect.
func grade(correct, total int) string {
	if total == 0 {
		return GradeKeepWatching
	}
	ratio := float64(correct) / float64(total)
	switch {
	case correct == total:
		return GradePerfect
	case ratio >= 0.8:
		return GradeGreat
	case ratio >= 0.5:
		return GradeGood
	default:
		return GradeKeepWatching
	}
}

func fold(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}
