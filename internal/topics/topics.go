// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package topics assigns research topics to documents by counting
// weighted pattern matches in the title, abstract and full text.
package topics

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/cord-engine/internal/textproc"
	"github.com/pdiddy/cord-engine/pkg/types"
)

// Field weights applied to match counts.
const (
	TitleWeight    = 5
	AbstractWeight = 3
	TextWeight     = 1
)

// Treatment is the topic whose score also counts known drug names.
const Treatment = "treatment"

// ErrInvalidTopic is returned when a topic table fails validation.
var ErrInvalidTopic = errors.New("invalid topic definition")

// Definition is one row of the topic table.
type Definition struct {
	Name     string `json:"name" yaml:"name" validate:"required"`
	Pattern  string `json:"pattern" yaml:"pattern" validate:"required"`
	MinCount int    `json:"min_count" yaml:"min_count" validate:"gte=1"`
}

// DefaultTopics returns the built-in topic table in display order.
func DefaultTopics() []Definition {
	return []Definition{
		{Name: "diagnosis", Pattern: `(diagno[a-z]*)|(test[a-z]*)|(detect[a-z]*)`, MinCount: 20},
		{Name: "epidemiology", Pattern: `(epidemio[a-z]*)|(model[a-z]*)`, MinCount: 10},
		{Name: "prevention", Pattern: `prevent[a-z]*`, MinCount: 10},
		{Name: "transmission", Pattern: `((transmi[a-z]*)|(spread[a-z]*))`, MinCount: 20},
		{Name: Treatment, Pattern: `((treat[a-z]*)|(drug[a-z]*))`, MinCount: 20},
		{Name: "vaccine", Pattern: `(vacci[a-z]*)`, MinCount: 10},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Compile validates a definition and compiles its case-insensitive
// pattern. Patterns that match the empty string are rejected because they
// would count every position in the text.
func Compile(def Definition) (*regexp.Regexp, error) {
	if err := validate.Struct(def); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTopic, def.Name, err)
	}
	re, err := regexp.Compile("(?i)" + def.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTopic, def.Name, err)
	}
	if re.MatchString("") {
		return nil, fmt.Errorf("%w %q: pattern matches the empty string", ErrInvalidTopic, def.Name)
	}
	return re, nil
}

// Validate checks a whole topic table: every row compiles and names are
// unique.
func Validate(defs []Definition) error {
	if len(defs) == 0 {
		return fmt.Errorf("%w: empty topic table", ErrInvalidTopic)
	}
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if seen[d.Name] {
			return fmt.Errorf("%w %q: duplicate name", ErrInvalidTopic, d.Name)
		}
		seen[d.Name] = true
		if _, err := Compile(d); err != nil {
			return err
		}
	}
	return nil
}

// WeightedCount counts non-overlapping matches of re in each field and
// combines them with the field weights.
func WeightedCount(re *regexp.Regexp, title, abstract, text string) int {
	if re == nil {
		return 0
	}
	return TitleWeight*count(re, title) +
		AbstractWeight*count(re, abstract) +
		TextWeight*count(re, text)
}

func count(re *regexp.Regexp, s string) int {
	if s == "" {
		return 0
	}
	return len(re.FindAllStringIndex(s, -1))
}

// DrugPattern builds a case-insensitive alternation of literal drug names.
// It returns nil when names is empty.
func DrugPattern(names []string) *regexp.Regexp {
	var quoted []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			quoted = append(quoted, regexp.QuoteMeta(n))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile("(?i)(?:" + strings.Join(quoted, "|") + ")")
}

type topic struct {
	def Definition
	re  *regexp.Regexp
}

// Scorer scores documents against a validated topic table. It holds no
// mutable state and is safe for concurrent use.
type Scorer struct {
	topics []topic
	drugs  *regexp.Regexp
}

// NewScorer validates defs and compiles the drug-name pattern used by the
// treatment topic.
func NewScorer(defs []Definition, drugNames []string) (*Scorer, error) {
	if err := Validate(defs); err != nil {
		return nil, err
	}
	s := &Scorer{drugs: DrugPattern(drugNames)}
	for _, d := range defs {
		re, _ := Compile(d)
		s.topics = append(s.topics, topic{def: d, re: re})
	}
	return s, nil
}

// Names returns the topic names in table order.
func (s *Scorer) Names() []string {
	names := make([]string, len(s.topics))
	for i, t := range s.topics {
		names[i] = t.def.Name
	}
	return names
}

// Assignment is the scoring outcome for one document.
type Assignment struct {
	Flags  map[string]bool
	Topics []string
	Scores map[string]int
}

// Score computes the weighted score of every topic for doc.
func (s *Scorer) Score(doc types.Document) Assignment {
	a := Assignment{
		Flags:  make(map[string]bool, len(s.topics)),
		Scores: make(map[string]int, len(s.topics)),
	}
	for _, t := range s.topics {
		score := WeightedCount(t.re, doc.Title, doc.Abstract, doc.Text)
		if t.def.Name == Treatment {
			score += WeightedCount(s.drugs, doc.Title, doc.Abstract, doc.Text)
		}
		a.Scores[t.def.Name] = score
		matched := score >= t.def.MinCount
		a.Flags[t.def.Name] = matched
		if matched {
			a.Topics = append(a.Topics, t.def.Name)
		}
	}
	return a
}

// Apply returns a copy of doc with topic flags and the matched topic list
// filled in.
func (s *Scorer) Apply(doc types.Document) types.Document {
	a := s.Score(doc)
	out := doc.Clone()
	out.TopicFlags = a.Flags
	out.Topics = a.Topics
	if out.Topics == nil {
		out.Topics = []string{}
	}
	return out
}

// SampleSentences returns the sentences of text whose lowercase form
// matches pattern.
func SampleSentences(tok textproc.Tokenizer, text, pattern string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern: %w", err)
	}
	var out []string
	for _, s := range tok.Sentences(text) {
		if re.MatchString(strings.ToLower(s)) {
			out = append(out, s)
		}
	}
	return out, nil
}
