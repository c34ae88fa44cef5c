// Package curriculum serves the Spotlight 2 syllabus: units, vocabulary,
// grammar topics and the practice sets behind them.
package curriculum

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed content/*.yaml
var content embed.FS

var (
	// ErrUnknownPractice is returned for a practice reference that names no set.
	ErrUnknownPractice = errors.New("unknown practice reference")
	// ErrExerciseLocked is returned when a locked exercise is requested.
	ErrExerciseLocked = errors.New("exercise is locked")
)

// AuthoringError reports malformed authored content found at load time.
type AuthoringError struct {
	Path   string
	Reason string
}

func (e *AuthoringError) Error() string {
	return fmt.Sprintf("content %s: %s", e.Path, e.Reason)
}

// Catalog is an immutable, validated view of the syllabus.
type Catalog struct {
	units      []Unit
	unitsByID  map[int]*Unit
	topics     []GrammarTopic
	topicsByID map[string]*GrammarTopic
	categories []string
}

type unitsFile struct {
	Units []Unit `yaml:"units" validate:"required,dive"`
}

type grammarFile struct {
	Topics []GrammarTopic `yaml:"topics" validate:"required,dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		q := sl.Current().Interface().(Question)
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			sl.ReportError(q.CorrectIndex, "CorrectIndex", "correct", "option_index", strconv.Itoa(len(q.Options)))
		}
	}, Question{})
	return v
}

// Load parses the syllabus embedded in the binary.
func Load() (*Catalog, error) {
	unitsYAML, err := content.ReadFile("content/units.yaml")
	if err != nil {
		return nil, fmt.Errorf("read units: %w", err)
	}
	grammarYAML, err := content.ReadFile("content/grammar.yaml")
	if err != nil {
		return nil, fmt.Errorf("read grammar: %w", err)
	}
	return Parse(unitsYAML, grammarYAML)
}

// Parse decodes and validates syllabus documents. Any authoring defect
// fails the whole load.
func Parse(unitsYAML, grammarYAML []byte) (*Catalog, error) {
	var uf unitsFile
	if err := decodeStrict(unitsYAML, &uf); err != nil {
		return nil, &AuthoringError{Path: "units", Reason: err.Error()}
	}
	if err := validateDocument("units", uf); err != nil {
		return nil, err
	}

	var gf grammarFile
	if err := decodeStrict(grammarYAML, &gf); err != nil {
		return nil, &AuthoringError{Path: "grammar", Reason: err.Error()}
	}
	if err := validateDocument("grammar", gf); err != nil {
		return nil, err
	}

	c := &Catalog{
		units:      uf.Units,
		unitsByID:  make(map[int]*Unit, len(uf.Units)),
		topics:     gf.Topics,
		topicsByID: make(map[string]*GrammarTopic, len(gf.Topics)),
	}
	sort.SliceStable(c.units, func(i, j int) bool { return c.units[i].ID < c.units[j].ID })

	for i := range c.units {
		u := &c.units[i]
		if _, dup := c.unitsByID[u.ID]; dup {
			return nil, &AuthoringError{Path: fmt.Sprintf("units[%d]", u.ID), Reason: "duplicate unit id"}
		}
		for j, ex := range u.Exercises {
			if ex.Status != StatusLocked && len(ex.Questions) == 0 {
				return nil, &AuthoringError{Path: fmt.Sprintf("units[%d].exercises[%d]", u.ID, j), Reason: "open exercise has no questions"}
			}
		}
		c.unitsByID[u.ID] = u
	}

	seen := make(map[string]bool)
	for i := range c.topics {
		t := &c.topics[i]
		if _, dup := c.topicsByID[t.ID]; dup {
			return nil, &AuthoringError{Path: "topics." + t.ID, Reason: "duplicate topic id"}
		}
		if _, ok := c.unitsByID[t.Unit]; !ok {
			return nil, &AuthoringError{Path: "topics." + t.ID, Reason: fmt.Sprintf("unknown unit %d", t.Unit)}
		}
		c.topicsByID[t.ID] = t
		if !seen[t.Category] {
			seen[t.Category] = true
			c.categories = append(c.categories, t.Category)
		}
	}
	return c, nil
}

func decodeStrict(data []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

func validateDocument(path string, doc interface{}) error {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &AuthoringError{Path: path, Reason: err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s(%s)", fe.Namespace(), fe.Tag(), fe.Param()))
	}
	return &AuthoringError{Path: path, Reason: strings.Join(msgs, "; ")}
}

// Units returns every unit ordered by id.
func (c *Catalog) Units() []Unit {
	out := make([]Unit, len(c.units))
	copy(out, c.units)
	return out
}

// Unit returns the unit with the given id.
func (c *Catalog) Unit(id int) (Unit, bool) {
	u, ok := c.unitsByID[id]
	if !ok {
		return Unit{}, false
	}
	return *u, true
}

// Vocabulary lists word cards matching q. Text matches word or description,
// case-insensitively.
func (c *Catalog) Vocabulary(q VocabularyQuery) []VocabularyEntry {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	var out []VocabularyEntry
	for _, u := range c.units {
		if q.UnitID != 0 && u.ID != q.UnitID {
			continue
		}
		for _, item := range u.Vocabulary {
			if needle != "" &&
				!strings.Contains(strings.ToLower(item.Word), needle) &&
				!strings.Contains(strings.ToLower(item.Description), needle) {
				continue
			}
			out = append(out, VocabularyEntry{UnitID: u.ID, UnitTitle: u.Title, VocabularyItem: item})
		}
	}
	return out
}

// Categories returns grammar categories in authored order.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// GrammarTopics lists topics, optionally restricted to one category.
func (c *Catalog) GrammarTopics(category string) []GrammarTopic {
	var out []GrammarTopic
	for _, t := range c.topics {
		if category != "" && !strings.EqualFold(t.Category, category) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// GrammarTopic returns a single topic by id.
func (c *Catalog) GrammarTopic(id string) (GrammarTopic, bool) {
	t, ok := c.topicsByID[id]
	if !ok {
		return GrammarTopic{}, false
	}
	return *t, true
}

// GrammarRef and ExerciseRef build practice references.
func GrammarRef(topicID string) string { return "grammar/" + topicID }

func ExerciseRef(unitID, exercise int) string { return fmt.Sprintf("unit/%d/%d", unitID, exercise) }

// PracticeSet resolves a reference of the form "grammar/<topic>" or
// "unit/<unit>/<exercise>" (exercise numbered from 1).
func (c *Catalog) PracticeSet(ref string) (PracticeSet, error) {
	parts := strings.Split(ref, "/")
	switch {
	case len(parts) == 2 && parts[0] == "grammar":
		t, ok := c.topicsByID[parts[1]]
		if !ok {
			return PracticeSet{}, ErrUnknownPractice
		}
		return PracticeSet{Ref: ref, Title: t.Title, Questions: cloneQuestions(t.Practice)}, nil

	case len(parts) == 3 && parts[0] == "unit":
		unitID, err := strconv.Atoi(parts[1])
		if err != nil {
			return PracticeSet{}, ErrUnknownPractice
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return PracticeSet{}, ErrUnknownPractice
		}
		u, ok := c.unitsByID[unitID]
		if !ok || n < 1 || n > len(u.Exercises) {
			return PracticeSet{}, ErrUnknownPractice
		}
		ex := u.Exercises[n-1]
		if ex.Status == StatusLocked {
			return PracticeSet{}, ErrExerciseLocked
		}
		return PracticeSet{Ref: ref, Title: ex.Title, Questions: cloneQuestions(ex.Questions)}, nil
	}
	return PracticeSet{}, ErrUnknownPractice
}

func cloneQuestions(in []Question) []Question {
	out := make([]Question, len(in))
	for i, q := range in {
		out[i] = Question{
			Prompt:       q.Prompt,
			Options:      append([]string(nil), q.Options...),
			CorrectIndex: q.CorrectIndex,
		}
	}
	return out
}
