package curriculum

// Exercise status values.
const (
	StatusLocked    = "locked"
	StatusAvailable = "available"
	StatusCompleted = "completed"
)

// Question is one authored multiple-choice item. The correct index never
// leaves the server.
type Question struct {
	Prompt       string   `yaml:"prompt" json:"prompt" validate:"required"`
	Options      []string `yaml:"options" json:"options" validate:"min=2,dive,required"`
	CorrectIndex int      `yaml:"correct" json:"-"`
}

// VocabularyItem is a word card in a unit gallery.
type VocabularyItem struct {
	Word        string `yaml:"word" json:"word" validate:"required"`
	Description string `yaml:"description" json:"description" validate:"required"`
	Image       string `yaml:"image,omitempty" json:"image,omitempty" validate:"omitempty,url"`
}

// AudioResource is a listening track attached to a unit.
type AudioResource struct {
	Title    string `yaml:"title" json:"title" validate:"required"`
	URL      string `yaml:"url" json:"url"`
	Duration string `yaml:"duration" json:"duration"`
}

// Exercise is a unit-level practice set.
type Exercise struct {
	Title     string     `yaml:"title" json:"title" validate:"required"`
	Status    string     `yaml:"status" json:"status" validate:"oneof=locked available completed"`
	Questions []Question `yaml:"questions" json:"-" validate:"required_unless=Status locked,dive"`
}

// Unit is a thematic module of the syllabus.
type Unit struct {
	ID             int              `yaml:"id" json:"id" validate:"min=1"`
	Title          string           `yaml:"title" json:"title" validate:"required"`
	Description    string           `yaml:"description" json:"description" validate:"required"`
	Theme          string           `yaml:"theme" json:"theme"`
	Functions      []string         `yaml:"functions" json:"functions"`
	Vocabulary     []VocabularyItem `yaml:"vocabulary" json:"vocabulary" validate:"dive"`
	Grammar        []string         `yaml:"grammar" json:"grammar"`
	AudioResources []AudioResource  `yaml:"audio" json:"audio_resources" validate:"dive"`
	Exercises      []Exercise       `yaml:"exercises" json:"-" validate:"dive"`
}

// Example is a sample sentence with the span that illustrates the rule.
type Example struct {
	Sentence  string `yaml:"sentence" json:"sentence" validate:"required"`
	Highlight string `yaml:"highlight" json:"highlight"`
}

// GrammarTopic is a lesson with explanation, examples and a practice set.
type GrammarTopic struct {
	ID          string     `yaml:"id" json:"id" validate:"required"`
	Title       string     `yaml:"title" json:"title" validate:"required"`
	Unit        int        `yaml:"unit" json:"unit" validate:"min=1"`
	Category    string     `yaml:"category" json:"category" validate:"required"`
	Explanation string     `yaml:"explanation" json:"explanation" validate:"required"`
	Structure   string     `yaml:"structure" json:"structure"`
	Examples    []Example  `yaml:"examples" json:"examples" validate:"dive"`
	Practice    []Question `yaml:"practice" json:"-" validate:"required,dive"`
	Tips        []string   `yaml:"tips" json:"tips"`
}

// PracticeSet is the resolved question list behind a practice reference.
type PracticeSet struct {
	Ref       string
	Title     string
	Questions []Question
}

// VocabularyEntry is a vocabulary item tagged with its unit.
type VocabularyEntry struct {
	UnitID    int    `json:"unit_id"`
	UnitTitle string `json:"unit_title"`
	VocabularyItem
}

// VocabularyQuery filters the vocabulary gallery.
type VocabularyQuery struct {
	Text   string
	UnitID int
}
