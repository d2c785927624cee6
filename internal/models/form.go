package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Question types form the closed tag set of the builder. The type decides
// which optional fields of FormQuestion are meaningful and how the answer is
// validated.
const (
	QuestionText           = "text"
	QuestionTextarea       = "textarea"
	QuestionMultipleChoice = "multiple_choice"
	QuestionCheckbox       = "checkbox"
	QuestionDropdown       = "dropdown"
	QuestionFile           = "file"
	QuestionImage          = "image"
	QuestionVideo          = "video"
)

var validQuestionTypes = map[string]struct{}{
	QuestionText:           {},
	QuestionTextarea:       {},
	QuestionMultipleChoice: {},
	QuestionCheckbox:       {},
	QuestionDropdown:       {},
	QuestionFile:           {},
	QuestionImage:          {},
	QuestionVideo:          {},
}

func ValidQuestionType(t string) bool {
	_, ok := validQuestionTypes[t]
	return ok
}

// QuestionHasOptions reports whether the type carries an options list.
func QuestionHasOptions(t string) bool {
	switch t {
	case QuestionMultipleChoice, QuestionCheckbox, QuestionDropdown:
		return true
	}
	return false
}

// QuestionHasFile reports whether the type collects an uploaded file.
func QuestionHasFile(t string) bool {
	switch t {
	case QuestionFile, QuestionImage, QuestionVideo:
		return true
	}
	return false
}

type FormSettings struct {
	AllowMultipleSubmissions bool `json:"allow_multiple_submissions"`
	CollectEmail             bool `json:"collect_email"`
	ShowProgressBar          bool `json:"show_progress_bar"`
}

type FormQuestion struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`

	// Meaningful for choice types only.
	Options []string `json:"options,omitempty"`

	// Meaningful for text types only.
	Placeholder string `json:"placeholder,omitempty"`
	MaxLength   int    `json:"max_length,omitempty"`

	// Meaningful for file types only. MaxFileSize is in megabytes.
	FileTypes   []string `json:"file_types,omitempty"`
	MaxFileSize int      `json:"max_file_size,omitempty"`
}

// FormPage holds an ordered question sequence; order is significant for
// rendering and moves are adjacent swaps.
type FormPage struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Questions   []FormQuestion `json:"questions"`
}

// ApplicationForm is the owner-authored multi-page questionnaire attached to
// an opportunity. The whole tree is persisted wholesale as one jsonb value;
// mutations replace pages, there is no diffing or version history.
type ApplicationForm struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Pages       []FormPage   `json:"pages"`
	Settings    FormSettings `json:"settings"`
}

// IsEmpty reports whether the opportunity has no application form attached.
func (f ApplicationForm) IsEmpty() bool {
	return f.ID == "" && len(f.Pages) == 0
}

// Page returns a pointer into the form's page slice, or nil.
func (f *ApplicationForm) Page(id string) *FormPage {
	for i := range f.Pages {
		if f.Pages[i].ID == id {
			return &f.Pages[i]
		}
	}
	return nil
}

// Question locates a question by page and question id, or nil.
func (p *FormPage) Question(id string) *FormQuestion {
	for i := range p.Questions {
		if p.Questions[i].ID == id {
			return &p.Questions[i]
		}
	}
	return nil
}

func (f *ApplicationForm) Scan(value interface{}) error {
	if value == nil {
		*f = ApplicationForm{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan ApplicationForm")
	}
	return json.Unmarshal(bytes, f)
}

func (f ApplicationForm) Value() (driver.Value, error) {
	if f.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(f)
}
