// Package conversation drives the client side of the chat protocol: a linear
// intake questionnaire, contact collection, then free-form chat with
// background polling for operator replies.
package conversation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Stage is the coarse position in the intake flow. Transitions are strictly
// forward; nothing exposed here moves a conversation backwards.
type Stage int

const (
	StageQuestionnaire Stage = iota
	StageContact
	StageChat
)

func (s Stage) String() string {
	switch s {
	case StageQuestionnaire:
		return "questionnaire"
	case StageContact:
		return "contact"
	case StageChat:
		return "chat"
	}
	return "unknown"
}

// Question is one multiple-choice intake question.
type Question struct {
	Prompt  string
	Options []string
}

// DefaultQuestions is the agency intake sequence.
var DefaultQuestions = []Question{
	{
		Prompt:  "What kind of project do you have in mind?",
		Options: []string{"New website", "Redesign of an existing site", "Web application", "Not sure yet"},
	},
	{
		Prompt:  "What is your budget range?",
		Options: []string{"Under $5k", "$5k - $15k", "$15k - $50k", "$50k or more"},
	},
	{
		Prompt:  "When would you like to start?",
		Options: []string{"As soon as possible", "Within a month", "In 1-3 months", "Just exploring"},
	},
}

var (
	ErrWrongStage    = errors.New("operation not valid in current stage")
	ErrBadOption     = errors.New("option out of range")
	ErrNameRequired  = errors.New("please enter your name")
	ErrEmailRequired = errors.New("please enter your email address")
	ErrEmailInvalid  = errors.New("please enter a valid email address")
)

// local@domain with at least one dot in the domain part.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Machine sequences one visitor conversation. It holds no I/O; the caller
// feeds it user input and reads its stage to decide what to render and when
// to start relaying messages.
type Machine struct {
	questions []Question
	stage     Stage
	step      int
	answers   []string
	name      string
	email     string
}

// NewMachine starts a fresh conversation over questions; nil selects
// DefaultQuestions. An empty question list begins at contact collection.
func NewMachine(questions []Question) *Machine {
	if questions == nil {
		questions = DefaultQuestions
	}
	m := &Machine{questions: questions}
	if len(questions) == 0 {
		m.stage = StageContact
	}
	return m
}

func (m *Machine) Stage() Stage { return m.stage }

// Step is the zero-based index of the current question.
func (m *Machine) Step() int { return m.step }

// Current returns the question awaiting an answer; ok is false outside the
// questionnaire stage.
func (m *Machine) Current() (Question, bool) {
	if m.stage != StageQuestionnaire {
		return Question{}, false
	}
	return m.questions[m.step], true
}

// Answer records the selected option for the current question and advances.
// Completing the last question moves to contact collection.
func (m *Machine) Answer(option int) error {
	if m.stage != StageQuestionnaire {
		return ErrWrongStage
	}
	q := m.questions[m.step]
	if option < 0 || option >= len(q.Options) {
		return fmt.Errorf("%w: %d of %d", ErrBadOption, option, len(q.Options))
	}
	m.answers = append(m.answers, q.Options[option])
	m.step++
	if m.step >= len(m.questions) {
		m.stage = StageContact
	}
	return nil
}

// SubmitContact validates and records the visitor's contact details, moving
// to free chat on success. Validation failures leave the stage unchanged and
// are rendered locally; nothing is sent to the server until both fields are
// well formed.
func (m *Machine) SubmitContact(name, email string) error {
	if m.stage != StageContact {
		return ErrWrongStage
	}
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return ErrNameRequired
	}
	if email == "" {
		return ErrEmailRequired
	}
	if !emailRe.MatchString(email) {
		return ErrEmailInvalid
	}
	m.name, m.email = name, email
	m.stage = StageChat
	return nil
}

func (m *Machine) Answers() []string { return append([]string(nil), m.answers...) }
func (m *Machine) Name() string      { return m.name }
func (m *Machine) Email() string     { return m.email }

// Resume restores a machine directly into free chat from persisted state, so
// a reloaded client skips the questionnaire it already completed.
func (m *Machine) Resume(st State) {
	m.stage = StageChat
	m.answers = append([]string(nil), st.Answers...)
	m.name = st.Name
	m.email = st.Email
	m.step = len(m.questions)
}

// IntakeSummary renders the collected answers for the thread header or a
// lead record.
func (m *Machine) IntakeSummary() string {
	if len(m.answers) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m.answers))
	for i, a := range m.answers {
		if i < len(m.questions) {
			parts = append(parts, fmt.Sprintf("%s %s", m.questions[i].Prompt, a))
		} else {
			parts = append(parts, a)
		}
	}
	return strings.Join(parts, " | ")
}
