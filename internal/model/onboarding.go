package model

import "time"

// Q&A entry types
const (
	QATypeAnswer = "answer"
	QATypeFace   = "face"
	QATypePalm   = "palm"
)

// QAPair is one entry of userSoulPathAnswers/{uid}.qaPairs. Image entries
// carry an analysis instead of an answer.
type QAPair struct {
	Question  string    `json:"question,omitempty"`
	Answer    string    `json:"answer,omitempty"`
	Type      string    `json:"type,omitempty"`
	Analysis  string    `json:"analysis,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SoulPathAnswers is the userSoulPathAnswers/{uid} document
type SoulPathAnswers struct {
	QAPairs     []QAPair  `json:"qaPairs"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// SoulAnswers is the YourSoulAnswers/{uid} document written by profile
// creation
type SoulAnswers struct {
	Name         string            `json:"name,omitempty"`
	Quote        string            `json:"quote,omitempty"`
	Answers      map[string]string `json:"answers,omitempty"`
	ProfileImage string            `json:"profileImage,omitempty"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// SoulAnswersRequest creates or updates the soul profile. ProfileImage is a
// data URL.
type SoulAnswersRequest struct {
	Name         string            `json:"name"`
	Quote        string            `json:"quote"`
	Answers      map[string]string `json:"answers"`
	ProfileImage string            `json:"profileImage"`
}

// Validate checks the SoulAnswersRequest
func (r *SoulAnswersRequest) Validate() []FieldError {
	var errors []FieldError
	if r.Name == "" {
		errors = append(errors, FieldError{Field: "name", Message: "name is required"})
	} else if len(r.Name) > 100 {
		errors = append(errors, FieldError{Field: "name", Message: "name must be 100 characters or less"})
	}
	if len(r.Quote) > 500 {
		errors = append(errors, FieldError{Field: "quote", Message: "quote must be 500 characters or less"})
	}
	return errors
}

// OnboardingAnswer is one step of onboardingResponses/{uid}
type OnboardingAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Onboarding combines userOnboarding/{uid} and onboardingResponses/{uid}
type Onboarding struct {
	SoulPath  string                      `json:"soulPath,omitempty"`
	Responses map[string]OnboardingAnswer `json:"responses"`
}

// SoulPathRequest selects the onboarding path
type SoulPathRequest struct {
	SoulPath string `json:"soulPath"`
}

// Validate checks the SoulPathRequest
func (r *SoulPathRequest) Validate() []FieldError {
	if r.SoulPath == "" {
		return []FieldError{{Field: "soulPath", Message: "soulPath is required"}}
	}
	return nil
}

// OnboardingAnswerRequest stores the answer to one onboarding step
type OnboardingAnswerRequest struct {
	Step     string `json:"step"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Validate checks the OnboardingAnswerRequest
func (r *OnboardingAnswerRequest) Validate() []FieldError {
	var errors []FieldError
	if r.Step == "" {
		errors = append(errors, FieldError{Field: "step", Message: "step is required"})
	}
	if r.Question == "" {
		errors = append(errors, FieldError{Field: "question", Message: "question is required"})
	}
	return errors
}

// QAPairRequest appends a Q&A entry
type QAPairRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Type     string `json:"type"`
	Analysis string `json:"analysis"`
}

// Validate checks the QAPairRequest
func (r *QAPairRequest) Validate() []FieldError {
	switch r.Type {
	case "", QATypeAnswer:
		if r.Question == "" || r.Answer == "" {
			return []FieldError{{Field: "answer", Message: "question and answer are required"}}
		}
	case QATypeFace, QATypePalm:
		if r.Analysis == "" {
			return []FieldError{{Field: "analysis", Message: "analysis is required for image entries"}}
		}
	default:
		return []FieldError{{Field: "type", Message: "type must be answer, face or palm"}}
	}
	return nil
}

// ChatAnswer is one userChats document
type ChatAnswer struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatAnswerRequest stores a guide chat answer
type ChatAnswerRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Validate checks the ChatAnswerRequest
func (r *ChatAnswerRequest) Validate() []FieldError {
	var errors []FieldError
	if r.Question == "" {
		errors = append(errors, FieldError{Field: "question", Message: "question is required"})
	}
	if r.Answer == "" {
		errors = append(errors, FieldError{Field: "answer", Message: "answer is required"})
	}
	return errors
}
