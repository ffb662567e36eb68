package model

import (
	"strings"
	"time"

	"github.com/eternal-ai/api/internal/parser"
)

// ChartImages holds the chart image URLs of a Jyotish reading
type ChartImages struct {
	RasiD1     string `json:"rasiD1,omitempty"`
	NavamshaD9 string `json:"navamshaD9,omitempty"`
}

// LifePredictorOnboarding is the lifePredictorOnboarding/{uid} document
// written by the first karmic step
type LifePredictorOnboarding struct {
	BirthPlace   string       `json:"birthPlace"`
	Lat          float64      `json:"lat"`
	Lng          float64      `json:"lng"`
	VedastroData string       `json:"vedastroData"`
	ChartImages  *ChartImages `json:"chartImages,omitempty"`
	DOB          string       `json:"dob"`
	TOB          string       `json:"tob"`
	Timezone     string       `json:"timezone"`
	FirstName    string       `json:"firstName"`
	MiddleName   string       `json:"middleName"`
	LastName     string       `json:"lastName"`
	CompletedAt  time.Time    `json:"completedAt"`
}

// FullName joins the non blank name parts
func (o *LifePredictorOnboarding) FullName() string {
	var parts []string
	for _, p := range []string{o.FirstName, o.MiddleName, o.LastName} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, " ")
}

// VedastroRecord is the vedastroData/{uid} document
type VedastroRecord struct {
	AstrologyData string       `json:"astrologyData"`
	ChartImages   *ChartImages `json:"chartImages,omitempty"`
	Failed        bool         `json:"failed"`
	FetchedAt     time.Time    `json:"fetchedAt"`
}

// KarmicBirthRequest is the first karmic step
type KarmicBirthRequest struct {
	BirthPlace string `json:"birthPlace"`
}

// Validate checks the KarmicBirthRequest
func (r *KarmicBirthRequest) Validate() []FieldError {
	r.BirthPlace = strings.TrimSpace(r.BirthPlace)
	if r.BirthPlace == "" {
		return []FieldError{{Field: "birthPlace", Message: "birthPlace is required"}}
	}
	if len(r.BirthPlace) > 200 {
		return []FieldError{{Field: "birthPlace", Message: "birthPlace must be 200 characters or less"}}
	}
	return nil
}

// KarmicReportRequest is the second karmic step
type KarmicReportRequest struct {
	LifeArea string `json:"lifeArea"`
}

// Validate checks the KarmicReportRequest
func (r *KarmicReportRequest) Validate() []FieldError {
	r.LifeArea = strings.TrimSpace(r.LifeArea)
	if r.LifeArea == "" {
		return []FieldError{{Field: "lifeArea", Message: "lifeArea is required"}}
	}
	if len(r.LifeArea) > 1000 {
		return []FieldError{{Field: "lifeArea", Message: "lifeArea must be 1000 characters or less"}}
	}
	return nil
}

// KarmicBirthData is the birth moment a karmic report was built for
type KarmicBirthData struct {
	Location string `json:"location"`
	DOB      string `json:"dob"`
	TOB      string `json:"tob"`
	Timezone string `json:"timezone"`
}

// APIOutcome records what one upstream call of the pipeline returned
type APIOutcome struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ReportMetadata describes how a report text was produced
type ReportMetadata struct {
	TokensUsed  int       `json:"tokensUsed,omitempty"`
	Model       string    `json:"model,omitempty"`
	Fallback    bool      `json:"fallback,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// KarmicReport is the karmicReports/{uid} document
type KarmicReport struct {
	BirthPlace     string          `json:"birthPlace"`
	LifeArea       string          `json:"lifeArea"`
	Challenge      any             `json:"challenge"`
	JyotishReading string          `json:"jyotishReading"`
	ChartImages    ChartImages     `json:"chartImages"`
	BirthData      KarmicBirthData `json:"birthData"`
	VedicAPI       APIOutcome      `json:"vedicApi"`
	RapidAPI       APIOutcome      `json:"rapidApi"`
	Lat            float64         `json:"lat"`
	Lng            float64         `json:"lng"`

	AIGeneratedReport string         `json:"aiGeneratedkarmicreport"`
	AIReportMetadata  ReportMetadata `json:"aiReportMetadata"`
	AIReportSuccess   bool           `json:"aiReportSuccess"`
	AIReportError     string         `json:"aiReportError,omitempty"`
	RetryCount        int            `json:"retryCount,omitempty"`

	CreatedAt   time.Time `json:"createdAt"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// LifePredictorReport is the lifePredictorReports/{uid} document
type LifePredictorReport struct {
	Report         string         `json:"report"`
	Timestamp      time.Time      `json:"timestamp"`
	UserAnswers    []string       `json:"userAnswers"`
	AIGenerated    bool           `json:"aiGenerated"`
	ReportMetadata ReportMetadata `json:"reportMetadata"`
}

// ChatMessage is one turn of a stored conversation
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	TokensUsed int        `json:"tokensUsed,omitempty"`
}

// KarmicChat is the karmicReportChats/{uid} document
type KarmicChat struct {
	UserID        string        `json:"userId"`
	Messages      []ChatMessage `json:"messages"`
	QuestionsUsed int           `json:"questionsUsed"`
	LastUpdated   time.Time     `json:"lastUpdated"`
}

// KarmicChatView adds the remaining allowance to a chat
type KarmicChatView struct {
	KarmicChat
	QuestionLimit      int `json:"questionLimit"`
	QuestionsRemaining int `json:"questionsRemaining"`
}

// KarmicQuestionRequest asks the karmic guide one question
type KarmicQuestionRequest struct {
	Question string `json:"question"`
}

// Validate checks the KarmicQuestionRequest
func (r *KarmicQuestionRequest) Validate() []FieldError {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return []FieldError{{Field: "question", Message: "question is required"}}
	}
	if len(r.Question) > 2000 {
		return []FieldError{{Field: "question", Message: "question must be 2000 characters or less"}}
	}
	return nil
}

// ColorMeanings explains the aura colours
type ColorMeanings struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// AuraReport is the auraReports/{uid} document
type AuraReport struct {
	PrimaryColor      string        `json:"primaryColor"`
	PrimaryHex        string        `json:"primaryHex"`
	SecondaryColors   []string      `json:"secondaryColors"`
	SecondaryHex      []string      `json:"secondaryHex"`
	AuraScore         float64       `json:"auraScore"`
	PersonalityTraits string        `json:"personalityTraits"`
	EmotionalEnergy   string        `json:"emotionalEnergy"`
	Strengths         string        `json:"strengths"`
	AreasForGrowth    string        `json:"areasForGrowth"`
	Affirmation       string        `json:"affirmation"`
	ColorMeanings     ColorMeanings `json:"colorMeanings"`
	AIGenerated       bool          `json:"aiGenerated"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// VibrationalReport is the vibrationalReports/{uid} document
type VibrationalReport struct {
	Frequency       float64   `json:"frequency"`
	Level           string    `json:"level"`
	Color           string    `json:"color"`
	Percentage      float64   `json:"percentage"`
	Analysis        string    `json:"analysis"`
	Recommendations []string  `json:"recommendations"`
	Affirmation     string    `json:"affirmation"`
	AIGenerated     bool      `json:"aiGenerated"`
	CreatedAt       time.Time `json:"createdAt"`
}

// AnswersRequest carries questionnaire answers keyed by question
type AnswersRequest struct {
	Answers map[string]string `json:"answers"`
}

// Validate checks that at least one answer is present
func (r *AnswersRequest) Validate() []FieldError {
	if len(r.Answers) == 0 {
		return []FieldError{{Field: "answers", Message: "at least one answer is required"}}
	}
	if len(r.Answers) > 50 {
		return []FieldError{{Field: "answers", Message: "at most 50 answers are accepted"}}
	}
	return nil
}

// StoredAnswers is the auraAnswers and vibrationalAnswers document
type StoredAnswers struct {
	Answers   map[string]string `json:"answers"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Palm validation results
const (
	PalmValid       = "VALID_PALM"
	PalmNotPalm     = "NOT_PALM"
	PalmUnclear     = "UNCLEAR_PALM"
	PalmWrongSide   = "WRONG_SIDE"
	PalmPartialHand = "PARTIAL_HAND"
)

// PalmValidationResults lists every answer the validator may give
var PalmValidationResults = []string{PalmValid, PalmNotPalm, PalmUnclear, PalmWrongSide, PalmPartialHand}

// PalmValidateRequest carries a palm photo as a data URL or bare base64
type PalmValidateRequest struct {
	Image string `json:"image"`
}

// PalmValidation is the palm check answer
type PalmValidation struct {
	Result string `json:"result"`
	Valid  bool   `json:"valid"`
}

// FacePalmRequest carries both photos as data URLs
type FacePalmRequest struct {
	FaceImage string `json:"faceImage"`
	PalmImage string `json:"palmImage"`
}

// Validate checks the FacePalmRequest
func (r *FacePalmRequest) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(r.FaceImage) == "" {
		errors = append(errors, FieldError{Field: "faceImage", Message: "faceImage is required"})
	}
	if strings.TrimSpace(r.PalmImage) == "" {
		errors = append(errors, FieldError{Field: "palmImage", Message: "palmImage is required"})
	}
	return errors
}

// FaceReading is the faceReadings/{uid} document
type FaceReading struct {
	Analysis     parser.FacePalmAnalysis `json:"analysis"`
	FaceImageURL string                  `json:"faceImageUrl"`
	PalmImageURL string                  `json:"palmImageUrl"`
	AIGenerated  bool                    `json:"aiGenerated"`
	CreatedAt    time.Time               `json:"createdAt"`
}

// WellnessRequest carries the guide conversation a wellness report is
// built from
type WellnessRequest struct {
	Conversation []ChatMessage `json:"conversation"`
	PalmUploaded bool          `json:"palmUploaded"`
}

// UserResponses returns the user turns of the conversation
func (r *WellnessRequest) UserResponses() []string {
	var out []string
	for _, m := range r.Conversation {
		if m.Role == "user" && strings.TrimSpace(m.Content) != "" {
			out = append(out, m.Content)
		}
	}
	return out
}

// Validate checks that the conversation holds at least one user answer
func (r *WellnessRequest) Validate() []FieldError {
	if len(r.UserResponses()) == 0 {
		return []FieldError{{Field: "conversation", Message: "conversation must contain at least one user message"}}
	}
	return nil
}

// WellnessResult is the wellness entry of userResults/{uid}
type WellnessResult struct {
	parser.WellnessReport
	Responses   []string  `json:"responses"`
	AIGenerated bool      `json:"aiGenerated"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SoulReport is the soul entry of userResults/{uid}
type SoulReport struct {
	Report      string           `json:"report"`
	Stats       parser.SoulStats `json:"stats"`
	AIGenerated bool             `json:"aiGenerated"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// UserResults is the userResults/{uid} document
type UserResults struct {
	Karmic   bool            `json:"karmic,omitempty"`
	Wellness *WellnessResult `json:"wellness,omitempty"`
	Soul     *SoulReport     `json:"soul,omitempty"`
}

// NumerologyQuestions are asked before a numerology report is built
var NumerologyQuestions = []string{
	"What is your full name? (for numerology calculation)",
	"What is your date of birth? (YYYY-MM-DD)",
}

// NumerologyRequest carries the answers to NumerologyQuestions
type NumerologyRequest struct {
	Answers []string `json:"answers"`
}

// Validate checks the NumerologyRequest
func (r *NumerologyRequest) Validate() []FieldError {
	if len(r.Answers) > 10 {
		return []FieldError{{Field: "answers", Message: "at most 10 answers are accepted"}}
	}
	return nil
}

// NumerologyReport is one users/{uid}/numerologyReports document
type NumerologyReport struct {
	ID             string         `json:"id,omitempty"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	BirthDate      string         `json:"birthDate"`
	Numbers        map[string]any `json:"numbers"`
	Interpretation string         `json:"interpretation"`
	AIGenerated    bool           `json:"aiGenerated"`
	Answers        []string       `json:"answers"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// BirthChartRequest renders a western birth chart
type BirthChartRequest struct {
	Name    string   `json:"name"`
	Date    string   `json:"date"` // YYYY-MM-DD, defaults to the profile
	Hour    *int     `json:"hour,omitempty"`
	Minute  *int     `json:"minute,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
	City    string   `json:"city,omitempty"`
	Country string   `json:"country,omitempty"`
	TZ      string   `json:"tz,omitempty"`
	Lang    string   `json:"lang,omitempty"`
	Theme   string   `json:"theme,omitempty"`
}

// Validate checks the BirthChartRequest
func (r *BirthChartRequest) Validate() []FieldError {
	var errors []FieldError
	if r.Date != "" && !IsDate(r.Date) {
		errors = append(errors, FieldError{Field: "date", Message: "date must be YYYY-MM-DD"})
	}
	if r.Hour != nil && (*r.Hour < 0 || *r.Hour > 23) {
		errors = append(errors, FieldError{Field: "hour", Message: "hour must be between 0 and 23"})
	}
	if r.Minute != nil && (*r.Minute < 0 || *r.Minute > 59) {
		errors = append(errors, FieldError{Field: "minute", Message: "minute must be between 0 and 59"})
	}
	return errors
}
