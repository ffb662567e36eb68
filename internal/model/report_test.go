package model

import (
	"strings"
	"testing"
)

func TestKarmicRequests_Validate(t *testing.T) {
	t.Parallel()

	birth := &KarmicBirthRequest{BirthPlace: "  Varanasi  "}
	if errors := birth.Validate(); len(errors) != 0 {
		t.Errorf("expected no errors, got %v", errors)
	}
	if birth.BirthPlace != "Varanasi" {
		t.Errorf("expected trimmed birth place, got %q", birth.BirthPlace)
	}
	if errors := (&KarmicBirthRequest{BirthPlace: " "}).Validate(); len(errors) != 1 {
		t.Errorf("expected blank birth place to fail, got %v", errors)
	}
	if errors := (&KarmicReportRequest{}).Validate(); len(errors) != 1 || errors[0].Field != "lifeArea" {
		t.Errorf("expected lifeArea error, got %v", errors)
	}
	if errors := (&KarmicQuestionRequest{Question: strings.Repeat("?", 2001)}).Validate(); len(errors) != 1 {
		t.Errorf("expected long question to fail, got %v", errors)
	}
}

func TestFacePalmRequest_Validate_ReportsBothImages(t *testing.T) {
	t.Parallel()

	errors := (&FacePalmRequest{}).Validate()

	if len(errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", errors)
	}
	if errors[0].Field != "faceImage" || errors[1].Field != "palmImage" {
		t.Errorf("unexpected fields %v", errors)
	}
}

func TestWellnessRequest_UserResponses(t *testing.T) {
	t.Parallel()
	req := &WellnessRequest{Conversation: []ChatMessage{
		{Role: "assistant", Content: "What is your name?"},
		{Role: "user", Content: "Asha"},
		{Role: "user", Content: "   "},
		{Role: "user", Content: "1990-04-12"},
	}}

	got := req.UserResponses()

	if len(got) != 2 || got[0] != "Asha" || got[1] != "1990-04-12" {
		t.Errorf("unexpected responses %v", got)
	}
	if errors := (&WellnessRequest{}).Validate(); len(errors) != 1 {
		t.Errorf("expected empty conversation to fail, got %v", errors)
	}
}

func TestBirthChartRequest_Validate(t *testing.T) {
	t.Parallel()
	hour, minute := 24, 30

	errors := (&BirthChartRequest{Date: "12/04/1990", Hour: &hour, Minute: &minute}).Validate()

	if len(errors) != 2 {
		t.Errorf("expected date and hour errors, got %v", errors)
	}
}

func TestLifePredictorOnboarding_FullName_SkipsBlankMiddle(t *testing.T) {
	t.Parallel()
	o := &LifePredictorOnboarding{FirstName: "Asha", MiddleName: " ", LastName: "Rao"}

	if got := o.FullName(); got != "Asha Rao" {
		t.Errorf("expected Asha Rao, got %q", got)
	}
}

func TestQAPairRequest_Validate_ByType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		req   QAPairRequest
		valid bool
	}{
		{QAPairRequest{Question: "q", Answer: "a"}, true},
		{QAPairRequest{Question: "q"}, false},
		{QAPairRequest{Type: QATypeFace, Analysis: "oval"}, true},
		{QAPairRequest{Type: QATypePalm}, false},
		{QAPairRequest{Type: "tarot", Analysis: "x"}, false},
	}
	for _, tt := range tests {
		if got := len(tt.req.Validate()) == 0; got != tt.valid {
			t.Errorf("%+v: valid=%v, want %v", tt.req, got, tt.valid)
		}
	}
}
