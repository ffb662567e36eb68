package parser

import (
	"math/rand/v2"
	"strings"
)

// FaceAnalysis is the face reading part of a face/palm report
type FaceAnalysis struct {
	FaceShape        string   `json:"faceShape"`
	FaceShapeMeaning string   `json:"faceShapeMeaning"`
	DominantTraits   []string `json:"dominantTraits"`
	Forehead         string   `json:"forehead"`
	Eyes             string   `json:"eyes"`
	Eyebrows         string   `json:"eyebrows"`
	Nose             string   `json:"nose"`
	Lips             string   `json:"lips"`
	Chin             string   `json:"chin"`
	Personality      string   `json:"personality"`
	LifePhase        string   `json:"lifePhase"`
	EnergyLevel      string   `json:"energyLevel"`
}

// PalmAnalysis is the palm reading part of a face/palm report
type PalmAnalysis struct {
	HandType        string `json:"handType"`
	HandTypeMeaning string `json:"handTypeMeaning"`
	LifeLine        string `json:"lifeLine"`
	HeartLine       string `json:"heartLine"`
	HeadLine        string `json:"headLine"`
	FateLine        string `json:"fateLine"`
	MountOfVenus    string `json:"mountOfVenus"`
	FingerAnalysis  string `json:"fingerAnalysis"`
	SpecialMarkings string `json:"specialMarkings"`
	DestinyPath     string `json:"destinyPath"`
}

// Compatibility lists relationship guidance
type Compatibility struct {
	BestMatches     []string `json:"bestMatches"`
	Challenges      []string `json:"challenges"`
	Recommendations []string `json:"recommendations"`
}

// Predictions holds short forecasts per life area
type Predictions struct {
	Career        string `json:"career"`
	Relationships string `json:"relationships"`
	Health        string `json:"health"`
	Spiritual     string `json:"spiritual"`
}

// FacePalmAnalysis is the structured result of a face and palm reading
type FacePalmAnalysis struct {
	OverallScore  float64       `json:"overallScore"`
	FaceAnalysis  FaceAnalysis  `json:"faceAnalysis"`
	PalmAnalysis  PalmAnalysis  `json:"palmAnalysis"`
	Compatibility Compatibility `json:"compatibility"`
	Predictions   Predictions   `json:"predictions"`
}

var fallbackTraits = []string{
	"leadership", "creativity", "intuition", "analytical",
	"emotional", "logical", "practical", "ambitious",
}

// FallbackAnalysis builds a report from keyword hints when the model did
// not answer with JSON
func FallbackAnalysis(text string) FacePalmAnalysis {
	a := FacePalmAnalysis{
		OverallScore: 75,
		FaceAnalysis: FaceAnalysis{
			FaceShape:        "Unknown",
			FaceShapeMeaning: "Not determined from analysis",
			DominantTraits:   []string{},
			Personality:      "Analysis couldn't be structured properly",
			LifePhase:        "Current",
			EnergyLevel:      "Moderate",
		},
		PalmAnalysis: PalmAnalysis{
			HandType:        "Unknown",
			HandTypeMeaning: "Not determined from analysis",
			LifeLine:        "Present in palm",
			HeartLine:       "Present in palm",
			HeadLine:        "Present in palm",
			DestinyPath:     "Your unique journey continues",
		},
		Compatibility: Compatibility{
			BestMatches:     []string{"Compatible personalities"},
			Challenges:      []string{"Communication"},
			Recommendations: []string{"Self-reflection", "Open dialogue"},
		},
		Predictions: Predictions{
			Career:        "Your career path has potential for growth",
			Relationships: "Meaningful connections are possible",
			Health:        "Balance is key to wellbeing",
			Spiritual:     "Your spiritual journey is personal",
		},
	}

	if strings.Contains(text, "oval face") {
		a.FaceAnalysis.FaceShape = "Oval"
		a.FaceAnalysis.FaceShapeMeaning = "Balanced and harmonious"
	}

	lower := strings.ToLower(text)
	for _, trait := range fallbackTraits {
		if strings.Contains(lower, trait) {
			a.FaceAnalysis.DominantTraits = append(a.FaceAnalysis.DominantTraits, strings.ToUpper(trait[:1])+trait[1:])
		}
	}
	return a
}

// ParseFacePalm parses a face/palm reading. The second result reports
// whether the model answered with usable JSON.
func ParseFacePalm(text string) (FacePalmAnalysis, bool) {
	var a FacePalmAnalysis
	if err := ExtractJSON(text, &a); err == nil {
		return EnsureComplete(a), true
	}
	return EnsureComplete(FallbackAnalysis(text)), false
}

// EnsureComplete fills every empty field with a default. A missing overall
// score becomes a random value between 70 and 99.
func EnsureComplete(a FacePalmAnalysis) FacePalmAnalysis {
	if a.OverallScore == 0 {
		a.OverallScore = float64(70 + rand.IntN(30))
	}

	f := &a.FaceAnalysis
	def(&f.FaceShape, "Balanced")
	def(&f.FaceShapeMeaning, "Harmonious features indicate balance")
	defList(&f.DominantTraits, "Analytical", "Creative", "Intuitive")
	def(&f.Forehead, "Proportionate to facial structure")
	def(&f.Eyes, "Expressive and attentive")
	def(&f.Eyebrows, "Well-defined")
	def(&f.Nose, "Balanced and proportionate")
	def(&f.Lips, "Expressive")
	def(&f.Chin, "Shows determination")
	def(&f.Personality, "Balanced personality with analytical and creative tendencies")
	def(&f.LifePhase, "Growth")
	def(&f.EnergyLevel, "Moderate to High")

	p := &a.PalmAnalysis
	def(&p.HandType, "Mixed")
	def(&p.HandTypeMeaning, "Balanced qualities")
	def(&p.LifeLine, "Shows vitality and resilience")
	def(&p.HeartLine, "Balanced emotional nature")
	def(&p.HeadLine, "Analytical thinking capabilities")
	def(&p.FateLine, "Direction in career and purpose")
	def(&p.MountOfVenus, "Passion for life")
	def(&p.FingerAnalysis, "Balanced abilities")
	def(&p.SpecialMarkings, "Unique characteristics")
	def(&p.DestinyPath, "Path of personal growth and fulfillment")

	c := &a.Compatibility
	defList(&c.BestMatches, "Compatible personalities", "Similar values")
	defList(&c.Challenges, "Communication", "Balance")
	defList(&c.Recommendations, "Self-reflection", "Mindfulness", "Creative expression")

	pr := &a.Predictions
	def(&pr.Career, "Potential for growth and fulfillment")
	def(&pr.Relationships, "Meaningful connections with authentic communication")
	def(&pr.Health, "Balance physical and mental wellbeing")
	def(&pr.Spiritual, "Journey of self-discovery and growth")

	return a
}

func def(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

// defList only replaces a nil list; an explicit empty list is kept
func defList(field *[]string, values ...string) {
	if *field == nil {
		*field = values
	}
}
