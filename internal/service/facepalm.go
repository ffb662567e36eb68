package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/parser"
	"github.com/eternal-ai/api/internal/provider"
	"github.com/eternal-ai/api/internal/storage"
)

const (
	palmMinBase64Length = 1000
	palmMaxTokens       = 100
	palmTemperature     = 0.1
	visionMaxTokens     = 3000
	visionTemperature   = 0.7
)

const palmValidationPrompt = `Look at this image and decide whether it shows the palm side of a human hand suitable for palm reading.
Answer with exactly one of these words and nothing else:
VALID_PALM - a clear, open palm facing the camera with the major lines visible
NOT_PALM - the image does not show a human palm
UNCLEAR_PALM - a palm is shown but it is blurry, dark or too small to read
WRONG_SIDE - the back of the hand is shown
PARTIAL_HAND - only part of the palm is visible`

const visionSystemPrompt = `You are an expert in traditional face reading (physiognomy) and palmistry (chiromancy).
Analyze the provided images to give detailed personality insights, characteristics, and life tendencies.

For the face image analysis:
- Determine face shape and provide personality analysis
- Examine forehead, eyes, eyebrows, nose, mouth, lips, and chin
- Identify dominant personality traits

For the palm image analysis:
- Identify hand type (Earth, Air, Water, Fire)
- Analyze major lines (Life, Heart, Head, Fate)
- Examine mounts and their prominence
- Note any special markings

Format your response as a structured JSON object with the following schema:
{
  "overallScore": number,
  "faceAnalysis": {
    "faceShape": string, "faceShapeMeaning": string, "dominantTraits": string[],
    "forehead": string, "eyes": string, "eyebrows": string, "nose": string,
    "lips": string, "chin": string, "personality": string, "lifePhase": string,
    "energyLevel": string
  },
  "palmAnalysis": {
    "handType": string, "handTypeMeaning": string, "lifeLine": string,
    "heartLine": string, "headLine": string, "fateLine": string,
    "mountOfVenus": string, "fingerAnalysis": string, "specialMarkings": string,
    "destinyPath": string
  },
  "compatibility": {"bestMatches": string[], "challenges": string[], "recommendations": string[]},
  "predictions": {"career": string, "relationships": string, "health": string, "spiritual": string}
}

Ensure all analysis is positive and constructive, focusing on potential and growth rather than negative predictions.`

const visionUserPrompt = "Analyze these images for face reading (first image) and palm reading (second image) based on traditional physiognomy and palmistry. Provide detailed personality insights, characteristics, and life tendencies in the JSON format specified."

// FacePalmService validates palm photos and produces face and palm readings
type FacePalmService struct {
	reports       ReportRepository
	onboarding    OnboardingRepository
	blobs         BlobStore
	llm           LLM
	maxImageBytes int
	now           func() time.Time
}

// FacePalmServiceConfig holds configuration for the face/palm service
type FacePalmServiceConfig struct {
	ReportRepo     ReportRepository
	OnboardingRepo OnboardingRepository
	Blobs          BlobStore
	LLM            LLM
	MaxImageBytes  int
}

// NewFacePalmService creates a new face/palm service
func NewFacePalmService(cfg FacePalmServiceConfig) *FacePalmService {
	return &FacePalmService{
		reports:       cfg.ReportRepo,
		onboarding:    cfg.OnboardingRepo,
		blobs:         cfg.Blobs,
		llm:           cfg.LLM,
		maxImageBytes: cfg.MaxImageBytes,
		now:           time.Now,
	}
}

// ValidatePalm classifies a palm photo. Without a usable vision model the
// result is derived from the image content alone.
func (s *FacePalmService) ValidatePalm(ctx context.Context, req model.PalmValidateRequest) (*model.PalmValidation, error) {
	b64 := req.Image
	if i := strings.Index(b64, ","); strings.HasPrefix(b64, "data:") && i >= 0 {
		b64 = b64[i+1:]
	}
	if len(b64) < palmMinBase64Length {
		return palmValidation(model.PalmUnclear), nil
	}
	if s.llm == nil || !s.llm.Configured() {
		return palmValidation(mockPalmValidation(b64)), nil
	}

	c, err := complete(ctx, s.llm, provider.CompletionRequest{
		Messages: []provider.Message{{
			Role:    provider.RoleUser,
			Content: palmValidationPrompt,
			Images:  []provider.ImagePart{{URL: "data:image/jpeg;base64," + b64, Detail: "high"}},
		}},
		MaxTokens:   palmMaxTokens,
		Temperature: palmTemperature,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if provider.StatusCode(err) == http.StatusNotFound {
			slog.Warn("vision model unavailable, rejecting palm", "error", err)
			return palmValidation(model.PalmNotPalm), nil
		}
		slog.Warn("palm validation failed, using content check", "error", err)
		return palmValidation(mockPalmValidation(b64)), nil
	}

	result := strings.TrimSpace(c.Text)
	if !slices.Contains(model.PalmValidationResults, result) {
		slog.Warn("unexpected palm validation answer", "answer", result)
		result = model.PalmNotPalm
	}
	return palmValidation(result), nil
}

func palmValidation(result string) *model.PalmValidation {
	return &model.PalmValidation{Result: result, Valid: result == model.PalmValid}
}

// mockPalmOutcomes is weighted toward rejection
var mockPalmOutcomes = []string{model.PalmNotPalm, model.PalmNotPalm, model.PalmWrongSide, model.PalmUnclear, model.PalmValid}

func mockPalmValidation(b64 string) string {
	h := fnv.New32a()
	h.Write([]byte(b64))
	return mockPalmOutcomes[h.Sum32()%uint32(len(mockPalmOutcomes))]
}

// Analyze uploads both photos, reads them with the vision model, stores the
// reading and records it in the soul path answers
func (s *FacePalmService) Analyze(ctx context.Context, userID string, req model.FacePalmRequest) (*model.FaceReading, error) {
	if s.llm == nil || !s.llm.Configured() {
		return nil, ErrLLMNotConfigured
	}

	facePath, faceURL, err := uploadImage(ctx, s.blobs, req.FaceImage, storage.PrefixFace, userID, s.maxImageBytes, s.now)
	if err != nil {
		return nil, err
	}
	var palmPath string
	saved := false
	defer func() {
		if !saved {
			discardImages(ctx, s.blobs, facePath, palmPath)
		}
	}()

	palmPath, palmURL, err := uploadImage(ctx, s.blobs, req.PalmImage, storage.PrefixPalm, userID, s.maxImageBytes, s.now)
	if err != nil {
		return nil, err
	}

	c, err := complete(ctx, s.llm, provider.CompletionRequest{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: visionSystemPrompt},
			{
				Role:    provider.RoleUser,
				Content: visionUserPrompt,
				Images:  []provider.ImagePart{{URL: faceURL}, {URL: palmURL}},
			},
		},
		MaxTokens:   visionMaxTokens,
		Temperature: visionTemperature,
	})
	if err != nil {
		return nil, err
	}

	analysis, structured := parser.ParseFacePalm(c.Text)
	if !structured {
		slog.Warn("face/palm reading was not JSON, using keyword fallback", "user_id", userID)
	}

	now := s.now().UTC()
	reading := &model.FaceReading{
		Analysis:     analysis,
		FaceImageURL: faceURL,
		PalmImageURL: palmURL,
		AIGenerated:  structured,
		CreatedAt:    now,
	}
	if err := s.reports.SaveFaceReading(ctx, userID, reading); err != nil {
		return nil, err
	}
	saved = true

	err = s.onboarding.AppendQAPairs(ctx, userID,
		model.QAPair{Type: model.QATypeFace, Analysis: FaceSummary(analysis), Timestamp: now},
		model.QAPair{Type: model.QATypePalm, Analysis: PalmSummary(analysis), Timestamp: now},
	)
	if err != nil {
		return nil, err
	}
	return reading, nil
}

// Get returns the stored face/palm reading
func (s *FacePalmService) Get(ctx context.Context, userID string) (*model.FaceReading, error) {
	reading, err := s.reports.GetFaceReading(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reading == nil {
		return nil, ErrReportNotFound
	}
	return reading, nil
}

// FaceSummary renders the face half of a reading as prose
func FaceSummary(a parser.FacePalmAnalysis) string {
	f := a.FaceAnalysis
	return fmt.Sprintf("Face shape: %s (%s). Dominant traits: %s. Personality: %s Energy level: %s.",
		f.FaceShape, f.FaceShapeMeaning, strings.Join(f.DominantTraits, ", "), f.Personality, f.EnergyLevel)
}

// PalmSummary renders the palm half of a reading as prose
func PalmSummary(a parser.FacePalmAnalysis) string {
	p := a.PalmAnalysis
	return fmt.Sprintf("Hand type: %s (%s). Life line: %s Heart line: %s Head line: %s Destiny path: %s",
		p.HandType, p.HandTypeMeaning, p.LifeLine, p.HeartLine, p.HeadLine, p.DestinyPath)
}
