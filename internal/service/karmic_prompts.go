package service

import (
	"fmt"
	"strings"
	"time"
)

// karmicInput is everything the karmic prompts are built from
type karmicInput struct {
	Name       string
	DOB        string
	TOB        string
	BirthPlace string
	Timezone   string
	LifeArea   string
	Challenge  string

	AstrologyText string
	VedicSummary  string
	NumerologySum string
	HasVedic      bool
	HasNumerology bool
}

const jyotishPromptTemplate = `You are a master Vedic Astrologer with deep knowledge of Jyotish shastra. Analyze the provided birth chart data and user responses to create a comprehensive Mini Jyotish Reading.

BIRTH CHART DATA:
%s

USER RESPONSES:
- Confirmed Birth Place: %s
- Area of Curiosity: %s
- Current Challenge: %s

BIRTH DETAILS:
- Date: %s
- Time: %s
- Place: %s

Generate a mystical and insightful Jyotish reading focusing on these three main areas:

## Key Planetary Influences
Analyze the Lagna and its lord, the strongest planets, any Raja Yogas and how they shape personality and life path.

## Current Karmic Challenges
Identify karmic patterns (12th house, Ketu, Saturn), current life lessons and how to work with rather than against karmic forces.

## Current Cosmic Phase
Analyze the current Mahadasha and Antardasha, significant transits and the energetic themes of this period.

Structure your response with clear headings and write in a mystical yet accessible tone. Keep the reading between 800 and 1200 words.

Focus especially on their area of curiosity (%s) and provide specific guidance for their challenge (%s).`

func jyotishPrompt(in karmicInput) string {
	return fmt.Sprintf(jyotishPromptTemplate,
		in.AstrologyText,
		in.BirthPlace, in.LifeArea, in.Challenge,
		in.DOB, in.TOB, in.BirthPlace,
		in.LifeArea, in.Challenge,
	)
}

func fallbackJyotish(in karmicInput) string {
	var b strings.Builder
	b.WriteString("## Key Planetary Influences\n\n")
	b.WriteString("Your birth chart reveals a unique cosmic signature with significant planetary influences shaping your life path. ")
	b.WriteString("The positioning of your ascendant lord suggests a strong foundation for personal growth and spiritual development.\n\n")
	fmt.Fprintf(&b, "Based on your birth details (%s at %s in %s), the cosmic energies present at your birth continue to influence your current journey.\n\n", in.DOB, in.TOB, in.BirthPlace)
	b.WriteString("## Current Karmic Challenges\n\n")
	fmt.Fprintf(&b, "Your stated challenge regarding %q is deeply connected to your karmic patterns and represents an opportunity for soul growth. ", in.Challenge)
	b.WriteString("Working with patience and spiritual practice will help you transform it into wisdom.\n\n")
	fmt.Fprintf(&b, "The cosmic energies are guiding you toward greater self-awareness in the area of %s.\n\n", in.LifeArea)
	b.WriteString("## Current Cosmic Phase\n\n")
	b.WriteString("You are in a transformative period that supports deep inner work and spiritual awakening. ")
	b.WriteString("This is an excellent time for meditation, self-reflection and connecting with your higher purpose.\n\n")
	b.WriteString("*This reading is based on the ancient wisdom of Vedic astrology.*")
	return b.String()
}

const karmicSystemTemplate = `You are a master astrologer with deep expertise in both Vedic astrology and Western numerology. You will create a comprehensive life prediction report that seamlessly blends insights from both systems.

CRITICAL INSTRUCTIONS:
- Give EXACTLY 50%% weight to Vedic astrology insights
- Give EXACTLY 50%% weight to Western numerology insights
- Blend both systems naturally in each section (don't separate them)
- Focus on actionable life predictions, not just descriptions
- Write in a mystical yet practical tone
- Keep total response under 2000 words
- Include a synthesis section that combines both systems

USER PROFILE:
Name: %s
Date of Birth: %s
Time of Birth: %s
Place of Birth: %s
Area of Curiosity: %s

VEDIC ASTROLOGY INSIGHTS:
%s

WESTERN NUMEROLOGY INSIGHTS:
%s`

func karmicSystemPrompt(in karmicInput) string {
	return fmt.Sprintf(karmicSystemTemplate,
		in.Name, in.DOB, in.TOB, in.BirthPlace, in.LifeArea,
		in.VedicSummary, in.NumerologySum,
	)
}

// KarmicSections are the headings every karmic report is asked for
var KarmicSections = []string{
	"🌟 Core Life Theme & Purpose",
	"🔮 Current Life Phase Analysis",
	"💼 Career & Life Direction",
	"💝 Relationships & Social Dynamics",
	"⚡ Challenges & Growth Opportunities",
	"🎯 Next 12 Months Cosmic Forecast",
	"🔗 Synthesis: The Complete Picture",
	"⭐ Actionable Cosmic Recommendations",
}

var karmicSectionGuides = []string{
	"Blend Vedic planetary positions with numerology life path to reveal the soul's mission in this lifetime.",
	"Analyze current Dasha period alongside numerology cycles to understand present energies and timing.",
	"Combine 10th house analysis with destiny number insights for professional guidance.",
	"Merge 7th house influences with personality number patterns for relationship insights.",
	"Identify karmic lessons from both systems and growth areas for spiritual evolution.",
	"Predict upcoming opportunities and challenges using both Vedic transits and numerology cycles.",
	"Weave together all insights from both systems into unified guidance for the user's journey.",
	"Provide specific, practical steps the user can take based on this analysis.",
}

func karmicUserPrompt() string {
	var b strings.Builder
	b.WriteString("Generate a comprehensive life prediction report with these exact sections:\n")
	for i, s := range KarmicSections {
		fmt.Fprintf(&b, "\n## %s\n%s\n", s, karmicSectionGuides[i])
	}
	b.WriteString("\nRemember: Each section should naturally blend Vedic and Western insights rather than treating them separately.")
	return b.String()
}

func dataStatus(ok bool) string {
	if ok {
		return "✅ Data Available"
	}
	return "❌ Data Missing"
}

func fallbackKarmicReport(in karmicInput, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Your Karmic Life Prediction Report\n\n")
	b.WriteString("## 🌟 Core Life Theme & Purpose\n")
	fmt.Fprintf(&b, "Based on your birth details (%s at %s in %s), your cosmic blueprint reveals a unique path of growth and discovery.\n\n", in.DOB, in.TOB, in.BirthPlace)
	fmt.Fprintf(&b, "Your area of curiosity in **%s** suggests this is a significant theme in your current life journey.\n\n", in.LifeArea)
	b.WriteString("## 📊 Available Data Summary\n")
	b.WriteString("We have gathered your Vedic astrology and Western numerology data. However, the AI analysis encountered a temporary issue.\n\n")
	fmt.Fprintf(&b, "**Vedic Astrology Status:** %s\n", dataStatus(in.HasVedic))
	fmt.Fprintf(&b, "**Western Numerology Status:** %s\n\n", dataStatus(in.HasNumerology))
	b.WriteString("## 🔄 Next Steps\n")
	b.WriteString("Your complete personalized report will be ready shortly. Please refresh this page or use the chat feature to ask specific questions about your charts.\n\n")
	b.WriteString("---\n")
	fmt.Fprintf(&b, "*Generated on %s - Fallback Report*", now.Format("January 2, 2006"))
	return b.String()
}

// Karmic chat texts
const (
	karmicChatSystemPrompt = "You are a helpful astrology and numerology assistant."
	karmicChatFailure      = "🌟 The cosmic energies are a bit scattered right now. Please try asking your question again."
)

func karmicWelcome(limit int) string {
	return fmt.Sprintf("🌟 Welcome to your cosmic consultation! I'm here to help you understand your karmic report and birth charts.\n\n"+
		"✨ You have **%d free questions** to explore your astrological insights.\n\n"+
		"What would you like to know about your cosmic blueprint?", limit)
}
