package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/eternal-ai/api/internal/model"
	"github.com/eternal-ai/api/internal/provider"
)

var (
	slashDate = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`)
	anyDigit  = regexp.MustCompile(`\d+`)
)

// guideRule answers when match accepts the last user message
type guideRule struct {
	match  func(msg string) bool
	answer func(gender string) string
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func static(text string) func(string) string {
	return func(string) string { return text }
}

// palmHand names the hand to photograph for a gender
func palmHand(gender string) (hand, note string) {
	switch gender {
	case "male":
		return "RIGHT", "(right for males)"
	case "female":
		return "LEFT", "(left for females)"
	default:
		return "correct", "(right for males, left for females)"
	}
}

// guideScript is checked in order; the first match answers
var guideScript = []guideRule{
	{
		match:  func(m string) bool { return containsAny(m, "hello", "hi", "hey") },
		answer: static("Hello! I'm your spiritual guide from Eternal. I'm here to help discover your cognitive identity and unveil your spiritual aura. Could you start by telling me your name and gender?"),
	},
	{
		match:  func(m string) bool { return strings.Contains(m, "name") && !strings.Contains(m, "born") },
		answer: static("Nice to meet you! When were you born? Please share your birth date so I can understand your numerological influences better."),
	},
	{
		match:  func(m string) bool { return containsAny(m, "born", "birthday") || slashDate.MatchString(m) },
		answer: static("Thank you for sharing your birth date. Do you happen to know your birth time? It helps with more precise astrological and spiritual insights."),
	},
	{
		match:  func(m string) bool { return containsAny(m, "time", "am", "pm") },
		answer: static("That's helpful for our reading. How would you describe your sleep patterns? Do you sleep deeply, have trouble falling asleep, or wake up frequently?"),
	},
	{
		match:  func(m string) bool { return strings.Contains(m, "sleep") },
		answer: static("Sleep patterns reveal a lot about our energy flow. What about your diet - do you follow any particular dietary preference (vegetarian, vegan, omnivore, etc.)?"),
	},
	{
		match:  func(m string) bool { return containsAny(m, "diet", "food", "eat") },
		answer: static("Your nutritional choices directly impact your energy field. How frequently do you experience stress or anxiety in your daily life?"),
	},
	{
		match:  func(m string) bool { return containsAny(m, "stress", "anxiety") },
		answer: static("Thank you for sharing. Managing stress is key to maintaining a clear aura. How would you describe your usual mood and emotional patterns?"),
	},
	{
		match:  func(m string) bool { return containsAny(m, "mood", "emotional") },
		answer: static("Your emotional awareness shows spiritual maturity. On a scale of 1-10, how connected do you feel to your spiritual self?"),
	},
	{
		match:  func(m string) bool { return strings.Contains(m, "spiritual") || anyDigit.MatchString(m) },
		answer: static("I sense you're on a meaningful spiritual journey. Do you have relationships in your life that feel particularly uplifting? And are there any that feel energetically draining?"),
	},
	{
		match:  func(m string) bool { return strings.Contains(m, "relationship") },
		answer: static("Relationships form important energy connections in our lives. Do you practice any form of meditation, breathwork, or other spiritual practices?"),
	},
	{
		match:  func(m string) bool { return containsAny(m, "meditation", "practice") },
		answer: static("Thank you for sharing your spiritual practices. How would you describe your overall health and energy levels?"),
	},
	{
		match: func(m string) bool { return containsAny(m, "health", "energy") },
		answer: func(gender string) string {
			hand, note := palmHand(gender)
			return fmt.Sprintf("Thank you for sharing all this information! To complete your spiritual profile, I need to analyze your palm. For accurate palm reading, please upload a clear image of your %s palm %s. This ancient practice follows traditional palmistry guidelines for the most accurate reading.", hand, note)
		},
	},
	{
		match: func(m string) bool { return containsAny(m, "palm", "hand") },
		answer: func(gender string) string {
			hand, _ := palmHand(gender)
			return fmt.Sprintf("To complete your spiritual profile, I'd like to analyze your palm. Please upload a clear image of your %s palm for a detailed palm reading. This will add valuable insights about your life path, relationships, and destiny to your report.", hand)
		},
	},
	{
		match:  func(m string) bool { return containsAny(m, "report", "generate", "ready") },
		answer: static("Thank you for sharing all this information! I now have everything I need to generate your comprehensive spiritual wellness report. Would you like me to create your personalized report now?"),
	},
}

const guideDefault = "I understand. Your energy patterns are starting to become clearer to me. Let's continue - can you tell me more about your daily spiritual practices or what brings you peace?"

// detectGender reads the gender from the first user message that names one
func detectGender(msgs []model.ChatMessage) string {
	for _, m := range msgs {
		if m.Role != provider.RoleUser {
			continue
		}
		text := strings.ToLower(m.Content)
		if strings.Contains(text, "female") {
			return "female"
		}
		if strings.Contains(text, "male") {
			return "male"
		}
	}
	return ""
}

// GuideScriptReply answers the guide conversation without a language model
func GuideScriptReply(msgs []model.ChatMessage) string {
	last := ""
	if len(msgs) > 0 {
		last = strings.ToLower(msgs[len(msgs)-1].Content)
	}
	gender := detectGender(msgs)
	for _, rule := range guideScript {
		if rule.match(last) {
			return rule.answer(gender)
		}
	}
	return guideDefault
}
