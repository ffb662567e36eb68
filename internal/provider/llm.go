package provider

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ImagePart attaches an image to a message. URL may be an https URL or a
// base64 data URL. Detail is "low", "high" or "auto".
type ImagePart struct {
	URL    string
	Detail string
}

// Message is one chat turn
type Message struct {
	Role    string      `json:"role"`
	Content string      `json:"content"`
	Images  []ImagePart `json:"-"`
}

// CompletionRequest is a chat completion call. An empty Model uses the
// client's default.
type CompletionRequest struct {
	Model            string
	Messages         []Message
	MaxTokens        int
	Temperature      float64
	PresencePenalty  float64
	FrequencyPenalty float64
}

// Completion is the model answer
type Completion struct {
	Text       string
	Model      string
	TokensUsed int
}
