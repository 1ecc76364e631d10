package classifier

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	legacySingleDigit = regexp.MustCompile(`(?i)Output\s+ONLY\s+a\s+single\s+digit`)
	twoNumbers        = regexp.MustCompile(`(?i)two\s+numbers`)
)

// DefaultPrompt is the two-dimension rubric sent as the system prompt.
const DefaultPrompt = `You are a strict classifier.
Rate the tweet on two dimensions and output both as numbers:

Dimension A (Inflammatory, 1-5):
- 1: Not inflammatory. Neutral or polite.
- 2: Slightly inflammatory. Minor negativity or sarcasm.
- 3: Moderately inflammatory. Clear negativity, dismissiveness, or provocation.
- 4: Very inflammatory. Personal attacks, insults, or aggressive tone.
- 5: Highly inflammatory. Harassment, hateful or severe attacks.

Dimension B (Political Ideology, -2 to 2):
- -2: Strongly left/liberal/progressive.
- -1: Mildly left-leaning.
- 0: Neutral/non-political/unclear.
- 1: Mildly right-leaning.
- 2: Strongly right/conservative.

Rules:
- Output ONLY two numbers separated by a comma: "A,B".
- A = 1 to 5 (inflammatory). B = -2 to 2 (ideology). No extra words.
- Do not include labels, punctuation (other than the comma), or explanations.

Now classify the tweet. REMEMBER: Output ONLY two numbers as "A,B" with no extra text.`

// SystemPrompt returns the prompt to send. Empty prompts and stored prompts
// from the single-digit format are replaced by DefaultPrompt.
func SystemPrompt(configured string) string {
	p := strings.TrimSpace(configured)
	if p == "" {
		return DefaultPrompt
	}
	if legacySingleDigit.MatchString(p) && !twoNumbers.MatchString(p) {
		return DefaultPrompt
	}
	return p
}

// UserMessage renders the item as the user turn.
func UserMessage(req Request) string {
	return fmt.Sprintf("Sender:\n%q\nTweet:\n%q\nLikes:%d\nReposts:%d\nComments:%d\nLabel:",
		req.Author,
		req.Text,
		req.Engagement.Likes,
		req.Engagement.Reposts,
		req.Engagement.Comments,
	)
}
