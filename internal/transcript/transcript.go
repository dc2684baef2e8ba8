// Package transcript holds the display-side chat log shown to the user.
package transcript

type Origin string

const (
	Human Origin = "human"
	AI    Origin = "ai"
)

// Message is one rendered chat bubble. It is never modified once created.
type Message struct {
	Origin Origin `json:"origin"`
	Text   string `json:"text"`
}

func HumanMessage(text string) Message { return Message{Origin: Human, Text: text} }

func AIMessage(text string) Message { return Message{Origin: AI, Text: text} }

// LastHuman returns up to n of the most recent human texts, oldest first.
func LastHuman(msgs []Message, n int) []string {
	if n <= 0 {
		return nil
	}
	picked := make([]string, 0, n)
	for i := len(msgs) - 1; i >= 0 && len(picked) < n; i-- {
		if msgs[i].Origin == Human {
			picked = append(picked, msgs[i].Text)
		}
	}
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked
}
