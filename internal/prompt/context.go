package prompt

import (
	"strings"

	"mindease/internal/transcript"
)

const contextHeader = "Recent things the user has shared:"

// DerivedContext joins the last n human messages of the transcript, oldest
// first, one per line. AI messages are skipped.
func DerivedContext(msgs []transcript.Message, n int) string {
	return strings.Join(transcript.LastHuman(msgs, n), "\n")
}
