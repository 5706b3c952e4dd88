// internal/llmclient/prompt.go
package llmclient

import (
	"fmt"
	"strings"
)

// surveySystemPrompt is the fixed system instruction for every run.
const surveySystemPrompt = "You are a survey-solving AI with a custom personality."

// SurveyRequest builds the prompt for one survey question: the full rendered
// markup, the extracted question text and the comma-joined option labels.
// The model is asked to respond with the exact text of its chosen option.
func SurveyRequest(renderedHTML, question string, labels []string) Request {
	user := fmt.Sprintf(`
You are an AI with a custom personality designed to solve surveys.
Note that you do not have access to the raw page source; you only see the live rendered HTML.
Below is the rendered HTML of the page (as seen in the Chrome Elements panel):
%s

Additionally, here is the survey question and its available answer options:
Survey Question: %s
Options: %s

Respond with the exact text of the option you would choose.
`, renderedHTML, question, strings.Join(labels, ", "))

	return Request{
		SystemPrompt: surveySystemPrompt,
		UserPrompt:   user,
	}
}
