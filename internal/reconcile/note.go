package reconcile

import (
	"fmt"
	"strings"

	"github.com/isometry/calendly-webhook/internal/models"
)

// DefaultPhoneQuestion is the booking form question whose answer is stored as the Lead phone.
const DefaultPhoneQuestion = "Telefonnummer"

// Note is the rendered comment for an event together with the fields extracted while rendering it.
type Note struct {
	Text  string
	Phone string
}

// NewNote renders payload as an HTML comment. The answer of the last question equal to
// phoneQuestion becomes Note.Phone. Values are rendered verbatim.
func NewNote(payload models.EventPayload, phoneQuestion string) Note {
	var b strings.Builder
	var phone string

	fmt.Fprintf(&b, "<div><b>%s created a new Event via Calendly</b></div>", payload.Name)
	for _, qa := range payload.QuestionsAndAnswers {
		if qa.Question == phoneQuestion {
			phone = qa.Answer
		}
		fmt.Fprintf(&b, "<div><b>%s</b></div>", qa.Question)
		fmt.Fprintf(&b, "<div>%s</div>", qa.Answer)
		b.WriteString("<div><br></div>")
	}
	fmt.Fprintf(&b, `<div><a href="%s">Cancel</a> or `, payload.CancelURL)
	fmt.Fprintf(&b, `<a href="%s">Reschedule</a></div>`, payload.RescheduleURL)

	return Note{Text: b.String(), Phone: phone}
}
