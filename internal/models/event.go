package models

// Event is the envelope Calendly posts to the webhook endpoint.
type Event struct {
	Event   string       `json:"event"`
	Payload EventPayload `json:"payload"`
}

// EventPayload holds the invitee data of a scheduled event.
// Absent fields decode to their zero value.
type EventPayload struct {
	Email               string              `json:"email" validate:"omitempty,email"`
	Name                string              `json:"name"`
	QuestionsAndAnswers []QuestionAndAnswer `json:"questions_and_answers"`
	CancelURL           string              `json:"cancel_url"`
	RescheduleURL       string              `json:"reschedule_url"`
}

// QuestionAndAnswer is a single booking form entry, kept in form order.
type QuestionAndAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
