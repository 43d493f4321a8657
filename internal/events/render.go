package events

import (
	"ms-rsvp/internal/models"
)

const (
	dateLayout = "02/01/2006"
	timeLayout = "15:04"
)

// BuildMessage flattens an event into the payload the chat gateway renders.
func BuildMessage(event models.Event, lang string) models.RenderedMessage {
	participants := event.Participants
	if participants == nil {
		participants = []string{}
	}
	return models.RenderedMessage{
		Title:        event.Title,
		Description:  event.Description,
		Date:         event.Date.Format(dateLayout),
		Time:         event.Date.Format(timeLayout),
		Participants: participants,
		Image:        event.Image,
		Lang:         lang,
	}
}
