package models

// RenderedMessage is the payload handed to the chat gateway for the message
// bound to an event. Layout, colors and localization are the gateway's
// business; this service only supplies the facts.
type RenderedMessage struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Participants []string `json:"participants"`
	Image        string   `json:"image,omitempty"`
	Lang         string   `json:"lang,omitempty"`
}
