package types

// Message is the JSON shape of a stored chat message. Time is in
// milliseconds since the Unix epoch.
type Message struct {
	Id     int64  `json:"id"`
	Text   string `json:"text"`
	UserId string `json:"userID"`
	Time   int64  `json:"time"`
}
