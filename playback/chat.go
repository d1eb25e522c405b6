package playback

// ChatMessage, party chat geçmişindeki tek bir mesaj.
// Timestamp unix milisaniyedir; HTML, Text'in render edilmiş halidir.
type ChatMessage struct {
	ID        string `json:"id"`
	PartyID   string `json:"party_id"`
	AuthorID  string `json:"author_id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	HTML      string `json:"html"`
	Timestamp int64  `json:"timestamp"`
}
