package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ShareRequestMessage asks the share bridge to open the native share sheet
// with a text and attached files. File data is base64 in JSON.
type ShareRequestMessage struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Text      string        `json:"text"`
	Files     []FileMessage `json:"files"`
	Timestamp time.Time     `json:"timestamp"`
}

type FileMessage struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

func NewShareRequestMessage(title, text string, files []FileMessage) *ShareRequestMessage {
	return &ShareRequestMessage{
		ID:        uuid.NewString(),
		Title:     title,
		Text:      text,
		Files:     files,
		Timestamp: time.Now(),
	}
}

func (m *ShareRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ShareRequestMessageFromJSON(data []byte) (*ShareRequestMessage, error) {
	var msg ShareRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
