package client

import "time"

// User is a user document as served by the API.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Pic   string `json:"pic,omitempty"`
}

// Chat is a chat document as served by the API, with members, admin and
// latest message populated.
type Chat struct {
	ID            string    `json:"_id"`
	ChatName      string    `json:"chatName,omitempty"`
	IsGroupChat   bool      `json:"isGroupChat"`
	Users         []User    `json:"users"`
	GroupAdmin    *User     `json:"groupAdmin,omitempty"`
	LatestMessage *Message  `json:"latestMessage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Message is a message document as served by the API. Chat is only populated
// on the canonical document returned by PostMessage.
type Message struct {
	ID        string    `json:"_id"`
	Chat      *Chat     `json:"chat,omitempty"`
	Sender    *User     `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
