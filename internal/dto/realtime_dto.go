package dto

// Frame types on the project socket.
const (
	EventProjectMessage = "project-message"
	EventMemberJoined   = "member-joined"
	EventError          = "error"
)

// UserDescriptor is the public identity attached to outgoing frames.
type UserDescriptor struct {
	Id    string `json:"id"`
	Email string `json:"email"`
}

// InboundFrame is what a client sends.
type InboundFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ProjectMessageFrame struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Sender  UserDescriptor `json:"sender"`
}

type MemberJoinedFrame struct {
	Type string         `json:"type"`
	User UserDescriptor `json:"user"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorFrame struct {
	Type  string    `json:"type"`
	Error ErrorBody `json:"error"`
}

type RealtimeStatsResponse struct {
	Rooms   int `json:"rooms"`
	Clients int `json:"clients"`
}
