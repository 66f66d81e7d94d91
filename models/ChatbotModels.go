package models

import "time"

type ChatMessage struct {
	Message string `json:"message" binding:"required" example:"How do I upload a document?"`
}

type ChatReply struct {
	Reply     string    `json:"reply" example:"Go to Documents and click Upload."`
	Topic     string    `json:"topic" example:"documents"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}
