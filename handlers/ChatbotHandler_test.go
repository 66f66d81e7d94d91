package handlers

import "testing"

func TestMatchChatTopic(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		wantTopic string
	}{
		{
			name:      "upload question",
			message:   "How do I upload a PDF?",
			wantTopic: "documents",
		},
		{
			name:      "comparison question",
			message:   "Why did this quote win the comparison?",
			wantTopic: "comparison",
		},
		{
			name:      "portuguese budget question",
			message:   "Como funciona a comparacao de orcamento?",
			wantTopic: "comparison",
		},
		{
			name:      "plan question",
			message:   "What does the Pro plan cost?",
			wantTopic: "plans",
		},
		{
			name:      "analysis question",
			message:   "My AI analysis is stuck",
			wantTopic: "analysis",
		},
		{
			name:      "password question",
			message:   "I forgot my password",
			wantTopic: "account",
		},
		{
			name:      "share question",
			message:   "Can I get a QR code for this?",
			wantTopic: "sharing",
		},
		{
			name:      "unknown question",
			message:   "What is the meaning of life?",
			wantTopic: "general",
		},
		{
			name:      "case insensitive",
			message:   "UPLOAD A DOCUMENT",
			wantTopic: "documents",
		},
		{
			// "email" contains "ai" but must not route to analysis.
			name:      "email question",
			message:   "Can I change my email address?",
			wantTopic: "account",
		},
		{
			name:      "ai only as a whole word",
			message:   "is this feature available again?",
			wantTopic: "general",
		},
		{
			name:      "plural keyword form",
			message:   "delete one of my quotes",
			wantTopic: "comparison",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, topic := matchChatTopic(tt.message)
			if topic != tt.wantTopic {
				t.Errorf("matchChatTopic(%q) topic = %q, want %q", tt.message, topic, tt.wantTopic)
			}
			if reply == "" {
				t.Errorf("matchChatTopic(%q) returned empty reply", tt.message)
			}
			if tt.wantTopic == "general" && reply != chatFallbackReply {
				t.Errorf("unknown message should get the fallback reply, got %q", reply)
			}
		})
	}
}

func TestMatchChatTopicFirstMatchWins(t *testing.T) {
	// "upload" (documents) appears before "plan" in the topic list, so a
	// message containing both resolves to documents.
	_, topic := matchChatTopic("can I upload more files on my plan?")
	if topic != "documents" {
		t.Errorf("expected first-listed topic to win, got %q", topic)
	}
}
