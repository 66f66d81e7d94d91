package handlers

import (
	"backend/models"
	"database/sql"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
)

type chatTopic struct {
	Topic    string
	Keywords []string
	Reply    string
}

// Keyword-matched help topics, checked in order. First match wins.
var chatTopics = []chatTopic{
	{
		Topic:    "documents",
		Keywords: []string{"upload", "document", "file", "pdf", "enviar", "arquivo"},
		Reply:    "Go to Documents and click Upload. We accept PDF, TXT, CSV, DOC/DOCX and images. After the upload finishes you can queue an AI analysis from the document page.",
	},
	{
		Topic:    "comparison",
		Keywords: []string{"compare", "comparison", "quote", "budget", "orcamento", "cotacao", "score", "ranking"},
		Reply:    "Create a budget group, add at least two quotes to it and open the Comparison tab. Each quote is scored on price, warranty, delivery, reputation and product rating, and the best offer is recommended.",
	},
	{
		Topic:    "plans",
		Keywords: []string{"plan", "price", "subscription", "billing", "upgrade", "plano", "assinatura"},
		Reply:    "You can see all plans on the Plans page. Upgrading takes effect immediately; your previous subscription is cancelled and the new one starts today.",
	},
	{
		Topic:    "analysis",
		Keywords: []string{"analysis", "analyze", "ai", "insight", "summary", "analise"},
		Reply:    "Open a document and click Analyze. The AI reads the text, extracts a summary and insights, and emails you when it finishes. Analyses count against your plan's monthly AI limit.",
	},
	{
		Topic:    "account",
		Keywords: []string{"password", "login", "account", "profile", "email", "senha", "conta"},
		Reply:    "You can change your name, phone and password on the Profile page. If you signed up with Google, password login stays disabled for your account.",
	},
	{
		Topic:    "sharing",
		Keywords: []string{"share", "qr", "link", "compartilhar"},
		Reply:    "Use the Share button on a document to get a public link and a QR code. Anyone with the link can download the file, so only share what you mean to publish.",
	},
}

const chatFallbackReply = "I can help with documents, AI analyses, budget comparisons, plans and your account. Try asking about one of those, or contact support@docai.app."

// Short keywords like "ai" or "qr" must match a whole word, otherwise every
// message containing "email" or "again" would route to the analysis topic.
// Longer keywords match as a word prefix so plurals and verb forms still hit.
func keywordMatches(word, kw string) bool {
	if len(kw) <= 3 {
		return word == kw
	}
	return strings.HasPrefix(word, kw)
}

func matchChatTopic(message string) (string, string) {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, t := range chatTopics {
		for _, kw := range t.Keywords {
			for _, w := range words {
				if keywordMatches(w, kw) {
					return t.Reply, t.Topic
				}
			}
		}
	}
	return chatFallbackReply, "general"
}

// ChatbotHandler answers help questions with canned keyword-matched replies.
// @Summary Ask the help chatbot
// @Tags Chatbot
// @Accept json
// @Produce json
// @Param request body models.ChatMessage true "Question"
// @Success 200 {object} models.ChatReply
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/chatbot/message [post]
func ChatbotHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if _, _, err := GetSessionDetails(db, sessionID); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var msg models.ChatMessage
		if err := c.ShouldBindJSON(&msg); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		reply, topic := matchChatTopic(msg.Message)
		c.JSON(http.StatusOK, models.ChatReply{
			Reply:     reply,
			Topic:     topic,
			Timestamp: time.Now(),
		})
	}
}
