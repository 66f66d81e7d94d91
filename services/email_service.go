package services

import (
	"database/sql"
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"backend/models"

	"golang.org/x/net/html"
)

// convertHTMLToText converts HTML content to plain text for email sending
func convertHTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		// If parsing fails, return the original content
		return htmlContent
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			// Add line breaks for block elements
			switch n.Data {
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6":
				text.WriteString("\n")
			case "li":
				text.WriteString("- ")
			case "table", "tr":
				text.WriteString("\n")
			case "td", "th":
				text.WriteString(" | ")
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}

	extractText(doc)

	result := text.String()
	result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	result = strings.TrimSpace(result)

	return result
}

// EmailService handles email operations with template support
type EmailService struct {
	db *sql.DB
}

// NewEmailService creates a new email service instance
func NewEmailService(db *sql.DB) *EmailService {
	return &EmailService{db: db}
}

// SendTemplatedEmail sends an email using a template with variable substitution.
// If customTemplateID is provided that template is used; otherwise the
// default template for the type is selected.
func (es *EmailService) SendTemplatedEmail(templateType string, emailData models.EmailData, customTemplateID *int) error {
	var emailTemplate *models.EmailTemplate
	var err error

	if customTemplateID != nil {
		emailTemplate, err = models.GetTemplateByID(es.db, *customTemplateID)
		if err != nil {
			return fmt.Errorf("failed to get custom template (ID: %d): %v", *customTemplateID, err)
		}
		if emailTemplate.TemplateType != templateType {
			return fmt.Errorf("custom template type mismatch: expected %s, got %s", templateType, emailTemplate.TemplateType)
		}
	} else {
		emailTemplate, err = models.GetDefaultTemplate(es.db, templateType)
		if err != nil {
			return fmt.Errorf("failed to get default template for type '%s': %v", templateType, err)
		}
	}

	subject := es.processTemplate(emailTemplate.Subject, emailData)
	body := es.processTemplate(emailTemplate.Body, emailData)

	// Convert HTML body to plain text for email sending
	plainTextBody := convertHTMLToText(body)

	return es.sendEmail(emailData.Email, subject, plainTextBody, emailTemplate.CC, emailTemplate.BCC)
}

// processTemplate processes a template string with variable substitution
func (es *EmailService) processTemplate(templateStr string, data models.EmailData) string {
	variables := map[string]string{
		"user_name":     data.UserName,
		"email":         data.Email,
		"plan_name":     data.PlanName,
		"expiry_date":   data.ExpiryDate,
		"document_name": data.DocumentName,
		"login_url":     data.LoginURL,
		"support_email": data.SupportEmail,
	}

	result := templateStr
	for key, value := range variables {
		placeholder := fmt.Sprintf("{{%s}}", key)
		result = strings.ReplaceAll(result, placeholder, value)
	}

	return result
}

// sendEmail sends an email using SMTP with optional CC and BCC
func (es *EmailService) sendEmail(to, subject, body string, cc, bcc []string) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	from := os.Getenv("SMTP_FROM")
	user := os.Getenv("SMTP_USER")
	password := os.Getenv("SMTP_PASSWORD")
	if host == "" || from == "" {
		return fmt.Errorf("SMTP not configured: SMTP_HOST and SMTP_FROM are required")
	}
	if port == "" {
		port = "587"
	}

	auth := smtp.PlainAuth("", user, password, host)

	toList := []string{to}
	if len(cc) > 0 {
		toList = append(toList, cc...)
	}
	if len(bcc) > 0 {
		toList = append(toList, bcc...)
	}

	headers := []string{
		"From: " + from,
		"To: " + to,
	}
	if len(cc) > 0 {
		headers = append(headers, "Cc: "+strings.Join(cc, ", "))
	}
	headers = append(headers,
		"Subject: "+subject,
		"",
		body,
	)

	msg := []byte(strings.Join(headers, "\r\n") + "\r\n")

	return smtp.SendMail(host+":"+port, auth, from, toList, msg)
}

// SendWelcomeEmail sends a welcome email to a newly registered user
func (es *EmailService) SendWelcomeEmail(user models.User, customTemplateID *int) error {
	emailData := models.EmailData{
		UserName:     user.FullName,
		Email:        user.Email,
		LoginURL:     os.Getenv("APP_LOGIN_URL"),
		SupportEmail: os.Getenv("SUPPORT_EMAIL"),
	}

	return es.SendTemplatedEmail("welcome_user", emailData, customTemplateID)
}

// SendSubscriptionExpiryEmail warns a user that their subscription is
// about to end. Sent by the daily maintenance job.
func (es *EmailService) SendSubscriptionExpiryEmail(user models.User, planName, expiryDate string) error {
	emailData := models.EmailData{
		UserName:     user.FullName,
		Email:        user.Email,
		PlanName:     planName,
		ExpiryDate:   expiryDate,
		LoginURL:     os.Getenv("APP_LOGIN_URL"),
		SupportEmail: os.Getenv("SUPPORT_EMAIL"),
	}

	return es.SendTemplatedEmail("subscription_expiry", emailData, nil)
}

// SendAnalysisReadyEmail notifies a user that a document analysis finished.
func (es *EmailService) SendAnalysisReadyEmail(user models.User, documentName string) error {
	emailData := models.EmailData{
		UserName:     user.FullName,
		Email:        user.Email,
		DocumentName: documentName,
		LoginURL:     os.Getenv("APP_LOGIN_URL"),
		SupportEmail: os.Getenv("SUPPORT_EMAIL"),
	}

	return es.SendTemplatedEmail("analysis_ready", emailData, nil)
}
