package handlers

import (
	"backend/repository"
	"backend/services"
	"bytes"
	"database/sql"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ExportComparisonPDFHandler renders a group's scored comparison as a PDF.
// @Summary Export comparison as PDF
// @Tags Exports
// @Produce application/pdf
// @Param group_id path string true "Group ID"
// @Success 200
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /api/budget_groups/{group_id}/comparison/pdf [get]
func ExportComparisonPDFHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		group, err := repository.FetchBudgetGroup(db, c.Param("group_id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Budget group not found"})
			return
		}
		if group.UserID != session.UserID && !isAdmin(db, session.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Group belongs to another user"})
			return
		}

		result := services.CompareQuotes(*group)
		if result == nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Group is not comparable"})
			return
		}

		titleCaser := cases.Title(language.BrazilianPortuguese)

		// Create PDF
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetMargins(10, 10, 10)

		// Header band
		pdf.SetFont("Arial", "B", 24)
		pdf.SetFillColor(240, 240, 240)
		pdf.Rect(10, 10, 190, 15, "F")
		pdf.SetXY(10, 12)
		pdf.Cell(190, 10, "Quote Comparison")
		pdf.Ln(20)

		pdf.SetFont("Arial", "", 11)
		pdf.Cell(40, 7, "Group:")
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(100, 7, titleCaser.String(group.Title))
		pdf.Ln(7)

		pdf.SetFont("Arial", "", 11)
		pdf.Cell(40, 7, "Generated on:")
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(100, 7, result.GeneratedAt.Format("2006-01-02 15:04:05"))
		pdf.Ln(7)

		pdf.SetFont("Arial", "", 11)
		pdf.Cell(40, 7, "Generated by:")
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(100, 7, userName)
		pdf.Ln(7)

		pdf.SetFont("Arial", "", 11)
		pdf.Cell(40, 7, "Recommended:")
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(100, 7, result.RecommendedProvider)
		pdf.Ln(12)

		// Ranking table header (shaded)
		pdf.SetFillColor(230, 230, 230)
		pdf.SetFont("Arial", "B", 10)
		pdf.Rect(10, pdf.GetY(), 190, 8, "F")
		pdf.Cell(10, 8, "#")
		pdf.Cell(45, 8, "Provider")
		pdf.Cell(28, 8, "Total (R$)")
		pdf.Cell(22, 8, "Price")
		pdf.Cell(22, 8, "Warranty")
		pdf.Cell(22, 8, "Delivery")
		pdf.Cell(22, 8, "Reputation")
		pdf.Cell(19, 8, "Score")
		pdf.Ln(8)

		pdf.SetFont("Arial", "", 9)
		for i, sq := range result.Quotes {
			pdf.Cell(10, 6, strconv.Itoa(i+1))
			pdf.Cell(45, 6, sq.Provider)
			pdf.Cell(28, 6, fmt.Sprintf("%.2f", sq.TotalAmount))
			pdf.Cell(22, 6, fmt.Sprintf("%.1f", sq.Scores.Price))
			pdf.Cell(22, 6, fmt.Sprintf("%.1f", sq.Scores.Warranty))
			pdf.Cell(22, 6, fmt.Sprintf("%.1f", sq.Scores.Delivery))
			pdf.Cell(22, 6, fmt.Sprintf("%.1f", sq.Scores.Reputation))
			pdf.Cell(19, 6, fmt.Sprintf("%.1f", sq.Scores.Total))
			pdf.Ln(6)
		}
		pdf.Ln(6)

		// Risk factors per provider, if any
		hasRisks := false
		for _, sq := range result.Quotes {
			if len(sq.RiskFactors) > 0 {
				hasRisks = true
				break
			}
		}
		if hasRisks {
			pdf.SetFont("Arial", "B", 12)
			pdf.Cell(190, 8, "Risk Factors")
			pdf.Ln(8)
			pdf.SetFont("Arial", "", 9)
			for _, sq := range result.Quotes {
				if len(sq.RiskFactors) == 0 {
					continue
				}
				pdf.Cell(45, 6, sq.Provider)
				pdf.MultiCell(145, 6, strings.Join(sq.RiskFactors, "; "), "", "", false)
			}
		}

		pdf.SetY(-20)
		pdf.SetFont("Arial", "I", 8)
		pdf.Cell(190, 6, fmt.Sprintf("Page: %d", pdf.PageNo()))

		var buf bytes.Buffer
		if err := pdf.Output(&buf); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF", "details": err.Error()})
			return
		}

		c.Header("Content-Type", "application/pdf")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=comparison_%s.pdf", group.GroupID))
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())

		logActivity(db, session, userName, "Export", "PDF Export",
			fmt.Sprintf("Generated comparison PDF for group %s with %d quotes", group.Title, len(result.Quotes)), "", "")
	}
}

// ExportQuotesExcelHandler writes a group's quotes and scores to an Excel
// workbook with a summary sheet and a quotes sheet.
// @Summary Export quotes as Excel
// @Tags Exports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param group_id path string true "Group ID"
// @Success 200
// @Failure 404 {object} models.ErrorResponse
// @Router /api/budget_groups/{group_id}/quotes/excel [get]
func ExportQuotesExcelHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		group, err := repository.FetchBudgetGroup(db, c.Param("group_id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Budget group not found"})
			return
		}
		if group.UserID != session.UserID && !isAdmin(db, session.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Group belongs to another user"})
			return
		}

		quotes := group.Quotes
		result := services.CompareQuotes(*group)

		f := excelize.NewFile()
		defer f.Close()

		summarySheet := "Summary"
		f.SetSheetName("Sheet1", summarySheet)
		f.SetCellValue(summarySheet, "A1", "Quote Export Summary")
		f.SetCellValue(summarySheet, "A2", "Group ID")
		f.SetCellValue(summarySheet, "B2", group.GroupID)
		f.SetCellValue(summarySheet, "A3", "Title")
		f.SetCellValue(summarySheet, "B3", group.Title)
		f.SetCellValue(summarySheet, "A4", "Category")
		f.SetCellValue(summarySheet, "B4", group.Category)
		f.SetCellValue(summarySheet, "A5", "Total Quotes")
		f.SetCellValue(summarySheet, "B5", len(quotes))
		f.SetCellValue(summarySheet, "A6", "Exported At")
		f.SetCellValue(summarySheet, "B6", time.Now().Format("2006-01-02 15:04:05"))
		if result != nil {
			f.SetCellValue(summarySheet, "A7", "Recommended Provider")
			f.SetCellValue(summarySheet, "B7", result.RecommendedProvider)
		}

		quoteSheet := "Quotes"
		f.NewSheet(quoteSheet)
		headers := []string{"ID", "Provider", "Total Amount", "Warranty (months)", "Delivery (days)",
			"ReclameAqui Score", "Product Rating", "Risk Factors", "Total Score"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(quoteSheet, cell, h)
		}

		// Scored and ranked when comparable, raw order otherwise.
		if result != nil {
			for row, sq := range result.Quotes {
				values := []interface{}{sq.ID, sq.Provider, sq.TotalAmount, sq.WarrantyMonths, sq.DeliveryTime,
					sq.ReclameAquiScore, sq.ProductRating, strings.Join(sq.RiskFactors, "; "), sq.Scores.Total}
				for col, v := range values {
					cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
					f.SetCellValue(quoteSheet, cell, v)
				}
			}
		} else {
			for row, q := range quotes {
				values := []interface{}{q.ID, q.Provider, q.TotalAmount, q.WarrantyMonths, q.DeliveryTime,
					q.ReclameAquiScore, q.ProductRating, strings.Join(q.RiskFactors, "; "), ""}
				for col, v := range values {
					cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
					f.SetCellValue(quoteSheet, cell, v)
				}
			}
		}

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=quotes_%s.xlsx", group.GroupID))
		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file", "details": err.Error()})
			return
		}

		logActivity(db, session, userName, "Export", "Excel Export",
			fmt.Sprintf("Exported %d quotes of group %s to Excel", len(quotes), group.Title), "", "")
	}
}

// ExportQuotesCSVHandler streams a group's quotes as CSV.
// @Summary Export quotes as CSV
// @Tags Exports
// @Produce text/csv
// @Param group_id path string true "Group ID"
// @Success 200
// @Failure 404 {object} models.ErrorResponse
// @Router /api/budget_groups/{group_id}/quotes/csv [get]
func ExportQuotesCSVHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		group, err := repository.FetchBudgetGroup(db, c.Param("group_id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Budget group not found"})
			return
		}
		if group.UserID != session.UserID && !isAdmin(db, session.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Group belongs to another user"})
			return
		}

		quotes := group.Quotes

		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment;filename=quotes_%s.csv", group.GroupID))

		w := csv.NewWriter(c.Writer)
		_ = w.Write([]string{"id", "provider", "total_amount", "warranty_months", "delivery_time",
			"reclame_aqui_score", "product_rating", "risk_factors"})
		for _, q := range quotes {
			_ = w.Write([]string{
				strconv.Itoa(q.ID),
				q.Provider,
				strconv.FormatFloat(q.TotalAmount, 'f', 2, 64),
				strconv.Itoa(q.WarrantyMonths),
				strconv.Itoa(q.DeliveryTime),
				strconv.FormatFloat(q.ReclameAquiScore, 'f', 1, 64),
				strconv.FormatFloat(q.ProductRating, 'f', 1, 64),
				strings.Join(q.RiskFactors, "; "),
			})
		}
		w.Flush()

		logActivity(db, session, userName, "Export", "CSV Export",
			fmt.Sprintf("Exported %d quotes of group %s to CSV", len(quotes), group.Title), "", "")
	}
}
