package api

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/fatura-extractor/internal/keywords"
	"github.com/insightdelivered/fatura-extractor/internal/models"
	"github.com/insightdelivered/fatura-extractor/internal/money"
	"github.com/insightdelivered/fatura-extractor/internal/pipeline"
	"github.com/insightdelivered/fatura-extractor/internal/report"
)

// PageBreak separates pages in pre-extracted text sent by the browser.
const PageBreak = "\n---PAGE_BREAK---\n"

// ReportFilename is the download name of every generated workbook.
const ReportFilename = "resultado_fatura.xlsx"

// ExtractResponse is the JSON response from the /api/extract endpoint.
type ExtractResponse struct {
	Success           bool                `json:"success"`
	Error             string              `json:"error,omitempty"`
	ReportID          string              `json:"reportId,omitempty"`
	Records           []models.LineRecord `json:"records"`
	Summary           *report.Summary     `json:"summary,omitempty"`
	Keywords          []string            `json:"keywords,omitempty"`
	Count             int                 `json:"count"`
	Pages             int                 `json:"pages"`
	TextPages         int                 `json:"textPages"`
	GrandTotalDisplay string              `json:"grandTotalDisplay,omitempty"`
	Version           string              `json:"version,omitempty"`
	Trace             []models.LineTrace  `json:"trace,omitempty"`
}

// KeywordsResponse is returned by the keyword endpoints.
type KeywordsResponse struct {
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
	Keywords []string `json:"keywords"`
}

type keywordRequest struct {
	Term string `json:"term" form:"term"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Pipeline  *pipeline.Pipeline
	Keywords  *keywords.Service
	ReportDir string
	Version   string
	Log       zerolog.Logger
}

// NewApp builds a fiber app with the API routes and middleware installed.
func NewApp(h *Handler, uploadLimitMB int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "fatura-extractor",
		BodyLimit:             uploadLimitMB << 20,
		DisableStartupMessage: true,
		ErrorHandler:          h.handleError,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	h.Register(app)
	return app
}

// Register sets up the HTTP routes.
func (h *Handler) Register(r fiber.Router) {
	api := r.Group("/api")
	api.Get("/health", h.handleHealth)
	api.Post("/extract", h.handleExtract)
	api.Get("/reports/:id", h.handleReport)
	api.Get("/keywords", h.handleListKeywords)
	api.Post("/keywords", h.handleAddKeyword)
	api.Delete("/keywords/:term", h.handleRemoveKeyword)
}

func (h *Handler) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": h.Version,
	})
}

func (h *Handler) handleExtract(c *fiber.Ctx) error {
	set, err := h.Keywords.List()
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("Failed to load keywords: %v", err))
	}
	opts := pipeline.Options{Keywords: set, Trace: c.FormValue("debug") == "true"}

	var res *pipeline.Result
	if extractedText := c.FormValue("extractedText"); strings.TrimSpace(extractedText) != "" {
		// Pre-extracted text from client-side pdf.js. Blank pages are kept so
		// page numbers match the document.
		res, err = h.Pipeline.ScanPages(strings.Split(extractedText, PageBreak), opts)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, err.Error())
		}
	} else {
		res, err = h.scanUpload(c, opts)
		if err != nil {
			return err
		}
	}

	id := uuid.New().String()
	if err := h.Pipeline.Write(res, pipeline.Output{XLSXPath: h.reportPath(id)}); err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("Report generation failed: %v", err))
	}

	return c.JSON(ExtractResponse{
		Success:           true,
		ReportID:          id,
		Records:           res.Records,
		Summary:           &res.Summary,
		Keywords:          res.Keywords,
		Count:             len(res.Records),
		Pages:             res.Pages,
		TextPages:         res.TextPages,
		GrandTotalDisplay: money.Format(res.Summary.GrandTotal),
		Version:           h.Version,
		Trace:             res.Trace,
	})
}

// scanUpload saves the uploaded PDF under a per-request name and scans it.
// Failures come back as *fiber.Error for the error handler to render.
func (h *Handler) scanUpload(c *fiber.Ctx, opts pipeline.Options) (*pipeline.Result, error) {
	header, err := c.FormFile("pdf")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "No file uploaded. Use form field 'pdf'.")
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Only PDF files are supported.")
	}

	uploadDir := filepath.Join(h.ReportDir, "uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to prepare upload directory.")
	}
	tmpPath := filepath.Join(uploadDir, uuid.New().String()+".pdf")
	if err := c.SaveFile(header, tmpPath); err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to save uploaded file.")
	}
	defer os.Remove(tmpPath)

	res, err := h.Pipeline.Scan(c.UserContext(), tmpPath, opts)
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, pipeline.ErrDocumentNotFound):
		return nil, fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		h.Log.Warn().Err(err).Str("file", header.Filename).Msg("extraction failed")
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %v", err))
	}
}

func (h *Handler) handleReport(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "Invalid report id.")
	}
	path := h.reportPath(id.String())
	if _, err := os.Stat(path); err != nil {
		return writeError(c, fiber.StatusNotFound, "Report not found.")
	}
	return c.Download(path, ReportFilename)
}

func (h *Handler) handleListKeywords(c *fiber.Ctx) error {
	set, err := h.Keywords.List()
	if err != nil {
		return writeKeywordsError(c, err)
	}
	return c.JSON(KeywordsResponse{Success: true, Keywords: nonNil(set)})
}

func (h *Handler) handleAddKeyword(c *fiber.Ctx) error {
	var req keywordRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "Invalid request body.")
	}
	set, err := h.Keywords.Add(req.Term)
	if err != nil {
		return writeKeywordsError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(KeywordsResponse{Success: true, Keywords: nonNil(set)})
}

func (h *Handler) handleRemoveKeyword(c *fiber.Ctx) error {
	term, err := url.PathUnescape(c.Params("term"))
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "Invalid term.")
	}
	set, err := h.Keywords.Remove(term)
	if err != nil {
		return writeKeywordsError(c, err)
	}
	return c.JSON(KeywordsResponse{Success: true, Keywords: nonNil(set)})
}

func (h *Handler) reportPath(id string) string {
	return filepath.Join(h.ReportDir, id+".xlsx")
}

// handleError renders errors that escape a handler, including recovered
// panics, in the same JSON shape as handled failures.
func (h *Handler) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	if status >= fiber.StatusInternalServerError {
		h.Log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return writeError(c, status, err.Error())
}

func writeKeywordsError(c *fiber.Ctx, err error) error {
	if errors.Is(err, keywords.ErrEmptyTerm) {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}
	return writeError(c, fiber.StatusInternalServerError, err.Error())
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ExtractResponse{
		Success: false,
		Error:   msg,
	})
}

func nonNil(s keywords.Set) []string {
	if s == nil {
		return []string{}
	}
	return s
}
