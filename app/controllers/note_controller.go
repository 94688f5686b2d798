package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/voxnote/voxnote/app/repository"
	"github.com/voxnote/voxnote/internal/pkg/export"
	"github.com/voxnote/voxnote/internal/pkg/mail"
	"github.com/voxnote/voxnote/internal/pkg/quota"
	"github.com/voxnote/voxnote/internal/pkg/summarize"
	"github.com/voxnote/voxnote/internal/pkg/usercontext"
)

type summarizeRequest struct {
	Transcript         string `json:"transcript"`
	CustomInstructions string `json:"custom_instructions"`
}

// HandleSummarize is the metered endpoint: rate limit, quota admission, LLM
// call, then usage recording. The counter only moves after the downstream
// call succeeded, so an upstream failure costs the user nothing.
func HandleSummarize(c *fiber.Ctx) error {
	ctx := usercontext.Get(c)
	if !ctx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}
	user := ctx.User

	allowed, err := requestLimiter.Allow(c.Context(), user.Email)
	if err == nil && !allowed {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate_limited", "message": "Rate limit exceeded: slow down and try again."})
	}

	if _, err := accountant.Check(user); err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "quota_exceeded", "message": "Quota exceeded for " + user.Plan + " plan."})
		}
		log.Printf("Quota check failed for %s: %v", user.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "quota check failed"})
	}

	var req summarizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid request body"})
	}

	prompt, err := summarize.BuildPrompt(req.Transcript, req.CustomInstructions, time.Now())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	log.Printf("Summarize request for %s (%d chars)", user.Email, len(req.Transcript))

	chat, err := summarizer.Chat(c.Context(), &summarize.ChatRequest{
		Messages: []summarize.ChatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		log.Printf("Summarization call failed for %s: %v", user.Email, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_failure", "message": "Summarization service failed"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if err := repo.RecordSummarizeCall(user.ID, len(req.Transcript), chat.Usage.TotalTokens); err != nil {
		log.Printf("Failed to record usage for %s: %v", user.Email, err)
	}

	outline := summarize.FixFlatLists(chat.GetMessageContent())

	return c.JSON(fiber.Map{"outline": outline})
}

type driveSaveRequest struct {
	NotesHTML          string `json:"notes_html"`
	Filename           string `json:"filename"`
	FolderID           string `json:"folder_id"`
	GoogleAccessToken  string `json:"google_access_token"`
	GoogleRefreshToken string `json:"google_refresh_token"`
}

// HandleSaveToDrive exports the note HTML to Google Drive and, when the
// client handed over a refresh token, persists it for later reuse.
func HandleSaveToDrive(c *fiber.Ctx) error {
	ctx := usercontext.Get(c)
	if !ctx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}
	user := ctx.User

	var req driveSaveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid request body"})
	}
	if req.GoogleAccessToken == "" || req.FolderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "missing access token or folder"})
	}

	if req.GoogleRefreshToken != "" {
		repo := repository.GetGlobalFactory().GetUserRepository()
		expiry := time.Now().UTC().Add(90 * 24 * time.Hour)
		if err := repo.UpsertExternalToken(user.ID, "google", req.GoogleRefreshToken, expiry); err != nil {
			log.Printf("Failed to persist refresh token for %s: %v", user.Email, err)
		}
	}

	filename := req.Filename
	if filename == "" {
		filename = "voxnote-" + uuid.NewString()[:8]
	}

	log.Printf("Drive export for %s into folder %s", user.Email, req.FolderID)

	saved, err := driveExporter.Save(c.Context(), req.GoogleAccessToken, req.NotesHTML, filename, req.FolderID)
	if err != nil {
		var exportErr *export.Error
		if errors.As(err, &exportErr) {
			return c.Status(exportErr.StatusCode).JSON(fiber.Map{"error": "export_failed", "message": exportErr.Message})
		}
		log.Printf("Drive export failed for %s: %v", user.Email, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_failure", "message": "document export failed"})
	}

	return c.JSON(fiber.Map{
		"file_id":   saved.FileID,
		"file_name": saved.FileName,
		"folder_id": saved.FolderID,
	})
}

type feedbackRequest struct {
	FeedbackText string `json:"feedback_text"`
}

// HandleFeedback stores user feedback. The moderator alert mail is a
// secondary side effect; its failure never fails the request.
func HandleFeedback(c *fiber.Ctx) error {
	ctx := usercontext.Get(c)
	if !ctx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}

	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid request body"})
	}

	payload, err := json.Marshal(fiber.Map{"text": req.FeedbackText})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid feedback"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.StoreFeedback(ctx.User.ID, payload); err != nil {
		log.Printf("Failed to store feedback for %s: %v", ctx.User.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "failed to store feedback"})
	}

	mail.SendFeedbackAlert(req.FeedbackText, ctx.User.Email)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Thanks for your feedback!"})
}
