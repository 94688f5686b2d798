package controllers

import (
	"context"
	"time"

	"github.com/voxnote/voxnote/internal/pkg/codes"
	"github.com/voxnote/voxnote/internal/pkg/export"
	"github.com/voxnote/voxnote/internal/pkg/quota"
	"github.com/voxnote/voxnote/internal/pkg/ratelimit"
	"github.com/voxnote/voxnote/internal/pkg/summarize"
)

// CodeIssuer is what the controllers need from the one-time-code component.
type CodeIssuer interface {
	Issue(email string, userID uint, purpose codes.Purpose, ttl time.Duration) (string, error)
	Redeem(email, code string, purpose codes.Purpose) (uint, bool, error)
}

// SummarizeClient is the LLM collaborator surface used by HandleSummarize.
type SummarizeClient interface {
	Chat(ctx context.Context, req *summarize.ChatRequest) (*summarize.ChatResponse, error)
}

// DriveExporter is the document-store collaborator used by HandleSaveToDrive.
type DriveExporter interface {
	Save(ctx context.Context, accessToken, notesHTML, filename, folderID string) (*export.SavedFile, error)
}

// Shared controller dependencies, wired once by the router during install.
var (
	codeIssuer     CodeIssuer
	accountant     *quota.Accountant
	summarizer     SummarizeClient
	driveExporter  DriveExporter
	requestLimiter *ratelimit.Limiter
)

// Initialize wires the controller dependencies. The router calls this once
// during install; tests call it with fakes.
func Initialize(issuer CodeIssuer, acc *quota.Accountant, sum SummarizeClient, exp DriveExporter, limiter *ratelimit.Limiter) {
	codeIssuer = issuer
	accountant = acc
	summarizer = sum
	driveExporter = exp
	requestLimiter = limiter
}
