package export

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Error is a provider failure mapped to something safe to show a user.
// Provider detail goes to the logs, not into Message.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("drive export failed (%d): %s", e.StatusCode, e.Message)
}

// SavedFile describes the created document.
type SavedFile struct {
	FileID   string
	FileName string
	FolderID string
}

// DriveExporter uploads note HTML into Google Drive as Google Docs.
type DriveExporter struct {
	// newService is swappable for tests.
	newService func(ctx context.Context, accessToken string) (*drive.Service, error)
}

func NewDriveExporter() *DriveExporter {
	return &DriveExporter{
		newService: func(ctx context.Context, accessToken string) (*drive.Service, error) {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
			return drive.NewService(ctx, option.WithTokenSource(ts))
		},
	}
}

// Save sanitizes the HTML blob and creates a Google Doc in the given folder.
func (d *DriveExporter) Save(ctx context.Context, accessToken string, notesHTML, filename, folderID string) (*SavedFile, error) {
	svc, err := d.newService(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to build drive client: %w", err)
	}

	clean := SanitizeNoteHTML(notesHTML)

	// Drop the extension; Drive converts the HTML into a Doc.
	name := filename
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}

	meta := &drive.File{
		Name:     name,
		MimeType: "application/vnd.google-apps.document",
		Parents:  []string{folderID},
	}

	file, err := svc.Files.Create(meta).
		Media(strings.NewReader(clean), googleapi.ContentType("text/html")).
		Fields("id", "name").
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapDriveError(err)
	}

	return &SavedFile{FileID: file.Id, FileName: file.Name, FolderID: folderID}, nil
}

// mapDriveError turns provider errors into user-facing ones without leaking
// internal detail.
func mapDriveError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return &Error{StatusCode: http.StatusBadGateway, Message: "document export failed"}
	}

	switch gerr.Code {
	case http.StatusUnauthorized:
		return &Error{StatusCode: http.StatusUnauthorized, Message: "Google authorization expired, please reconnect"}
	case http.StatusForbidden:
		return &Error{StatusCode: http.StatusForbidden, Message: "Google Drive denied the request (permission or quota)"}
	case http.StatusNotFound:
		return &Error{StatusCode: http.StatusNotFound, Message: "destination folder not found"}
	default:
		return &Error{StatusCode: gerr.Code, Message: "document export failed"}
	}
}
