package drive

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	MimeGoogleDoc = "application/vnd.google-apps.document"
	MimeDocx      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimePlainText = "text/plain"
)

// File is one listed Drive document.
type File struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mime_type"`
	ModifiedTime time.Time `json:"modified_time"`
}

// Client reads job descriptions and resumes out of the user's Drive.
type Client struct {
	svc *drive.Service
}

// New creates a Drive client bound to the given access token.
func New(ctx context.Context, accessToken string) (*Client, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := drive.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ListDocuments lists importable documents, optionally filtered by a name
// substring, newest first.
func (c *Client) ListDocuments(ctx context.Context, nameContains string) ([]File, error) {
	q := fmt.Sprintf("(mimeType = '%s' or mimeType = '%s' or mimeType = '%s') and trashed = false",
		MimeGoogleDoc, MimeDocx, MimePlainText)
	if nameContains != "" {
		q += fmt.Sprintf(" and name contains '%s'", escapeQuery(nameContains))
	}

	var files []File
	pageToken := ""
	for {
		call := c.svc.Files.List().
			Q(q).
			Fields("nextPageToken, files(id, name, mimeType, modifiedTime)").
			OrderBy("modifiedTime desc").
			PageSize(100).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}
		for _, f := range resp.Files {
			modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)
			files = append(files, File{
				ID:           f.Id,
				Name:         f.Name,
				MimeType:     f.MimeType,
				ModifiedTime: modified,
			})
		}
		if resp.NextPageToken == "" {
			return files, nil
		}
		pageToken = resp.NextPageToken
	}
}

// FetchText returns a document's content as plain text. Google Docs are
// exported; .docx bytes come back raw with isDocx set so the caller can run
// them through the docx extractor.
func (c *Client) FetchText(ctx context.Context, fileID string) (data []byte, isDocx bool, err error) {
	meta, err := c.svc.Files.Get(fileID).Fields("id, mimeType").Context(ctx).Do()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get file %s: %w", fileID, err)
	}

	switch meta.MimeType {
	case MimeGoogleDoc:
		resp, err := c.svc.Files.Export(fileID, MimePlainText).Context(ctx).Download()
		if err != nil {
			return nil, false, fmt.Errorf("failed to export file %s: %w", fileID, err)
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read export: %w", err)
		}
		return data, false, nil

	case MimeDocx, MimePlainText:
		resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
		if err != nil {
			return nil, false, fmt.Errorf("failed to download file %s: %w", fileID, err)
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read download: %w", err)
		}
		return data, meta.MimeType == MimeDocx, nil

	default:
		return nil, false, fmt.Errorf("unsupported mime type %s", meta.MimeType)
	}
}

// escapeQuery escapes single quotes for Drive query strings.
func escapeQuery(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\'' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
