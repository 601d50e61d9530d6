package brief

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"briefforge/api/internal/graph"
	"briefforge/api/internal/store"
	"briefforge/api/internal/util"
)

// Committer records an assembled brief in the project's export
// history and returns the commit hash.
type Committer interface {
	CommitBrief(ctx context.Context, projectID string, payload []byte, message string) (string, error)
}

// Uploader stores the PDF artifact and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// Recorder persists the export audit row.
type Recorder interface {
	InsertBriefExport(ctx context.Context, export store.BriefExport) error
}

// Service runs the full export pipeline: assemble, render, PDF,
// history commit, artifact upload, audit row. History and the PDF are
// required; the artifact upload is best-effort.
type Service struct {
	repo     Committer
	uploader Uploader
	recorder Recorder
	logger   *log.Logger

	renderPDF func(html string) ([]byte, error)
	now       func() time.Time
}

func NewService(repo Committer, uploader Uploader, recorder Recorder, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		repo:      repo,
		uploader:  uploader,
		recorder:  recorder,
		logger:    logger,
		renderPDF: RenderPDF,
		now:       time.Now,
	}
}

// ExportResult is everything one export produced.
type ExportResult struct {
	Document    Document
	PDF         []byte
	PDFFilename string
	CommitHash  string
	ArtifactURL string
}

// Export assembles and exports the given snapshot. The uploader being
// absent or failing downgrades the result to an empty artifact URL;
// everything else is fatal.
func (s *Service) Export(ctx context.Context, g *graph.Graph, projectName, actor string) (ExportResult, error) {
	doc := Assemble(g, projectName, s.now().UTC())

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return ExportResult{}, fmt.Errorf("encode brief: %w", err)
	}

	html, err := RenderHTML(doc)
	if err != nil {
		return ExportResult{}, fmt.Errorf("render brief html: %w", err)
	}

	pdf, err := s.renderPDF(html)
	if err != nil {
		return ExportResult{}, fmt.Errorf("render brief pdf: %w", err)
	}

	message := fmt.Sprintf("Export brief for %s", projectName)
	if actor != "" {
		message = fmt.Sprintf("%s by %s", message, actor)
	}
	hash, err := s.repo.CommitBrief(ctx, g.ProjectID, payload, message)
	if err != nil {
		return ExportResult{}, fmt.Errorf("commit brief: %w", err)
	}

	result := ExportResult{
		Document:    doc,
		PDF:         pdf,
		PDFFilename: Filename(projectName),
		CommitHash:  hash,
	}

	if s.uploader != nil {
		objectName := fmt.Sprintf("%s/%s-%s.pdf", g.ProjectID, hash, s.now().UTC().Format("20060102T150405Z"))
		url, err := s.uploader.Upload(ctx, objectName, pdf, "application/pdf")
		if err != nil {
			s.logger.Printf("brief artifact upload failed project=%s err=%v", g.ProjectID, err)
		} else {
			result.ArtifactURL = url
		}
	}

	if s.recorder != nil {
		record := store.BriefExport{
			ID:          util.NewID("exp"),
			ProjectID:   g.ProjectID,
			CommitHash:  hash,
			ArtifactURL: result.ArtifactURL,
			ExportedBy:  actor,
		}
		if err := s.recorder.InsertBriefExport(ctx, record); err != nil {
			return ExportResult{}, fmt.Errorf("record brief export: %w", err)
		}
	}

	return result, nil
}
