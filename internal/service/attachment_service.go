package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"solicitudes/internal/attachment"
	"solicitudes/internal/model"
	"solicitudes/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type AttachmentResponse struct {
	ID             string `json:"id"`
	RequestID      string `json:"request_id"`
	FileName       string `json:"file_name"`
	StorageRef     string `json:"storage_ref"`
	MimeType       string `json:"mime_type,omitempty"`
	DeclaredAmount string `json:"declared_amount"`
	Selected       bool   `json:"selected"`
	CreatedAt      string `json:"created_at"`
}

// --- Interface ---

type AttachmentService interface {
	Upload(ctx context.Context, requestID uuid.UUID, uploadedBy uuid.UUID, fileName, mimeType, declaredAmount string, src io.Reader) (AttachmentResponse, error)
	Select(ctx context.Context, requestID, attachmentID uuid.UUID) error
	Delete(ctx context.Context, requestID, attachmentID uuid.UUID) error
	// ListForReview returns the attachments in review order: the selected
	// one first, then the rest ascending by declared amount.
	ListForReview(ctx context.Context, requestID uuid.UUID) ([]AttachmentResponse, error)
}

type attachmentService struct {
	attachmentRepo repository.AttachmentRepository
	requestRepo    repository.RequestRepository
	txManager      repository.TransactionManager
	storageDir     string
}

func NewAttachmentService(
	attachmentRepo repository.AttachmentRepository,
	requestRepo repository.RequestRepository,
	txManager repository.TransactionManager,
	storageDir string,
) AttachmentService {
	return &attachmentService{
		attachmentRepo: attachmentRepo,
		requestRepo:    requestRepo,
		txManager:      txManager,
		storageDir:     storageDir,
	}
}

// --- Implementation ---

func (s *attachmentService) loadSet(ctx context.Context, requestID uuid.UUID) (*attachment.Set, error) {
	if _, err := s.requestRepo.FindByID(ctx, requestID); err != nil {
		return nil, err
	}
	rows, err := s.attachmentRepo.FindByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attachments: %w", err)
	}

	items := make([]attachment.Item, 0, len(rows))
	for _, a := range rows {
		items = append(items, attachment.Item{
			ID:             a.ID,
			FileName:       a.FileName,
			MimeType:       a.MimeType,
			StorageRef:     a.StorageRef,
			DeclaredAmount: a.DeclaredAmount,
			Selected:       a.Selected,
			Position:       a.Position,
		})
	}
	return attachment.NewSet(items), nil
}

func (s *attachmentService) Upload(ctx context.Context, requestID uuid.UUID, uploadedBy uuid.UUID, fileName, mimeType, declaredAmount string, src io.Reader) (AttachmentResponse, error) {
	set, err := s.loadSet(ctx, requestID)
	if err != nil {
		return AttachmentResponse{}, err
	}

	amount := decimal.Zero
	if declaredAmount != "" {
		amount, err = decimal.NewFromString(declaredAmount)
		if err != nil {
			return AttachmentResponse{}, fmt.Errorf("invalid declared amount: %w", err)
		}
	}

	storageRef := uuid.NewString() + filepath.Ext(fileName)
	if err := s.store(storageRef, src); err != nil {
		return AttachmentResponse{}, fmt.Errorf("failed to store file: %w", err)
	}

	added := set.Add(attachment.Item{
		FileName:       fileName,
		MimeType:       mimeType,
		StorageRef:     storageRef,
		DeclaredAmount: amount,
	})

	row := model.Attachment{
		RequestID:      requestID,
		FileName:       fileName,
		StorageRef:     storageRef,
		MimeType:       mimeType,
		DeclaredAmount: amount,
		Selected:       added.Selected, // always false on add
		Position:       added.Position,
		UploadedBy:     &uploadedBy,
	}
	if err := s.attachmentRepo.Create(ctx, &row); err != nil {
		_ = os.Remove(filepath.Join(s.storageDir, storageRef))
		return AttachmentResponse{}, fmt.Errorf("failed to save attachment: %w", err)
	}

	return toAttachmentResponse(row), nil
}

// Select marks one attachment selected and clears the rest inside a single
// transaction, so no reader ever observes two selected attachments.
func (s *attachmentService) Select(ctx context.Context, requestID, attachmentID uuid.UUID) error {
	set, err := s.loadSet(ctx, requestID)
	if err != nil {
		return err
	}
	if err := set.Select(attachmentID); err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		selectedID := attachmentID
		return s.attachmentRepo.SetSelection(txCtx, requestID, &selectedID)
	})
}

// Delete removes an attachment. If it was the selected one, no attachment is
// selected afterward.
func (s *attachmentService) Delete(ctx context.Context, requestID, attachmentID uuid.UUID) error {
	set, err := s.loadSet(ctx, requestID)
	if err != nil {
		return err
	}

	row, err := s.attachmentRepo.FindByID(ctx, attachmentID)
	if err != nil {
		return err
	}
	if row.RequestID != requestID {
		return attachment.ErrNotFound
	}

	if err := set.Remove(attachmentID); err != nil {
		return err
	}

	if err := s.attachmentRepo.Delete(ctx, attachmentID); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	_ = os.Remove(filepath.Join(s.storageDir, row.StorageRef))
	return nil
}

func (s *attachmentService) ListForReview(ctx context.Context, requestID uuid.UUID) ([]AttachmentResponse, error) {
	set, err := s.loadSet(ctx, requestID)
	if err != nil {
		return nil, err
	}

	ordered := set.OrderedForReview()
	result := make([]AttachmentResponse, 0, len(ordered))
	for _, it := range ordered {
		result = append(result, AttachmentResponse{
			ID:             it.ID.String(),
			RequestID:      requestID.String(),
			FileName:       it.FileName,
			StorageRef:     it.StorageRef,
			MimeType:       it.MimeType,
			DeclaredAmount: it.DeclaredAmount.StringFixed(2),
			Selected:       it.Selected,
		})
	}
	return result, nil
}

func (s *attachmentService) store(storageRef string, src io.Reader) error {
	if err := os.MkdirAll(s.storageDir, 0o755); err != nil {
		return err
	}
	dst, err := os.Create(filepath.Join(s.storageDir, storageRef))
	if err != nil {
		return err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return nil
}

func toAttachmentResponse(a model.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:             a.ID.String(),
		RequestID:      a.RequestID.String(),
		FileName:       a.FileName,
		StorageRef:     a.StorageRef,
		MimeType:       a.MimeType,
		DeclaredAmount: a.DeclaredAmount.StringFixed(2),
		Selected:       a.Selected,
		CreatedAt:      a.CreatedAt.Format(time.RFC3339),
	}
}
