package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/common"
	"github.com/joseph-ayodele/kyc-verifier/internal/core/extract"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
	"github.com/joseph-ayodele/kyc-verifier/internal/repository"
)

// ExtractionVerifier verifies an already extracted person and stores the
// result when it has a store.
type ExtractionVerifier interface {
	VerifyExtraction(ctx context.Context, personID string, ext entity.PersonExtraction) (entity.PersonResult, error)
}

type verifyRequest struct {
	PersonID   string                  `json:"person_id"`
	Extraction entity.PersonExtraction `json:"extraction"`
}

type verifyResponse struct {
	PersonID            string                                 `json:"person_id"`
	OverallStatus       constants.OverallStatus                `json:"overall_status"`
	VerificationResults map[constants.RuleID]entity.RuleResult `json:"verification_results"`
	ExtractedFields     int                                    `json:"extracted_fields"`
}

type getRequest struct {
	PersonID string `json:"person_id"`
}

type recordResponse struct {
	ID                  string                                 `json:"id"`
	PersonID            string                                 `json:"person_id"`
	OverallStatus       constants.OverallStatus                `json:"overall_status"`
	VerificationResults map[constants.RuleID]entity.RuleResult `json:"verification_results"`
	ExtractedFields     int                                    `json:"extracted_fields"`
	Extraction          entity.PersonExtraction                `json:"extraction"`
	CreatedAt           string                                 `json:"created_at"`
}

type VerificationService struct {
	verifier ExtractionVerifier
	repo     repository.VerificationRepository
	logger   *slog.Logger
}

// NewVerificationService accepts a nil repository; GetVerification then
// reports FailedPrecondition.
func NewVerificationService(verifier ExtractionVerifier, repo repository.VerificationRepository, logger *slog.Logger) *VerificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerificationService{verifier: verifier, repo: repo, logger: logger}
}

func (s *VerificationService) VerifyPerson(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req verifyRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, common.InvalidArgumentErrorf("decode request: %v", err)
	}
	req.PersonID = strings.TrimSpace(req.PersonID)
	if err := validatePersonID(req.PersonID); err != nil {
		return nil, err
	}
	v := common.NewValidator()
	for dt := range req.Extraction {
		v.Field("extraction", dt, common.KnownDocumentType)
	}
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	ctx = common.WithPersonID(ctx, req.PersonID)
	log := common.LoggerFromContext(ctx, s.logger)
	log.Info("server.verify.start", "documents", len(req.Extraction))

	ext := extract.PostProcessPerson(req.Extraction)
	res, err := s.verifier.VerifyExtraction(ctx, req.PersonID, ext)
	if err != nil {
		log.Error("server.verify.failed", "err", err)
		return nil, common.ToStatus(err)
	}
	log.Info("server.verify.done", "overall_status", res.OverallStatus)

	return toStruct(verifyResponse{
		PersonID:            res.PersonID,
		OverallStatus:       res.OverallStatus,
		VerificationResults: res.VerificationResults,
		ExtractedFields:     res.ExtractedData.Count(),
	})
}

func (s *VerificationService) GetVerification(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.repo == nil {
		return nil, status.Error(codes.FailedPrecondition, "no verification store configured")
	}
	var req getRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, common.InvalidArgumentErrorf("decode request: %v", err)
	}
	req.PersonID = strings.TrimSpace(req.PersonID)
	if err := validatePersonID(req.PersonID); err != nil {
		return nil, err
	}

	log := common.LoggerFromContext(common.WithPersonID(ctx, req.PersonID), s.logger)
	rec, err := s.repo.GetLatest(ctx, req.PersonID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			log.Info("server.get.not_found")
		} else {
			log.Error("server.get.failed", "err", err)
		}
		return nil, common.ToStatus(err)
	}

	return toStruct(recordResponse{
		ID:                  rec.ID.String(),
		PersonID:            rec.PersonID,
		OverallStatus:       rec.OverallStatus,
		VerificationResults: rec.Outcome.Rules,
		ExtractedFields:     rec.ExtractedFields,
		Extraction:          rec.Extraction,
		CreatedAt:           rec.CreatedAt.Format(time.RFC3339Nano),
	})
}

func validatePersonID(id string) error {
	v := common.NewValidator().Field("person_id", id, common.Required, common.PersonID, common.MaxLength(128))
	return common.ValidateAndReturnError(v)
}

// toStruct goes through JSON so payloads keep the same shape as results files.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, v any) error {
	if in == nil {
		return fmt.Errorf("empty request")
	}
	b, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
