package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sicali-client/internal/models"
	"github.com/noah-isme/sicali-client/internal/normalize"
	"github.com/noah-isme/sicali-client/pkg/validation"
)

// TutorInput is a user payload with an optional student association.
type TutorInput struct {
	UserInput
	IDEstudiante int64 `json:"idEstudiante,omitempty"`
}

// TutorService manages guardians, stored as users with role tutor.
type TutorService struct {
	client    transport
	validator *validation.Validator
	logger    *zap.Logger
}

// NewTutorService constructs TutorService.
func NewTutorService(client transport, validate *validation.Validator, logger *zap.Logger) *TutorService {
	validate, logger = defaults(validate, logger)
	return &TutorService{client: client, validator: validate, logger: logger}
}

// GetAll lists users with role tutor.
func (s *TutorService) GetAll(ctx context.Context) ([]models.Tutor, error) {
	return fetchList(ctx, s.client, usersPath+"/rol/"+models.RoleTutor, normalize.Tutor, "usuarios")
}

// GetByID returns one tutor.
func (s *TutorService) GetByID(ctx context.Context, id int64) (*models.Tutor, error) {
	return fetchOne(ctx, s.client, fmt.Sprintf("%s/%d", usersPath, id), normalize.Tutor)
}

// Create submits an active tutor regardless of the role and status given.
func (s *TutorService) Create(ctx context.Context, in TutorInput) (*models.Tutor, error) {
	in.UserInput = in.UserInput.sanitized()
	in.IDUsuario = 0
	in.Rol = models.RoleTutor
	in.Estado = models.StatusActive
	if res := s.Validate(in); !res.IsValid {
		return nil, validationFailed(res.Errors)
	}
	s.logger.Debug("creating tutor", zap.String("usuario", in.Usuario), zap.Int64("idEstudiante", in.IDEstudiante))
	res, err := s.client.Post(ctx, usersPath, in)
	return send(res, err, normalize.Tutor)
}

// Update submits the tutor fields as given.
func (s *TutorService) Update(ctx context.Context, id int64, in TutorInput) (*models.Tutor, error) {
	in.UserInput = in.UserInput.sanitized()
	in.IDUsuario = id
	res, err := s.client.Put(ctx, fmt.Sprintf("%s/%d", usersPath, id), in)
	return send(res, err, normalize.Tutor)
}

// Delete removes a tutor.
func (s *TutorService) Delete(ctx context.Context, id int64) (bool, error) {
	return remove(ctx, s.client, fmt.Sprintf("%s/%d", usersPath, id))
}

// Validate applies the user rules with the role fixed to tutor.
func (s *TutorService) Validate(in TutorInput) validation.Result {
	in.Rol = models.RoleTutor
	users := &UserService{validator: s.validator, logger: s.logger}
	return users.Validate(in.UserInput)
}
