package service

import (
	"context"
	"errors"

	"teahouse/internal/model"
	"teahouse/pkg/apierror"
)

const teaNotFoundMessage = "Tea not found"

type TeaService struct {
	store TeaStore
}

func NewTeaService(store TeaStore) *TeaService {
	return &TeaService{store: store}
}

func (s *TeaService) Create(ctx context.Context, input model.TeaInput) (model.Tea, error) {
	if err := validateStruct("Invalid tea payload", input); err != nil {
		return model.Tea{}, err
	}
	return s.store.Create(ctx, input)
}

func (s *TeaService) List(ctx context.Context) ([]model.Tea, error) {
	teas, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if teas == nil {
		teas = []model.Tea{}
	}
	return teas, nil
}

func (s *TeaService) Get(ctx context.Context, id int) (model.Tea, error) {
	tea, err := s.store.FindByID(ctx, id)
	return tea, mapTeaError(err)
}

func (s *TeaService) Update(ctx context.Context, id int, input model.TeaInput) (model.Tea, error) {
	if err := validateStruct("Invalid tea payload", input); err != nil {
		return model.Tea{}, err
	}
	tea, err := s.store.Update(ctx, id, input)
	return tea, mapTeaError(err)
}

func (s *TeaService) Delete(ctx context.Context, id int) (model.Tea, error) {
	tea, err := s.store.Delete(ctx, id)
	return tea, mapTeaError(err)
}

func mapTeaError(err error) error {
	if errors.Is(err, model.ErrTeaNotFound) {
		return apierror.NotFound(teaNotFoundMessage)
	}
	return err
}
