package services

import (
	"context"

	"research-cms-server/internal/models"
	"research-cms-server/internal/repo"
)

type ResearcherService struct {
	researchers *repo.ResearcherRepo
}

func NewResearcherService(researchers *repo.ResearcherRepo) *ResearcherService {
	return &ResearcherService{researchers: researchers}
}

func (s *ResearcherService) Create(ctx context.Context, res *models.Researcher) (*models.Researcher, error) {
	return s.researchers.Create(ctx, res)
}

func (s *ResearcherService) List(ctx context.Context, filters repo.ResearcherFilters) ([]models.Researcher, int64, error) {
	return s.researchers.List(ctx, filters)
}

func (s *ResearcherService) GetByID(ctx context.Context, id int64) (*models.Researcher, error) {
	return s.researchers.GetByID(ctx, id)
}

func (s *ResearcherService) Update(ctx context.Context, res *models.Researcher) (*models.Researcher, error) {
	return s.researchers.Update(ctx, res)
}

func (s *ResearcherService) Delete(ctx context.Context, id int64) (bool, error) {
	return s.researchers.Delete(ctx, id)
}
