package service

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// loadProgram fetches a program and checks the caller is staff of its organization.
func loadProgram(ctx context.Context, repo repository.ProgramRepository, caller domain.Caller, programID primitive.ObjectID) (*domain.Program, error) {
	if !caller.IsStaff() {
		return nil, ErrForbidden
	}
	program, err := repo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, fmt.Errorf("loading program %s: %w", programID.Hex(), err)
	}
	if !caller.CanAccessOrganization(program.OrganizationID) {
		return nil, ErrForbidden
	}
	return program, nil
}

// loadCohort fetches a cohort and checks the caller is staff of its organization.
func loadCohort(ctx context.Context, repo repository.CohortRepository, caller domain.Caller, cohortID primitive.ObjectID) (*domain.ProgramCohort, error) {
	if !caller.IsStaff() {
		return nil, ErrForbidden
	}
	cohort, err := repo.GetByID(ctx, cohortID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCohortNotFound
		}
		return nil, fmt.Errorf("loading cohort %s: %w", cohortID.Hex(), err)
	}
	if !caller.CanAccessOrganization(cohort.OrganizationID) {
		return nil, ErrForbidden
	}
	return cohort, nil
}
