package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/clinic"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/serial"
	"go.uber.org/zap"
)

const dropdownLimit = 30

type ClinicService struct {
	repo      clinic.Repository
	stockRepo clinic.StockRepository
	log       *zap.Logger
}

func NewClinicService(repo clinic.Repository, stockRepo clinic.StockRepository, log *zap.Logger) *ClinicService {
	return &ClinicService{repo: repo, stockRepo: stockRepo, log: log}
}

func (s *ClinicService) CreateClinic(ctx context.Context, name, address string) (*clinic.Clinic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Fields: []string{"clinic_name is required"}}
	}

	existing, err := s.repo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing clinic ids: %w", err)
	}

	now := timeNow()
	c := &clinic.Clinic{
		ClinicID:      serial.Next(existing, clinic.IDPrefix),
		ClinicName:    name,
		ClinicAddress: strings.TrimSpace(address),
		Stocks:        []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.log.Info("clinic created", zap.String("clinic_id", c.ClinicID), zap.String("name", name))
	return c, nil
}

func (s *ClinicService) GetClinic(ctx context.Context, clinicID string) (*clinic.Clinic, error) {
	return s.repo.GetByClinicID(ctx, clinicID)
}

func (s *ClinicService) ListClinics(ctx context.Context) ([]*clinic.Clinic, error) {
	return s.repo.List(ctx)
}

// SearchClinics backs the clinic dropdown with the loose character
// matching used everywhere else.
func (s *ClinicService) SearchClinics(ctx context.Context, query string) ([]*clinic.Clinic, error) {
	return s.repo.SearchByName(ctx, query, dropdownLimit)
}

func (s *ClinicService) DeleteClinic(ctx context.Context, clinicID string) error {
	c, err := s.repo.GetByClinicID(ctx, clinicID)
	if err != nil {
		return err
	}

	// Owned stock documents go with the clinic.
	for _, stockID := range c.Stocks {
		if err := s.stockRepo.Delete(ctx, stockID); err != nil && err != clinic.ErrStockNotFound {
			return fmt.Errorf("deleting owned stock %s: %w", stockID, err)
		}
	}

	return s.repo.Delete(ctx, clinicID)
}

type StockCommand struct {
	StockProductName string `json:"stockProductName"`
	StockQuantity    int    `json:"stockQuantity"`
	ClinicID         string `json:"clinicId"`
}

// CreateStock allocates a stockId#### and attaches the reference to the
// owning clinic.
func (s *ClinicService) CreateStock(ctx context.Context, cmd *StockCommand) (*clinic.Stock, error) {
	if strings.TrimSpace(cmd.StockProductName) == "" {
		return nil, &ValidationError{Fields: []string{"stockProductName is required"}}
	}
	if cmd.StockQuantity < 0 {
		return nil, clinic.ErrInvalidStockAmount
	}

	c, err := s.repo.GetByClinicID(ctx, cmd.ClinicID)
	if err != nil {
		return nil, err
	}

	existing, err := s.stockRepo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing stock ids: %w", err)
	}

	now := timeNow()
	st := &clinic.Stock{
		StockID:          serial.Next(existing, clinic.StockIDPrefix),
		StockProductName: strings.TrimSpace(cmd.StockProductName),
		StockQuantity:    cmd.StockQuantity,
		ClinicID:         c.ClinicID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.stockRepo.Create(ctx, st); err != nil {
		return nil, err
	}

	c.Stocks = append(c.Stocks, st.StockID)
	c.UpdatedAt = now
	if err := s.repo.Replace(ctx, c); err != nil {
		return nil, err
	}

	return st, nil
}

func (s *ClinicService) ListStocks(ctx context.Context, clinicID string) ([]*clinic.Stock, error) {
	return s.stockRepo.ListByClinic(ctx, clinicID)
}

// UpdateStockQuantity sets the absolute quantity; negative targets are
// rejected.
func (s *ClinicService) UpdateStockQuantity(ctx context.Context, stockID string, quantity int) (*clinic.Stock, error) {
	if quantity < 0 {
		return nil, clinic.ErrInvalidStockAmount
	}

	st, err := s.stockRepo.GetByStockID(ctx, stockID)
	if err != nil {
		return nil, err
	}

	st.StockQuantity = quantity
	st.UpdatedAt = timeNow()
	if err := s.stockRepo.Replace(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// DeleteStock removes the stock document and detaches it from its clinic.
func (s *ClinicService) DeleteStock(ctx context.Context, stockID string) error {
	st, err := s.stockRepo.GetByStockID(ctx, stockID)
	if err != nil {
		return err
	}

	if err := s.stockRepo.Delete(ctx, stockID); err != nil {
		return err
	}

	c, err := s.repo.GetByClinicID(ctx, st.ClinicID)
	if err != nil {
		// Stock already gone; a missing owner is not fatal.
		return nil
	}
	for i, id := range c.Stocks {
		if id == stockID {
			c.Stocks = append(c.Stocks[:i], c.Stocks[i+1:]...)
			c.UpdatedAt = timeNow()
			return s.repo.Replace(ctx, c)
		}
	}
	return nil
}
