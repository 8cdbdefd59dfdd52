package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
	catalogRepo "github.com/m04kA/SMC-VenueBookingService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-VenueBookingService/internal/service/catalog/models"
)

// Service сервис для работы с конфигурацией площадки
type Service struct {
	catalogRepo CatalogRepository
	txManager   TransactionManager
	logger      Logger
}

// NewService создает новый экземпляр сервиса конфигурации
func NewService(catalogRepo CatalogRepository, txManager TransactionManager, logger Logger) *Service {
	return &Service{
		catalogRepo: catalogRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// GetVenueConfig возвращает полную конфигурацию площадки: ресурсы,
// расписания, правила цен и политику отмены
func (s *Service) GetVenueConfig(ctx context.Context, serviceID int64) (*models.VenueConfigResponse, error) {
	s.logger.Info("GetVenueConfig: fetching config for service=%d", serviceID)

	resources, err := s.catalogRepo.ListServiceResources(ctx, serviceID)
	if err != nil {
		s.logger.Error("GetVenueConfig: list resources for service=%d: %v", serviceID, err)
		return nil, fmt.Errorf("%w: GetVenueConfig - list resources: %v", ErrInternal, err)
	}
	if len(resources) == 0 {
		return nil, ErrResourceNotFound
	}

	resourceIDs := make([]int64, 0, len(resources))
	for _, r := range resources {
		resourceIDs = append(resourceIDs, r.ID)
	}

	configs, err := s.catalogRepo.GetSlotConfigs(ctx, resourceIDs)
	if err != nil {
		s.logger.Error("GetVenueConfig: fetch slot configs for service=%d: %v", serviceID, err)
		return nil, fmt.Errorf("%w: GetVenueConfig - fetch slot configs: %v", ErrInternal, err)
	}

	configIDs := make([]int64, 0, len(configs))
	for _, cfg := range configs {
		configIDs = append(configIDs, cfg.ID)
	}
	rules, err := s.catalogRepo.GetPriceRules(ctx, configIDs)
	if err != nil {
		s.logger.Error("GetVenueConfig: fetch price rules for service=%d: %v", serviceID, err)
		return nil, fmt.Errorf("%w: GetVenueConfig - fetch price rules: %v", ErrInternal, err)
	}

	resp := &models.VenueConfigResponse{ServiceID: serviceID}
	for _, r := range resources {
		model := models.ResourceConfigModel{
			ResourceID:   r.ID,
			Name:         r.Name,
			PricingType:  string(r.PricingType),
			MaxHeadcount: r.MaxHeadcount,
			Activities:   r.Activities,
			Enabled:      r.Enabled,
		}
		if cfg, ok := configs[r.ID]; ok {
			model.OpenTime = cfg.OpenTime.String()
			model.CloseTime = cfg.CloseTime.String()
			model.DurationMinutes = cfg.DurationMinutes
			model.BasePrice = cfg.BasePrice
			for _, rule := range rules[cfg.ID] {
				model.PriceRules = append(model.PriceRules, models.FromDomainPriceRule(rule))
			}
		}
		resp.Resources = append(resp.Resources, model)
	}

	policy, err := s.catalogRepo.GetCancellationPolicy(ctx, serviceID)
	if err != nil && !errors.Is(err, catalogRepo.ErrPolicyNotFound) {
		s.logger.Error("GetVenueConfig: fetch policy for service=%d: %v", serviceID, err)
		return nil, fmt.Errorf("%w: GetVenueConfig - fetch policy: %v", ErrInternal, err)
	}
	if policy != nil {
		resp.Policy = models.FromDomainPolicy(policy)
	}

	return resp, nil
}

// UpdateVenueConfig обновляет конфигурацию площадки. Изменения расписания
// и политики применяются в одной транзакции: частично применённая
// конфигурация хуже старой. Существующие бронирования не пересчитываются.
func (s *Service) UpdateVenueConfig(ctx context.Context, req *models.UpdateVenueConfigRequest) (*models.VenueConfigResponse, error) {
	s.logger.Info("UpdateVenueConfig: updating config for service=%d", req.ServiceID)

	type preparedSection struct {
		cfg   *domain.SlotConfig
		rules []*domain.PriceRule
	}

	// Валидируем всё до открытия транзакции
	sections := make([]preparedSection, 0, len(req.SlotConfigs))
	for _, section := range req.SlotConfigs {
		cfg, err := section.ToDomainSlotConfig()
		if err != nil {
			s.logger.Warn("UpdateVenueConfig: invalid slot config for resource=%d: %v", section.ResourceID, err)
			return nil, fmt.Errorf("%w: resource %d: %v", ErrInvalidInput, section.ResourceID, err)
		}
		rules, err := section.ToDomainPriceRules()
		if err != nil {
			s.logger.Warn("UpdateVenueConfig: invalid price rules for resource=%d: %v", section.ResourceID, err)
			return nil, fmt.Errorf("%w: resource %d: %v", ErrInvalidInput, section.ResourceID, err)
		}
		sections = append(sections, preparedSection{cfg: cfg, rules: rules})
	}

	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		for _, section := range sections {
			resource, err := s.catalogRepo.GetResource(ctx, section.cfg.ResourceID)
			if err != nil {
				if errors.Is(err, catalogRepo.ErrResourceNotFound) {
					return ErrResourceNotFound
				}
				return fmt.Errorf("%w: UpdateVenueConfig - fetch resource: %v", ErrInternal, err)
			}
			if resource.ServiceID != req.ServiceID {
				return ErrResourceNotFound
			}

			if err := s.catalogRepo.UpdateSlotConfig(ctx, section.cfg); err != nil {
				return fmt.Errorf("%w: UpdateVenueConfig - update slot config: %v", ErrInternal, err)
			}

			configs, err := s.catalogRepo.GetSlotConfigs(ctx, []int64{section.cfg.ResourceID})
			if err != nil {
				return fmt.Errorf("%w: UpdateVenueConfig - reload slot config: %v", ErrInternal, err)
			}
			cfg, ok := configs[section.cfg.ResourceID]
			if !ok {
				return ErrConfigNotFound
			}

			if err := s.catalogRepo.ReplacePriceRules(ctx, cfg.ID, section.rules); err != nil {
				return fmt.Errorf("%w: UpdateVenueConfig - replace price rules: %v", ErrInternal, err)
			}
		}

		if req.Policy != nil {
			if err := s.validatePolicy(req.Policy); err != nil {
				return err
			}
			if err := s.catalogRepo.UpsertCancellationPolicy(ctx, req.Policy.ToDomainPolicy(req.ServiceID)); err != nil {
				return fmt.Errorf("%w: UpdateVenueConfig - upsert policy: %v", ErrInternal, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("UpdateVenueConfig: successfully updated config for service=%d", req.ServiceID)
	return s.GetVenueConfig(ctx, req.ServiceID)
}

// validatePolicy проверяет инварианты политики отмены
func (s *Service) validatePolicy(p *models.CancellationPolicyModel) error {
	if p.MinCancellationMinutes < 0 {
		return fmt.Errorf("%w: minCancellationMinutes must be non-negative", ErrInvalidInput)
	}
	for _, rule := range p.Rules {
		if rule.MinMinutesBefore < 0 {
			return fmt.Errorf("%w: minMinutesBefore must be non-negative", ErrInvalidInput)
		}
		if rule.RefundPercent < 0 || rule.RefundPercent > 100 {
			return fmt.Errorf("%w: refundPercent must be within [0, 100]", ErrInvalidInput)
		}
	}
	return nil
}
