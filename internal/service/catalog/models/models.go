package models

import (
	"github.com/m04kA/SMC-VenueBookingService/internal/domain"
	"github.com/m04kA/SMC-VenueBookingService/pkg/types"
)

// Request модели

// UpdateVenueConfigRequest запрос на обновление конфигурации площадки.
// Секции опциональны: обновляются только переданные.
type UpdateVenueConfigRequest struct {
	ServiceID   int64                     `json:"serviceId"`
	SlotConfigs []UpdateSlotConfigSection `json:"slotConfigs,omitempty"`
	Policy      *CancellationPolicyModel  `json:"cancellationPolicy,omitempty"`
}

// UpdateSlotConfigSection обновление расписания одного ресурса
type UpdateSlotConfigSection struct {
	ResourceID      int64            `json:"resourceId"`
	OpenTime        string           `json:"openTime"`  // "08:00"
	CloseTime       string           `json:"closeTime"` // "23:00"
	DurationMinutes int              `json:"durationMinutes"`
	BasePrice       float64          `json:"basePrice"`
	PriceRules      []PriceRuleModel `json:"priceRules"` // полная замена
}

// PriceRuleModel правило ценообразования в API представлении
type PriceRuleModel struct {
	DayType           string   `json:"dayType"` // WEEKDAY | WEEKEND | HOLIDAY | ALL
	StartTime         string   `json:"startTime"`
	EndTime           string   `json:"endTime"`
	BasePriceOverride *float64 `json:"basePriceOverride,omitempty"`
	ExtraCharge       float64  `json:"extraCharge"`
	Priority          int      `json:"priority"`
	Reason            string   `json:"reason,omitempty"`
	Enabled           bool     `json:"enabled"`
}

// CancellationPolicyModel политика отмены в API представлении
type CancellationPolicyModel struct {
	CancellationEnabled    bool              `json:"cancellationEnabled"`
	MinCancellationMinutes int               `json:"minCancellationMinutes"`
	AllowPastCancellation  bool              `json:"allowPastCancellation"`
	Rules                  []RefundRuleModel `json:"refundRules"`
}

// RefundRuleModel правило возврата в API представлении
type RefundRuleModel struct {
	MinMinutesBefore int `json:"minMinutesBefore"`
	RefundPercent    int `json:"refundPercent"`
}

// Response модели

// VenueConfigResponse полная конфигурация площадки
type VenueConfigResponse struct {
	ServiceID int64                    `json:"serviceId"`
	Resources []ResourceConfigModel    `json:"resources"`
	Policy    *CancellationPolicyModel `json:"cancellationPolicy,omitempty"`
}

// ResourceConfigModel ресурс с расписанием и правилами цен
type ResourceConfigModel struct {
	ResourceID      int64            `json:"resourceId"`
	Name            string           `json:"name"`
	PricingType     string           `json:"pricingType"`
	MaxHeadcount    *int             `json:"maxHeadcount,omitempty"`
	Activities      []string         `json:"activities"`
	Enabled         bool             `json:"enabled"`
	OpenTime        string           `json:"openTime,omitempty"`
	CloseTime       string           `json:"closeTime,omitempty"`
	DurationMinutes int              `json:"durationMinutes,omitempty"`
	BasePrice       float64          `json:"basePrice,omitempty"`
	PriceRules      []PriceRuleModel `json:"priceRules,omitempty"`
}

// ToDomainSlotConfig конвертирует секцию запроса в domain конфигурацию
func (s *UpdateSlotConfigSection) ToDomainSlotConfig() (*domain.SlotConfig, error) {
	open, err := types.NewTimeStringFromString(s.OpenTime)
	if err != nil {
		return nil, err
	}
	closeT, err := types.NewTimeStringFromString(s.CloseTime)
	if err != nil {
		return nil, err
	}

	cfg := &domain.SlotConfig{
		ResourceID:      s.ResourceID,
		OpenTime:        open,
		CloseTime:       closeT,
		DurationMinutes: s.DurationMinutes,
		BasePrice:       s.BasePrice,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToDomainPriceRules конвертирует правила цен секции в domain представление
func (s *UpdateSlotConfigSection) ToDomainPriceRules() ([]*domain.PriceRule, error) {
	out := make([]*domain.PriceRule, 0, len(s.PriceRules))
	for _, m := range s.PriceRules {
		dayType, err := domain.ToDayType(m.DayType)
		if err != nil {
			return nil, err
		}
		start, err := types.NewTimeStringFromString(m.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := types.NewTimeStringFromString(m.EndTime)
		if err != nil {
			return nil, err
		}
		out = append(out, &domain.PriceRule{
			DayType:           dayType,
			StartTime:         start,
			EndTime:           end,
			BasePriceOverride: m.BasePriceOverride,
			ExtraCharge:       m.ExtraCharge,
			Priority:          m.Priority,
			Reason:            m.Reason,
			Enabled:           m.Enabled,
		})
	}
	return out, nil
}

// ToDomainPolicy конвертирует политику отмены в domain представление
func (m *CancellationPolicyModel) ToDomainPolicy(serviceID int64) *domain.CancellationPolicy {
	rules := make([]domain.RefundRule, 0, len(m.Rules))
	for _, r := range m.Rules {
		rules = append(rules, domain.RefundRule{
			MinMinutesBefore: r.MinMinutesBefore,
			RefundPercent:    r.RefundPercent,
		})
	}
	return &domain.CancellationPolicy{
		ServiceID:              serviceID,
		CancellationEnabled:    m.CancellationEnabled,
		MinCancellationMinutes: m.MinCancellationMinutes,
		AllowPastCancellation:  m.AllowPastCancellation,
		Rules:                  rules,
	}
}

// FromDomainPolicy конвертирует domain политику в API представление
func FromDomainPolicy(p *domain.CancellationPolicy) *CancellationPolicyModel {
	rules := make([]RefundRuleModel, 0, len(p.Rules))
	for _, r := range p.Rules {
		rules = append(rules, RefundRuleModel{
			MinMinutesBefore: r.MinMinutesBefore,
			RefundPercent:    r.RefundPercent,
		})
	}
	return &CancellationPolicyModel{
		CancellationEnabled:    p.CancellationEnabled,
		MinCancellationMinutes: p.MinCancellationMinutes,
		AllowPastCancellation:  p.AllowPastCancellation,
		Rules:                  rules,
	}
}

// FromDomainPriceRule конвертирует domain правило в API представление
func FromDomainPriceRule(r *domain.PriceRule) PriceRuleModel {
	return PriceRuleModel{
		DayType:           string(r.DayType),
		StartTime:         r.StartTime.String(),
		EndTime:           r.EndTime.String(),
		BasePriceOverride: r.BasePriceOverride,
		ExtraCharge:       r.ExtraCharge,
		Priority:          r.Priority,
		Reason:            r.Reason,
		Enabled:           r.Enabled,
	}
}
