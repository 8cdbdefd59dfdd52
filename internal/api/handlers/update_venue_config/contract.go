package update_venue_config

import (
	"context"

	"github.com/m04kA/SMC-VenueBookingService/internal/service/catalog/models"
)

type CatalogService interface {
	UpdateVenueConfig(ctx context.Context, req *models.UpdateVenueConfigRequest) (*models.VenueConfigResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
