package get_venue_config

import (
	"context"

	"github.com/m04kA/SMC-VenueBookingService/internal/service/catalog/models"
)

type CatalogService interface {
	GetVenueConfig(ctx context.Context, serviceID int64) (*models.VenueConfigResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
