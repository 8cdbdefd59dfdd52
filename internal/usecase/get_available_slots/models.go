package get_available_slots

import (
	"time"
)

// Config параметры бизнес-логики выдачи слотов
type Config struct {
	MinNoticeMinutes   int // минимальное предуведомление до начала слота
	AdvanceBookingDays int // горизонт бронирования; 0 = без ограничения
}

// Request модель запроса доступных слотов
type Request struct {
	ServiceID int64     // ID сервиса площадки
	Activity  string    // код активности ("football")
	Date      time.Time // дата без времени
}

// Slot одно временное окно с агрегированной доступностью по пулу ресурсов
type Slot struct {
	StartTime       string  `json:"startTime"` // "10:00"
	EndTime         string  `json:"endTime"`
	DurationMinutes int     `json:"durationMinutes"`
	AvailableCount  int     `json:"availableCount"`
	TotalCount      int     `json:"totalCount"`
	UnitPrice       float64 `json:"unitPrice"`
	PricingType     string  `json:"pricingType"`
	SlotToken       string  `json:"slotToken,omitempty"` // пусто для занятых окон
}

// Response модель ответа со слотами на дату
type Response struct {
	ServiceID int64  `json:"serviceId"`
	Activity  string `json:"activity"`
	Date      string `json:"date"`
	DayType   string `json:"dayType"`
	Slots     []Slot `json:"slots"`
}
