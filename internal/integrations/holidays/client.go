package holidays

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client клиент для работы с сервисом производственного календаря
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента календаря
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// IsHoliday проверяет, является ли дата официальным праздником
func (c *Client) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	url := fmt.Sprintf("%s/api/v1/calendar/%s", c.baseURL, date.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: failed to execute request: %v", ErrServiceDegraded, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusNotFound:
		// Дата вне диапазона календаря — считаем обычным днём
		return false, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var info dayInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return false, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return info.IsHoliday, nil
}

// IsHolidayWithGracefulDegradation проверяет праздник с деградацией.
// При недоступности календаря возвращает false без ошибки: тип дня
// определяется по дню недели, расписание продолжает работать.
func (c *Client) IsHolidayWithGracefulDegradation(ctx context.Context, date time.Time) bool {
	isHoliday, err := c.IsHoliday(ctx, date)
	if err != nil {
		c.log.Warn("holidays: degraded to weekday-only day type for %s: %v", date.Format("2006-01-02"), err)
		return false
	}
	return isHoliday
}
