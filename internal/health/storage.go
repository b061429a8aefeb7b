package health

import (
	"context"
	"time"

	"github.com/vladislavdragonenkov/restaurant/internal/storage/memory"
)

// StatsSource отдаёт размеры хранилищ.
type StatsSource interface {
	Stats() memory.Stats
}

// StorageChecker считает хранилище готовым, когда загружены столы и меню.
// Заказов может не быть.
type StorageChecker struct {
	source StatsSource
}

func NewStorageChecker(source StatsSource) *StorageChecker {
	return &StorageChecker{source: source}
}

func (c *StorageChecker) Check(context.Context) Check {
	started := time.Now()
	stats := c.source.Stats()

	check := Check{
		Name:   "storage",
		Status: StatusHealthy,
		Details: map[string]int{
			"tables":     stats.Tables,
			"menu_items": stats.MenuItems,
			"orders":     stats.Orders,
		},
	}
	switch {
	case stats.Tables == 0 && stats.MenuItems == 0:
		check.Status = StatusUnhealthy
		check.Message = "no tables and no menu items loaded"
	case stats.Tables == 0:
		check.Status = StatusUnhealthy
		check.Message = "no tables loaded"
	case stats.MenuItems == 0:
		check.Status = StatusUnhealthy
		check.Message = "no menu items loaded"
	}
	check.DurationMs = time.Since(started).Milliseconds()
	return check
}
