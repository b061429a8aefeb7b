package domain_test

import (
	"math"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
)

// helper для заказа пасты (5 минут на порцию).
func makeOrder(quantity uint32, placedAt time.Time) domain.Order {
	return domain.Order{
		Table: domain.NewRecord(domain.TableID(1), domain.Table{}),
		MenuItem: domain.NewRecord(domain.MenuItemID(1), domain.MenuItem{
			Name:     "Pasta",
			CookTime: 5,
		}),
		Quantity: quantity,
		PlacedAt: placedAt,
	}
}

func TestOrderRemainingCookTime(t *testing.T) {
	placed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name        string
		quantity    uint32
		elapsed     time.Duration
		wantMinutes domain.Minutes
		wantRemain  time.Duration
	}{
		{
			name:        "just placed",
			quantity:    3,
			elapsed:     0,
			wantMinutes: 15,
			wantRemain:  15 * time.Minute,
		},
		{
			name:        "partially cooked",
			quantity:    3,
			elapsed:     4*time.Minute + 30*time.Second,
			wantMinutes: 10,
			wantRemain:  10*time.Minute + 30*time.Second,
		},
		{
			name:        "overdue is floored at zero",
			quantity:    1,
			elapsed:     time.Hour,
			wantMinutes: 0,
			wantRemain:  0,
		},
		{
			name:        "less than a minute left",
			quantity:    1,
			elapsed:     4*time.Minute + 59*time.Second,
			wantMinutes: 0,
			wantRemain:  time.Second,
		},
		{
			name:        "huge quantity saturates duration",
			quantity:    200_000_000,
			elapsed:     90 * time.Second,
			wantMinutes: 999_999_998,
			wantRemain:  time.Duration(math.MaxInt64) - 90*time.Second,
		},
		{
			name:        "minutes clamp to uint32",
			quantity:    4_000_000_000,
			elapsed:     0,
			wantMinutes: math.MaxUint32,
			wantRemain:  time.Duration(math.MaxInt64),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder(tc.quantity, placed)
			now := placed.Add(tc.elapsed)

			if got := order.RemainingCookTime(now); got != tc.wantRemain {
				t.Fatalf("RemainingCookTime() = %s, want %s", got, tc.wantRemain)
			}
			if got := order.EstimatedMinutesRemaining(now); got != tc.wantMinutes {
				t.Fatalf("EstimatedMinutesRemaining() = %d, want %d", got, tc.wantMinutes)
			}
		})
	}
}

func TestOrderTableID(t *testing.T) {
	order := makeOrder(1, time.Now())
	if order.TableID() != 1 {
		t.Fatalf("expected table 1, got %d", order.TableID())
	}
}

func TestNewOrderEvent(t *testing.T) {
	now := time.Now().UTC()
	record := domain.NewRecord(domain.OrderID(4), makeOrder(2, now))

	event := domain.NewOrderEvent(domain.OrderEventPlaced, record, now)

	if event.OrderID != 4 || event.TableID != 1 || event.MenuItemID != 1 {
		t.Fatalf("unexpected identifiers: %+v", event)
	}
	if event.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", event.Quantity)
	}
	if !event.Occurred.Equal(now) {
		t.Fatalf("unexpected occurred time: %s", event.Occurred)
	}
}
