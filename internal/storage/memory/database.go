package memory

import (
	"fmt"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
)

// Seed — начальные данные, с которыми стартует Database.
type Seed struct {
	Tables    []domain.TableRecord
	MenuItems []domain.MenuItemRecord
	Orders    []domain.OrderRecord
}

// Database держит по одному Store на каждый тип сущности.
// Общей блокировки нет: каждая операция берёт блокировку ровно одного хранилища.
type Database struct {
	tables *Store[domain.TableID, domain.Table]
	menu   *Store[domain.MenuItemID, domain.MenuItem]
	orders *Store[domain.OrderID, domain.Order]
}

// NewDatabase создаёт базу и загружает начальные данные с сохранением идентификаторов.
func NewDatabase(seed Seed) (*Database, error) {
	tables, err := NewRepository(domain.KindTable, seed.Tables)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	menu, err := NewRepository(domain.KindMenuItem, seed.MenuItems)
	if err != nil {
		return nil, fmt.Errorf("load menu: %w", err)
	}
	orders, err := NewRepository(domain.KindOrder, seed.Orders)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	return &Database{
		tables: NewStore(tables),
		menu:   NewStore(menu),
		orders: NewStore(orders),
	}, nil
}

func (d *Database) Tables() domain.TableRepository {
	return d.tables
}

func (d *Database) MenuItems() domain.MenuItemRepository {
	return d.menu
}

func (d *Database) Orders() domain.OrderRepository {
	return d.orders
}

// OrdersForTable возвращает заказы стола; пустой срез, если их нет.
func (d *Database) OrdersForTable(tableID domain.TableID) ([]domain.OrderRecord, error) {
	return d.orders.Filter(byTable(tableID)), nil
}

// RemoveOrdersForTable удаляет заказы стола под одной блокировкой записи и возвращает удалённые записи.
func (d *Database) RemoveOrdersForTable(tableID domain.TableID) ([]domain.OrderRecord, error) {
	return d.orders.RemoveFunc(byTable(tableID)), nil
}

func byTable(tableID domain.TableID) func(domain.OrderRecord) bool {
	return func(o domain.OrderRecord) bool {
		return o.Item.TableID() == tableID
	}
}

// Stats — размеры хранилищ для health-проверок и метрик.
type Stats struct {
	Tables    int
	MenuItems int
	Orders    int
}

// Stats снимает размеры хранилищ, блокируя каждое по очереди.
func (d *Database) Stats() Stats {
	return Stats{
		Tables:    d.tables.Len(),
		MenuItems: d.menu.Len(),
		Orders:    d.orders.Len(),
	}
}

var (
	_ domain.OrderRepository = (*Store[domain.OrderID, domain.Order])(nil)
	_ domain.Database        = (*Database)(nil)
)
