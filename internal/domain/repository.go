package domain

// Repository описывает CRUD над коллекцией сущностей одного типа.
// Любое чтение возвращает независимую копию записи.
type Repository[I ID, T any] interface {
	// GetAll возвращает копию всего содержимого в порядке вставки.
	GetAll() ([]Record[I, T], error)
	// Get возвращает запись или NotFoundError.
	Get(id I) (Record[I, T], error)
	// Create выделяет новый идентификатор и сохраняет копию значения.
	Create(item T) (Record[I, T], error)
	// Update заменяет значение по живому идентификатору.
	Update(id I, item T) (Record[I, T], error)
	// Remove удаляет запись; идентификатор больше никогда не станет живым.
	Remove(id I) (Record[I, T], error)
}

type (
	TableRepository    = Repository[TableID, Table]
	MenuItemRepository = Repository[MenuItemID, MenuItem]
	OrderRepository    = Repository[OrderID, Order]
)

// Database объединяет репозитории столов, меню и заказов.
// Запросы по столу доступны только здесь: стол связывает заказы между собой.
type Database interface {
	Tables() TableRepository
	MenuItems() MenuItemRepository
	Orders() OrderRepository
	// OrdersForTable возвращает заказы стола; пустой срез — нормальный результат.
	OrdersForTable(tableID TableID) ([]OrderRecord, error)
	// RemoveOrdersForTable атомарно читает и удаляет все заказы стола.
	RemoveOrdersForTable(tableID TableID) ([]OrderRecord, error)
}
