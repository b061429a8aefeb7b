package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound возвращается репозиторием, если идентификатор не является живым.
	ErrNotFound = errors.New("entity not found")
	// ErrReferenceNotFound — заказ ссылается на несуществующий стол и/или позицию меню.
	ErrReferenceNotFound = errors.New("referenced entity not found")
	// ErrTableNotFound — не найден стол, на который ссылается заказ.
	ErrTableNotFound = errors.New("table not found")
	// ErrMenuItemNotFound — не найдена позиция меню, на которую ссылается заказ.
	ErrMenuItemNotFound = errors.New("menu item not found")
	// ErrOrderNotFound — заказ не существует или уже удалён.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidQuantity — заказ нельзя разместить с нулевым количеством.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrInvalidID — нулевой идентификатор в начальных данных.
	ErrInvalidID = errors.New("identifier must be greater than zero")
	// ErrDuplicateID — повтор идентификатора в начальных данных.
	ErrDuplicateID = errors.New("duplicate identifier")
)

// EntityKind называет тип сущности в сообщениях об ошибках.
type EntityKind string

const (
	KindTable    EntityKind = "table"
	KindMenuItem EntityKind = "menu item"
	KindOrder    EntityKind = "order"
)

// NotFoundError — ошибка уровня репозитория: сущности с таким идентификатором нет.
type NotFoundError struct {
	Kind EntityKind
	ID   uint32
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%d' not found", e.Kind, e.ID)
}

// Is позволяет сравнивать через errors.Is(err, ErrNotFound).
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ReferenceNotFoundError сообщает, какая из ссылок заказа не разрешилась.
// Если не найдены обе, выставлены оба флага.
type ReferenceNotFoundError struct {
	TableID         TableID
	MenuItemID      MenuItemID
	TableMissing    bool
	MenuItemMissing bool
}

func (e *ReferenceNotFoundError) Error() string {
	switch {
	case e.TableMissing && e.MenuItemMissing:
		return fmt.Sprintf("table '%d' and menu item '%d' not found", e.TableID, e.MenuItemID)
	case e.TableMissing:
		return fmt.Sprintf("table '%d' not found", e.TableID)
	default:
		return fmt.Sprintf("menu item '%d' not found", e.MenuItemID)
	}
}

func (e *ReferenceNotFoundError) Is(target error) bool {
	switch target {
	case ErrReferenceNotFound:
		return true
	case ErrTableNotFound:
		return e.TableMissing
	case ErrMenuItemNotFound:
		return e.MenuItemMissing
	default:
		return false
	}
}

// OrderNotFoundError — ошибка уровня жизненного цикла заказа.
type OrderNotFoundError struct {
	ID    OrderID
	Cause error
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("unable to find order '%d'", e.ID)
}

func (e *OrderNotFoundError) Is(target error) bool {
	return target == ErrOrderNotFound
}

func (e *OrderNotFoundError) Unwrap() error {
	return e.Cause
}

// IsNotFound проверяет, что ошибка означает отсутствие сущности на любом уровне.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrOrderNotFound)
}

// IsBadReference проверяет, что размещение заказа отклонено из-за ссылок.
func IsBadReference(err error) bool {
	return errors.Is(err, ErrReferenceNotFound)
}
