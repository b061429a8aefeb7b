package httptransport

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
)

var validate = newValidator()

// newValidator называет поля в ошибках по json-тегам, как их видит клиент.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage превращает ошибки validator в сообщения по полям запроса.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "invalid request"
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", fe.Field()))
		case "gt":
			messages = append(messages, fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(messages, "; ")
}

// decodeMessage описывает ошибку разбора тела без имён Go-типов.
func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s has invalid type", typeErr.Field)
	}
	return "invalid request body"
}

// placeOrderRequest — тело POST /api/orders.
type placeOrderRequest struct {
	TableID  domain.TableID    `json:"table_id" validate:"gt=0"`
	ItemID   domain.MenuItemID `json:"item_id"  validate:"gt=0"`
	Quantity uint32            `json:"quantity" validate:"gt=0"`
}

func (r *placeOrderRequest) Validate() error {
	return validate.Struct(r)
}

// setQuantityRequest — тело POST /api/orders/{id}/setquantity. Ноль допустим и отменяет заказ.
type setQuantityRequest struct {
	Quantity *uint32 `json:"quantity" validate:"required"`
}

func (r *setQuantityRequest) Validate() error {
	return validate.Struct(r)
}

// OrderDetails — заказ в ответах API вместе с оценкой оставшегося времени.
type OrderDetails struct {
	ID                        domain.OrderID        `json:"id"`
	Table                     domain.TableRecord    `json:"table"`
	Item                      domain.MenuItemRecord `json:"item"`
	TimePlaced                time.Time             `json:"time_placed"`
	Quantity                  uint32                `json:"quantity"`
	EstimatedMinutesRemaining domain.Minutes        `json:"estimated_minutes_remaining"`
}

func toOrderDetails(record domain.OrderRecord, now time.Time) OrderDetails {
	return OrderDetails{
		ID:                        record.ID,
		Table:                     record.Item.Table,
		Item:                      record.Item.MenuItem,
		TimePlaced:                record.Item.PlacedAt,
		Quantity:                  record.Item.Quantity,
		EstimatedMinutesRemaining: record.Item.EstimatedMinutesRemaining(now),
	}
}

func toOrderDetailsList(records []domain.OrderRecord, now time.Time) []OrderDetails {
	details := make([]OrderDetails, 0, len(records))
	for _, record := range records {
		details = append(details, toOrderDetails(record, now))
	}
	return details
}

type errorResponse struct {
	Error string `json:"error"`
}
