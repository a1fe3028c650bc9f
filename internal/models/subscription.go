package models

import "time"

// Plan представляет каталожный тариф абонемента. Справочные данные,
// не изменяются бизнес-логикой.
//
// IsCustom помечает специальный тариф, для которого при продаже
// обязательны ручные срок действия и цена.
type Plan struct {
	ID             int     // Уникальный идентификатор тарифа
	PlanType       string  // Название тарифа (Monthly, Quarterly и т.п.)
	DurationMonths int     // Длительность в месяцах
	Price          float64 // Стандартная цена
	IsCustom       bool    // Тариф с ручным сроком и ценой
}

// UserSubscription представляет абонемент конкретного пользователя.
//
// Даты календарные, без компонента времени. Инвариант: у пользователя
// в любой момент не более одного абонемента с IsActive = true и
// неистёкшим EndDate; менеджер жизненного цикла обеспечивает это,
// деактивируя устаревшие активные записи перед созданием новой.
type UserSubscription struct {
	ID        int       // Уникальный идентификатор записи
	UserID    int       // Владелец
	PlanID    int       // Каталожный тариф
	StartDate time.Time // Дата начала действия
	EndDate   time.Time // Дата окончания действия
	IsActive  bool      // Признак активного абонемента
}

// DummySubscription используется для приёма данных о продаже или
// продлении абонемента из JSON-запроса. Даты приходят строками в
// формате 02-01-2006 и парсятся вручную.
type DummySubscription struct {
	UserID        int      `json:"user_id" validate:"required"` // Пользователь
	PlanID        int      `json:"plan_id" validate:"required"` // Тариф
	CustomEndDate string   `json:"custom_end_date,omitempty"`   // Ручная дата окончания, только для custom-тарифа
	CustomPrice   *float64 `json:"custom_price,omitempty"`      // Ручная цена, только для custom-тарифа
}
