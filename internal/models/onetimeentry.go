package models

import "time"

// OneTimeEntry представляет каталожную позицию разового входа.
// Справочные данные.
type OneTimeEntry struct {
	ID        int     // Уникальный идентификатор позиции
	EntryName string  // Название (Single entry, Sauna и т.п.)
	Price     float64 // Стандартная цена
}

// UserOneTimeEntry представляет купленный разовый вход.
//
// Инвариант: IsUsed после перехода в true никогда не откатывается,
// на каждое списание создаётся ровно одна запись EntryHistory.
type UserOneTimeEntry struct {
	ID             int       // Уникальный идентификатор записи
	UserID         int       // Владелец входа
	OneTimeEntryID int       // Каталожная позиция
	PurchaseDate   time.Time // Дата покупки
	IsUsed         bool      // Признак использованного входа
	CustomPrice    *float64  // Ручная цена, nil — цена из каталога
}

// DummyPurchase используется для приёма запроса на покупку разовых
// входов для зарегистрированного пользователя.
type DummyPurchase struct {
	UserID         int      `json:"user_id" validate:"required"`           // Пользователь
	OneTimeEntryID int      `json:"one_time_entry_id" validate:"required"` // Каталожная позиция
	Count          int      `json:"count,omitempty" validate:"omitempty,gt=0"`
	CustomPrice    *float64 `json:"custom_price,omitempty"` // Ручная цена
}

// DummyGuestPurchase используется для приёма запроса на анонимную
// покупку: карта выступает предъявительским носителем входа.
type DummyGuestPurchase struct {
	CardNumber     string   `json:"card_number" validate:"required,alphanum"` // Предъявленная карта
	OneTimeEntryID int      `json:"one_time_entry_id" validate:"required"`    // Каталожная позиция
	Count          int      `json:"count,omitempty" validate:"omitempty,gt=0"`
	CustomPrice    *float64 `json:"custom_price,omitempty"` // Ручная цена
}
