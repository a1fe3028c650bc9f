package models

// Card представляет физическую карту доступа.
//
// Номер карты уникален. Карта привязана не более чем к одному
// пользователю; владение хранится в UserID (nil — карта свободна).
type Card struct {
	ID         int    // Уникальный идентификатор карты
	CardNumber string // Номер карты (уникальный)
	Lost       bool   // Признак утерянной карты
	CardType   string // Тип карты (chip, bracelet и т.п.)
	UserID     *int   // Владелец карты, nil если не привязана
}

// Статусы карты, возвращаемые турникету при поиске по номеру.
const (
	// CardStatusNotRegistered — карта отсутствует в системе.
	CardStatusNotRegistered = "NOT_REGISTERED"
	// CardStatusUnassigned — карта заведена, но не привязана к пользователю.
	CardStatusUnassigned = "UNASSIGNED"
	// CardStatusAssigned — карта привязана к пользователю.
	CardStatusAssigned = "ASSIGNED"
)

// CardResolution результат трёхзначного поиска карты по номеру:
// турникет по статусу решает, предложить регистрацию, привязку
// или сразу перейти к проверке входа.
type CardResolution struct {
	Status string `json:"status"`
	UserID *int   `json:"user_id,omitempty"`
}

// DummyAssignCard используется для приёма запроса привязки карты.
type DummyAssignCard struct {
	UserID     int    `json:"user_id" validate:"required"`               // Пользователь
	CardNumber string `json:"card_number" validate:"required,alphanum"` // Номер карты
}

// DummyUnassignCard используется для приёма запроса отвязки карты.
type DummyUnassignCard struct {
	UserID int `json:"user_id" validate:"required"` // Пользователь
}
