package models

import "time"

// Типы входа, фиксируемые в журнале посещений.
const (
	// EntryTypeSubscription — вход по абонементу.
	EntryTypeSubscription = "Subscription"
	// EntryTypeOneTimeEntry — вход по разовому билету.
	EntryTypeOneTimeEntry = "OneTimeEntry"
)

// EntryHistory представляет запись журнала посещений. Создаётся только
// движком проверки входа при успешном проходе, никогда не изменяется.
type EntryHistory struct {
	ID        int       // Уникальный идентификатор записи
	UserID    int       // Вошедший пользователь
	EntryDate time.Time // Момент прохода, ставится при создании
	EntryType string    // EntryTypeSubscription или EntryTypeOneTimeEntry
}

// TransactionHistory представляет запись биллингового журнала.
// Создаётся менеджером жизненного цикла абонементов и продажей разовых
// входов; в нормальной работе не обновляется и не удаляется.
type TransactionHistory struct {
	ID                 int       // Уникальный идентификатор записи
	UserID             int       // Плательщик
	TransactionDate    time.Time // Момент операции
	Amount             float64   // Сумма
	Description        string    // Человекочитаемое описание
	PurchaseType       string    // Вид покупки (Subscription или название разового входа)
	UserSubscriptionID *int      // Абонемент, породивший запись (опционально)
	UserOneTimeEntryID *int      // Разовый вход, породивший запись (опционально)
}
