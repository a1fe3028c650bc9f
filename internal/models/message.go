package models

// Статусы проверки входа, уходящие в канал уведомлений.
const (
	// StatusOKSubscription — вход разрешён по абонементу.
	StatusOKSubscription = "OK_SUBSCRIPTION"
	// StatusOKOneTimeEntry — вход разрешён по разовому билету.
	StatusOKOneTimeEntry = "OK_ONE_TIME_ENTRY"
	// StatusNoValidEntry — действующих оснований для входа нет.
	StatusNoValidEntry = "NO_VALID_ENTRY"
)

// EntryValidationResult результат решения движка проверки входа,
// возвращаемый турникету.
type EntryValidationResult struct {
	Allowed      bool   `json:"allowed"`                 // Разрешён ли вход
	ConsumedType string `json:"consumed_type,omitempty"` // Какое основание списано
}

// EntryStatusMessage сообщение для канала уведомлений о результате
// проверки входа. Поля ExpiryDate и RemainingEntries заполняются в
// зависимости от статуса. Доставка best-effort, подтверждений нет.
type EntryStatusMessage struct {
	UserID           int    `json:"user_id"`
	Firstname        string `json:"firstname"`
	Lastname         string `json:"lastname"`
	Status           string `json:"status"`
	RemainingEntries *int   `json:"remaining_entries,omitempty"` // Остаток разовых входов
	ExpiryDate       string `json:"expiry_date,omitempty"`       // Окончание абонемента, 2006-01-02
	Text             string `json:"text"`                        // Мотивационная фраза
}
