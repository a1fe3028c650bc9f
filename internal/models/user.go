// Package models содержит доменные структуры системы контроля доступа в зал:
// пользователей, карты, абонементы, разовые входы и журналы операций,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// User представляет члена клуба или синтетическую "гостевую" учётную запись.
//
// RealUser = false означает плейсхолдер, созданный для анонимной продажи
// разовых входов: физическая карта тогда работает как предъявительский
// носитель одного неиспользованного входа.
type User struct {
	ID        int       // Уникальный идентификатор пользователя
	Firstname string    // Имя
	Lastname  string    // Фамилия
	Email     string    // Электронная почта (уникальная)
	RealUser  bool      // Признак реального члена клуба
	CreatedAt time.Time // Дата создания записи
}

// Staff представляет сотрудника рецепции, имеющего доступ к
// административным операциям (продажа абонементов, привязка карт).
type Staff struct {
	ID           int    // Уникальный идентификатор сотрудника
	Username     string // Логин (уникальный)
	PasswordHash string // bcrypt-хэш пароля
	Role         string // Роль сотрудника, admin или reception
}

// DummyStaffLogin используется для приёма данных входа сотрудника.
type DummyStaffLogin struct {
	Username string `json:"username" validate:"required,alphanum"` // Логин
	Password string `json:"password" validate:"required"`          // Пароль
}
