// Package dates содержит календарную арифметику движка доступа.
//
// Все бизнес-даты системы календарные, без компонента времени, поэтому
// сравнения выполняются по усечённым до полуночи UTC значениям.
//
// Границы сравнения намеренно различаются: для прохода через турникет
// абонемент, истекающий сегодня, ещё действует (UsableForEntryOn),
// а для продления такой абонемент уже считается истёкшим и продажа
// идёт по "свежей" ветке (ExtendableOn). Обе границы вынесены в
// именованные функции, чтобы решение об их унификации было правкой
// одной строки.
package dates

import "time"

// Layout формат календарной даты во входящих запросах.
const Layout = "02-01-2006"

// Truncate усекает момент времени до календарной даты (полночь UTC).
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today возвращает сегодняшнюю календарную дату.
func Today() time.Time {
	return Truncate(time.Now().UTC())
}

// UsableForEntryOn сообщает, действует ли абонемент с данной датой
// окончания в день day: endDate >= day, включая сам день окончания.
func UsableForEntryOn(endDate, day time.Time) bool {
	return !Truncate(endDate).Before(Truncate(day))
}

// ExtendableOn сообщает, продлевается ли абонемент с данной датой
// окончания в день day: строго endDate > day. Абонемент, истекающий
// сегодня, для продления уже истёк.
func ExtendableOn(endDate, day time.Time) bool {
	return Truncate(endDate).After(Truncate(day))
}

// AddMonths прибавляет к календарной дате заданное число месяцев.
func AddMonths(d time.Time, months int) time.Time {
	return Truncate(d).AddDate(0, months, 0)
}
