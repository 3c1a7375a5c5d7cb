// lifecycle.go — правила жизненного цикла записи.
// Единственный допустимый переход: Open → Closed. Closed — терминальное
// состояние: повторное закрытие — no-op, переоткрытие не существует.
package model

// CanClose сообщает, изменит ли закрытие состояние записи.
// false означает, что запись уже закрыта (идемпотентный no-op для вызывающего).
func (g *Gestion) CanClose() bool {
	return g.Status == StatusOpen
}

// Close переводит запись в состояние Closed.
// Возвращает true, если состояние изменилось, и false, если запись
// уже была закрыта (поля записи при этом не трогаются).
func (g *Gestion) Close() bool {
	if !g.CanClose() {
		return false
	}
	g.Status = StatusClosed
	return true
}

// IsClosed — запись в терминальном состоянии.
func (g *Gestion) IsClosed() bool {
	return g.Status == StatusClosed
}
