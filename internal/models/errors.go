package models

import "errors"

// Ошибки предметной области. Все слои оборачивают их через fmt.Errorf("%s: %w", op, err),
// поэтому проверять их следует только через errors.Is.
var (
	// ErrValidation — входные данные вне допустимых границ, исправляется вызывающей стороной.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound — сущность отсутствует или неактивна.
	ErrNotFound = errors.New("not found")
	// ErrForbidden — у идентичности нет нужной возможности.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict — нарушено предусловие конечного автомата, например повторное решение по сессии.
	ErrConflict = errors.New("conflict")
	// ErrInsufficientBalance — списание увело бы баланс в минус.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrSettlementFailure — внешний реестр недоступен или отклонил запись.
	ErrSettlementFailure = errors.New("settlement failure")
)
