package rails

import "fmt"

// ProviderError — осмысленный отказ провайдера (4xx): запрос дошел,
// но был отклонен. Такие ошибки не ретраим, код и сообщение провайдера
// отдаем наверх как есть.
type ProviderError struct {
	Rail       string
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("провайдер %s отклонил запрос (%d %s): %s", e.Rail, e.StatusCode, e.Code, e.Message)
}

// TransportError — сетевая ошибка или 5xx: неизвестно, обработал ли
// провайдер запрос. Для чтений безопасно повторить, для записей — нет.
type TransportError struct {
	Rail string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("сбой связи с провайдером %s: %v", e.Rail, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
