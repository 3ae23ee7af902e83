package rails

// Поддерживаемые платежные провайдеры.
const (
	RailStripe  = "stripe"  // прямые списания с бизнеса
	RailTrolley = "trolley" // выплаты исполнителям
)

// Статусы выплат, которые учитываются в заработке исполнителя.
const (
	PayoutStatusPaid      = "paid"
	PayoutStatusInTransit = "in_transit"
)

// BalanceBucket — одна корзина баланса в валюте провайдера.
// Сумма всегда в минорных единицах.
type BalanceBucket struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Balance — текущий баланс счета: доступные и ожидающие средства.
type Balance struct {
	Available []BalanceBucket `json:"available"`
	Pending   []BalanceBucket `json:"pending"`
}

// Payout — одна выплата из истории счета.
type Payout struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	ArrivalDate int64  `json:"arrival_date"`
	Created     int64  `json:"created"`
}

// Transaction — операция по счету (списание, выплата, возврат).
type Transaction struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Created     int64  `json:"created"`
}

// RecipientRequest — данные для создания получателя выплат.
type RecipientRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
}

// Recipient — созданный у провайдера получатель.
type Recipient struct {
	ID       string `json:"id"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
}

// PaymentRequest — запрос на создание платежа.
type PaymentRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Destination string `json:"destination"`
	Description string `json:"description"`
}

// PaymentResult — ответ провайдера на создание платежа.
type PaymentResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// listEnvelope — конверт списочных ответов провайдеров.
type listEnvelope[T any] struct {
	Data []T `json:"data"`
}
