package rails

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"talentbridge/config"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Параметры ретраев для идемпотентных чтений.
const (
	maxGetAttempts = 3
	retryBaseWait  = 250 * time.Millisecond
)

// Gateway строит аутентифицированные запросы к платежным провайдерам
// и предоставляет единый набор операций поверх обоих.
//
// Учетные данные запрашиваются у провайдера ключей на каждый вызов,
// подпись и метка времени генерируются заново на каждую попытку —
// сервер провайдера отвергает просроченные подписи (защита от повтора).
type Gateway struct {
	creds  config.RailCredentialsProvider
	client *resty.Client
}

func NewGateway(creds config.RailCredentialsProvider) *Gateway {
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")
	return &Gateway{creds: creds, client: client}
}

// signTrolley подписывает запрос по контракту провайдера выплат:
// сообщение = timestamp ++ МЕТОД ++ путь ++ тело, HMAC-SHA256 секретом.
func signTrolley(creds config.RailCredentials, timestamp, method, path string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(creds.SecretKey))
	mac.Write([]byte(timestamp))
	mac.Write([]byte(method))
	mac.Write([]byte(path))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// do выполняет один HTTP-вызов к провайдеру: свежие учетные данные,
// свежая подпись, разбор ошибки в типизированный вид.
func (g *Gateway) do(ctx context.Context, rail, method, path string, body any, extraHeaders map[string]string) ([]byte, error) {
	creds, err := g.creds.RailCredentials(rail)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	req := g.client.R().SetContext(ctx)
	if payload != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}
	for k, v := range extraHeaders {
		req.SetHeader(k, v)
	}

	switch rail {
	case RailStripe:
		req.SetHeader("Authorization", "Bearer "+creds.SecretKey)
	case RailTrolley:
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := signTrolley(creds, timestamp, method, path, payload)
		req.SetHeader("Authorization", fmt.Sprintf("prsign %s:%s", creds.AccessKey, signature))
		req.SetHeader("X-PR-Timestamp", timestamp)
	default:
		return nil, fmt.Errorf("неизвестный платежный провайдер: %s", rail)
	}

	resp, err := req.Execute(method, creds.BaseURL+path)
	if err != nil {
		return nil, &TransportError{Rail: rail, Err: err}
	}

	status := resp.StatusCode()
	switch {
	case status >= 200 && status < 300:
		return resp.Body(), nil
	case status >= 500:
		return nil, &TransportError{Rail: rail, Err: fmt.Errorf("статус ответа %d", status)}
	default:
		return nil, parseProviderError(rail, status, resp.Body())
	}
}

// get — идемпотентное чтение с ограниченным экспоненциальным бэкофом.
// Каждая попытка подписывается заново.
func (g *Gateway) get(ctx context.Context, rail, path string) ([]byte, error) {
	var lastErr error
	wait := retryBaseWait
	for attempt := 1; attempt <= maxGetAttempts; attempt++ {
		body, err := g.do(ctx, rail, http.MethodGet, path, nil, nil)
		if err == nil {
			return body, nil
		}
		lastErr = err

		// Осмысленный отказ провайдера повторять бессмысленно
		var tErr *TransportError
		if !errors.As(err, &tErr) {
			return nil, err
		}
		if attempt == maxGetAttempts {
			break
		}
		slog.Warn("Повтор запроса к провайдеру после сбоя связи",
			"rail", rail, "path", path, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, &TransportError{Rail: rail, Err: ctx.Err()}
		case <-time.After(wait):
		}
		wait *= 2
	}
	return nil, lastErr
}

// post — запись без скрытых повторов: дубликат платежа хуже, чем ошибка.
// Идемпотентность обеспечивает ключ в заголовке, решение о повторе
// принимает вызывающая сторона.
func (g *Gateway) post(ctx context.Context, rail, path string, body any, idempotencyKey string) ([]byte, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	return g.do(ctx, rail, http.MethodPost, path, body, headers)
}

// --- Операции ---

// GetBalance возвращает корзины баланса счета у провайдера.
func (g *Gateway) GetBalance(ctx context.Context, rail, accountID string) (Balance, error) {
	var balance Balance
	body, err := g.get(ctx, rail, balancePath(rail, accountID))
	if err != nil {
		return balance, err
	}
	if err := json.Unmarshal(body, &balance); err != nil {
		return balance, fmt.Errorf("не удалось разобрать баланс от %s: %w", rail, err)
	}
	return balance, nil
}

// ListPayouts возвращает последние выплаты счета, новые первыми.
func (g *Gateway) ListPayouts(ctx context.Context, rail, accountID string, limit int) ([]Payout, error) {
	body, err := g.get(ctx, rail, payoutsPath(rail, accountID, limit))
	if err != nil {
		return nil, err
	}
	var envelope listEnvelope[Payout]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("не удалось разобрать список выплат от %s: %w", rail, err)
	}
	return envelope.Data, nil
}

// ListTransactions возвращает последние операции по счету, новые первыми.
func (g *Gateway) ListTransactions(ctx context.Context, rail, accountID string, limit int) ([]Transaction, error) {
	body, err := g.get(ctx, rail, transactionsPath(rail, accountID, limit))
	if err != nil {
		return nil, err
	}
	var envelope listEnvelope[Transaction]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("не удалось разобрать список операций от %s: %w", rail, err)
	}
	return envelope.Data, nil
}

// CreateRecipient заводит получателя выплат у провайдера.
func (g *Gateway) CreateRecipient(ctx context.Context, rail string, req RecipientRequest) (Recipient, error) {
	var recipient Recipient
	body, err := g.post(ctx, rail, recipientsPath(rail), req, uuid.NewString())
	if err != nil {
		return recipient, err
	}
	if err := json.Unmarshal(body, &recipient); err != nil {
		return recipient, fmt.Errorf("не удалось разобрать ответ о получателе от %s: %w", rail, err)
	}
	return recipient, nil
}

// CreatePayment создает платеж. Ключ идемпотентности обязателен:
// он передается провайдеру и сохраняется вместе с платежом, чтобы
// повторная отправка не породила второе движение денег.
func (g *Gateway) CreatePayment(ctx context.Context, rail string, req PaymentRequest, idempotencyKey string) (PaymentResult, error) {
	var result PaymentResult
	if idempotencyKey == "" {
		return result, fmt.Errorf("платеж в %s без ключа идемпотентности запрещен", rail)
	}
	body, err := g.post(ctx, rail, paymentsPath(rail), req, idempotencyKey)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return result, fmt.Errorf("не удалось разобрать ответ о платеже от %s: %w", rail, err)
	}
	return result, nil
}

// TestConnection проверяет доступность провайдера и валидность ключей.
func (g *Gateway) TestConnection(ctx context.Context, rail string) error {
	_, err := g.get(ctx, rail, pingPath(rail))
	return err
}

// --- Пути операций по провайдерам ---

func balancePath(rail, accountID string) string {
	if rail == RailTrolley {
		return "/v1/recipients/" + accountID + "/balance"
	}
	return "/v1/accounts/" + accountID + "/balance"
}

func payoutsPath(rail, accountID string, limit int) string {
	if rail == RailTrolley {
		return fmt.Sprintf("/v1/recipients/%s/payments?limit=%d", accountID, limit)
	}
	return fmt.Sprintf("/v1/accounts/%s/payouts?limit=%d", accountID, limit)
}

func transactionsPath(rail, accountID string, limit int) string {
	if rail == RailTrolley {
		return fmt.Sprintf("/v1/recipients/%s/logs?limit=%d", accountID, limit)
	}
	return fmt.Sprintf("/v1/accounts/%s/transactions?limit=%d", accountID, limit)
}

func recipientsPath(rail string) string {
	if rail == RailTrolley {
		return "/v1/recipients"
	}
	return "/v1/accounts"
}

func paymentsPath(rail string) string {
	if rail == RailTrolley {
		return "/v1/payments"
	}
	return "/v1/payment_intents"
}

func pingPath(rail string) string {
	if rail == RailTrolley {
		return "/v1/profile"
	}
	return "/v1/account"
}

// --- Разбор ошибок провайдера ---

// providerErrorPayload покрывает оба формата тел ошибок:
// объект error у stripe и массив errors у trolley.
type providerErrorPayload struct {
	Error *struct {
		Code    string `json:"code"`
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func parseProviderError(rail string, status int, body []byte) *ProviderError {
	perr := &ProviderError{Rail: rail, StatusCode: status}
	var payload providerErrorPayload
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != nil:
			perr.Code = payload.Error.Code
			if perr.Code == "" {
				perr.Code = payload.Error.Type
			}
			perr.Message = payload.Error.Message
		case len(payload.Errors) > 0:
			perr.Code = payload.Errors[0].Code
			perr.Message = payload.Errors[0].Message
		}
	}
	if perr.Message == "" {
		perr.Message = string(body)
	}
	return perr
}
