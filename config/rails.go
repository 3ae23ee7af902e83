package config

import (
	"fmt"
	"os"
)

// RailCredentials — учетные данные одного платежного провайдера.
// Для stripe используется только SecretKey (bearer-токен),
// для trolley — пара AccessKey/SecretKey для HMAC-подписи запросов.
type RailCredentials struct {
	AccessKey string
	SecretKey string
	BaseURL   string
}

// RailCredentialsProvider выдает учетные данные провайдера на каждый вызов.
// Чтение происходит заново при каждом обращении: ротация ключей
// вступает в силу без перезапуска приложения.
type RailCredentialsProvider interface {
	RailCredentials(rail string) (RailCredentials, error)
}

// EnvRailCredentials читает учетные данные из переменных окружения.
type EnvRailCredentials struct{}

func (EnvRailCredentials) RailCredentials(rail string) (RailCredentials, error) {
	switch rail {
	case "stripe":
		key := os.Getenv("STRIPE_SECRET_KEY")
		if key == "" {
			return RailCredentials{}, fmt.Errorf("переменная окружения STRIPE_SECRET_KEY не установлена")
		}
		base := os.Getenv("STRIPE_API_URL")
		if base == "" {
			base = "https://api.stripe.com"
		}
		return RailCredentials{SecretKey: key, BaseURL: base}, nil
	case "trolley":
		access := os.Getenv("TROLLEY_ACCESS_KEY")
		secret := os.Getenv("TROLLEY_SECRET_KEY")
		if access == "" || secret == "" {
			return RailCredentials{}, fmt.Errorf("переменные окружения TROLLEY_ACCESS_KEY/TROLLEY_SECRET_KEY не установлены")
		}
		base := os.Getenv("TROLLEY_API_URL")
		if base == "" {
			base = "https://api.trolley.com"
		}
		return RailCredentials{AccessKey: access, SecretKey: secret, BaseURL: base}, nil
	default:
		return RailCredentials{}, fmt.Errorf("неизвестный платежный провайдер: %s", rail)
	}
}
