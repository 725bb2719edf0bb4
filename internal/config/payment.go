package config

const (
	PaymentProviderComplimentary = "complimentary"
	PaymentProviderAuthorizeNet  = "authorizenet"
)

const (
	authorizeNetTestEndpoint = "https://apitest.authorize.net/xml/v1/request.api"
	authorizeNetLiveEndpoint = "https://api.authorize.net/xml/v1/request.api"
)

// PaymentConfig holds the card processor settings
type PaymentConfig struct {
	Provider       string `json:"provider"`
	Endpoint       string `json:"endpoint"`
	Login          string `json:"-"` // Never serialize
	TransactionKey string `json:"-"`
	TestMode       bool   `json:"testMode"`
	MaxRetries     int    `json:"maxRetries"`
	TimeoutMS      int    `json:"timeoutMs"`
}

// DefaultPaymentConfig returns the payment configuration from the environment
func DefaultPaymentConfig() *PaymentConfig {
	cfg := &PaymentConfig{
		Provider:       getEnv("PAYMENT_PROVIDER", PaymentProviderComplimentary),
		Login:          getEnv("AUTHORIZE_NET_LOGIN", ""),
		TransactionKey: getEnv("AUTHORIZE_NET_TRANS_KEY", ""),
		TestMode:       getBool("AUTHORIZE_NET_TEST_MODE", true),
		MaxRetries:     getInt("PAYMENT_MAX_RETRIES", 3),
		TimeoutMS:      getInt("PAYMENT_TIMEOUT_MS", 15000),
	}

	cfg.Endpoint = authorizeNetLiveEndpoint
	if cfg.TestMode {
		cfg.Endpoint = authorizeNetTestEndpoint
	}
	cfg.Endpoint = getEnv("AUTHORIZE_NET_ENDPOINT", cfg.Endpoint)
	return cfg
}

// IsEnabled returns true if card processor credentials are configured
func (c *PaymentConfig) IsEnabled() bool {
	return c.Login != "" && c.TransactionKey != ""
}
