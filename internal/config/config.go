package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBConn   string
	LogLevel string

	JWTSecret string

	// Exchange rates
	RatesURL       string
	DefaultUSDRate string

	// Credit terms
	CreditAnnualRate string
	CreditTermMonths int

	// Cron specs for the periodic passes
	DepositSettleSpec string
	DailyBudgetSpec   string
	MonthlyBudgetSpec string
	AmortizeSpec      string

	// Pending deposits older than this are auto-approved by the settlement pass
	DepositAutoSettleAge time.Duration

	// SMTP
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		DBConn:   getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=bank sslmode=disable"),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		JWTSecret: getEnv("JWT_SECRET", "secret"),

		RatesURL:       getEnv("RATES_URL", "https://www.nbrb.by/services/xmlexrates.aspx"),
		DefaultUSDRate: getEnv("DEFAULT_USD_RATE", "3.116"),

		CreditAnnualRate: getEnv("CREDIT_ANNUAL_RATE", "5.0"),

		DepositSettleSpec: getEnv("DEPOSIT_SETTLE_SPEC", "@every 1h"),
		DailyBudgetSpec:   getEnv("DAILY_BUDGET_SPEC", "5 0 * * *"),
		MonthlyBudgetSpec: getEnv("MONTHLY_BUDGET_SPEC", "0 0 1 * *"),
		AmortizeSpec:      getEnv("AMORTIZE_SPEC", "30 0 1 * *"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "25"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "noreply@budget-bank.local"),
	}

	termMonths, err := strconv.Atoi(getEnv("CREDIT_TERM_MONTHS", "12"))
	if err != nil || termMonths <= 0 {
		return nil, fmt.Errorf("CREDIT_TERM_MONTHS must be a positive integer")
	}
	cfg.CreditTermMonths = termMonths

	settleAge, err := time.ParseDuration(getEnv("DEPOSIT_AUTO_SETTLE_AGE", "72h"))
	if err != nil || settleAge <= 0 {
		return nil, fmt.Errorf("DEPOSIT_AUTO_SETTLE_AGE must be a positive duration")
	}
	cfg.DepositAutoSettleAge = settleAge

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
