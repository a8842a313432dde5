package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/proofdrop-lab/backend/config"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
)

func (s *srv) loadConfig() {
	cfg := config.Configs{
		Env: getEnv("ENV", "local"),
		Database: config.DatabaseConfigs{
			Host:     getEnv("MYSQL_HOST", "localhost"),
			Port:     getEnv("MYSQL_PORT", "3306"),
			Database: getEnv("MYSQL_DATABASE", "proofdrop"),
			User:     getEnv("MYSQL_USER", "proofdrop"),
			Password: getEnv("MYSQL_PASSWORD", "proofdrop"),
		},
		ApiServer: config.ServerConfigs{
			Host:         getEnv("API_HOST", ""),
			Port:         getEnv("API_PORT", "8080"),
			AllowCORS:    getList("API_ALLOW_CORS", nil),
			DefaultLimit: getInt("API_DEFAULT_LIMIT", 10),
			MaxLimit:     getInt("API_MAX_LIMIT", 50),
		},
		PrometheusServer: config.ServerConfigs{
			Host: getEnv("PROMETHEUS_HOST", ""),
			Port: getEnv("PROMETHEUS_PORT", "9000"),
		},
		Auth: config.AuthConfigs{
			TokenSecret: getEnv("TOKEN_SECRET", "token-secret"),
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: getDuration("ACCESS_TOKEN_DURATION", time.Hour),
			},
			RefreshToken: config.TokenConfigs{
				Name:       "refresh_token",
				Expiration: getDuration("REFRESH_TOKEN_DURATION", 30*24*time.Hour),
			},
		},
		Session: config.SessionConfigs{
			Secret: getEnv("SESSION_SECRET", "session-secret"),
			Name:   "proofdrop_session",
		},
		Redis: config.RedisConfigs{
			Addr: getEnv("REDIS_ADDRESS", "localhost:6379"),
		},
		Kafka: config.KafkaConfigs{
			Addr: getEnv("KAFKA_ADDRESS", ""),
		},
		WorldID: config.WorldIDConfigs{
			VerifyURL: getEnv("WORLD_ID_VERIFY_URL", "https://developer.worldcoin.org"),
			AppID:     getEnv("WORLD_ID_APP_ID", ""),
			APIKey:    getEnv("WORLD_ID_API_KEY", ""),
			Action:    getEnv("WORLD_ID_ACTION", "worldid-reward-claim"),
			MinLevel:  getEnv("WORLD_ID_MIN_LEVEL", "orb"),
		},
		Blockchain: config.BlockchainConfigs{
			SecretKey:                  getEnv("BLOCKCHAIN_SECRET_KEY", ""),
			RefreshConnectionFrequency: getDuration("BLOCKCHAIN_REFRESH_CONNECTION_FREQUENCY", 10*time.Minute),
			DispatchTimeout:            getDuration("BLOCKCHAIN_DISPATCH_TIMEOUT", time.Minute),
		},
		Claim: config.ClaimConfigs{
			RequireWalletSignature: getBool("CLAIM_REQUIRE_WALLET_SIGNATURE", false),
			ReconcileDelay:         getDuration("CLAIM_RECONCILE_DELAY", 5*time.Minute),
			ReconcileFrequency:     getDuration("CLAIM_RECONCILE_FREQUENCY", time.Minute),
		},
	}

	s.ctx = xcontext.WithConfigs(s.ctx, cfg)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func getInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}

	return value
}

func getBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}

	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}

	return value
}

func getList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}

	return strings.Split(value, ",")
}
