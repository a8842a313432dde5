package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string

	Database         DatabaseConfigs
	ApiServer        ServerConfigs
	PrometheusServer ServerConfigs
	Auth             AuthConfigs
	Session          SessionConfigs
	Redis            RedisConfigs
	Kafka            KafkaConfigs
	WorldID          WorldIDConfigs
	Blockchain       BlockchainConfigs
	Claim            ClaimConfigs
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host      string
	Port      string
	AllowCORS []string

	DefaultLimit int
	MaxLimit     int
}

func (s ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type AuthConfigs struct {
	TokenSecret     string
	AccessTokenName string
	AccessToken     TokenConfigs
	RefreshToken    TokenConfigs
}

type TokenConfigs struct {
	Name       string
	Expiration time.Duration
}

type SessionConfigs struct {
	Secret string
	Name   string
}

type RedisConfigs struct {
	Addr string
}

type KafkaConfigs struct {
	Addr string
}

// WorldIDConfigs holds the cloud-verify credentials. Action must equal the
// action id the identity widget is configured with, otherwise every proof is
// rejected with an action mismatch.
type WorldIDConfigs struct {
	VerifyURL string
	AppID     string
	APIKey    string
	Action    string
	// MinLevel is the weakest verification level accepted for reward
	// claims ("orb" or "device").
	MinLevel string
}

type BlockchainConfigs struct {
	SecretKey                  string
	RefreshConnectionFrequency time.Duration
	DispatchTimeout            time.Duration
}

type ClaimConfigs struct {
	// RequireWalletSignature switches the wallet binder to strict mode:
	// the claimer must additionally sign the claim signal with the
	// destination wallet.
	RequireWalletSignature bool

	// ReconcileDelay is how long a reservation may stay in-flight before
	// the reconciler decides its outcome. It must exceed the blockchain
	// dispatch timeout, otherwise the reconciler can roll back a claim
	// whose dispatch is still running.
	ReconcileDelay     time.Duration
	ReconcileFrequency time.Duration
}
