package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App:    AppConfig{Env: "local", Port: 3000},
		Store:  StoreConfig{Driver: StoreDriverPostgres},
		DB:     DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "ivr"},
		Twilio: TwilioConfig{AccountSID: "AC123", AuthToken: "tok", PhoneNumber: "+15177934989"},
		IVR:    IVRConfig{BridgeNumber: "+15550009999", PublicBaseURL: "https://ivr.example.com"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"APP_ENV", "TWILIO_ACCOUNT_SID", "IVR_BRIDGE_NUMBER", "DB_HOST"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %v", want, err)
		}
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.IVR.BridgeTimeout != 10*time.Second || c.IVR.StoreTimeout != 5*time.Second {
		t.Fatalf("unexpected timeouts: %+v", c.IVR)
	}
	if c.IVR.BridgeMaxConcurrent != 1 {
		t.Fatalf("expected bridge cap 1, got %d", c.IVR.BridgeMaxConcurrent)
	}
}

func TestValidate_MongoDriver(t *testing.T) {
	c := validConfig()
	c.Store.Driver = StoreDriverMongo
	c.DB = DBConfig{}
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "MONGO_URI") {
		t.Fatalf("expected MONGO_URI error, got %v", err)
	}

	c.Mongo.URI = "mongodb://127.0.0.1:27017"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Mongo.Database != "twilio" {
		t.Fatalf("expected default database, got %q", c.Mongo.Database)
	}
}

func TestValidate_MemoryDriverRejectedInProduction(t *testing.T) {
	c := validConfig()
	c.Store.Driver = StoreDriverMemory
	c.App.Env = "production"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidate_PublicBaseURLMustBeAbsolute(t *testing.T) {
	c := validConfig()
	c.IVR.PublicBaseURL = "ivr.example.com"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}

func TestValidate_RedisSettings(t *testing.T) {
	c := validConfig()
	c.Redis = RedisConfig{Host: "redis", Port: 6379, DB: -1}
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "REDIS_DB") {
		t.Fatalf("expected REDIS_DB error, got %v", err)
	}

	c = validConfig()
	c.Redis = RedisConfig{Host: "redis", Port: 6379, DB: 2}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !c.RedisEnabled() || c.RedisAddr() != "redis:6379" {
		t.Fatalf("unexpected redis settings: %+v", c.Redis)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "")
	t.Setenv("PORT", "4000")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC1")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_PHONE_NUMBER", "+15177934989")
	t.Setenv("IVR_BRIDGE_NUMBER", "+15550009999")
	t.Setenv("IVR_PUBLIC_BASE_URL", "https://ivr.example.com")
	t.Setenv("IVR_BRIDGE_TIMEOUT", "3s")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("JWT_SECRET", "")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.App.Port != 4000 {
		t.Fatalf("expected PORT fallback, got %d", c.App.Port)
	}
	if c.IVR.BridgeTimeout != 3*time.Second {
		t.Fatalf("expected 3s bridge timeout, got %s", c.IVR.BridgeTimeout)
	}
	if c.RedisEnabled() || c.AuthEnabled() {
		t.Fatalf("redis and auth should be disabled")
	}
	if c.HTTPAddr() != ":4000" {
		t.Fatalf("unexpected addr %q", c.HTTPAddr())
	}
}

func TestLoad_RejectsBadDuration(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("IVR_STORE_TIMEOUT", "soon")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "IVR_STORE_TIMEOUT") {
		t.Fatalf("expected duration error, got %v", err)
	}
}
