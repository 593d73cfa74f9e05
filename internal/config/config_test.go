package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "testdata/does-not-exist.toml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.Port != 3000 {
		t.Fatalf("unexpected default port: %d", cfg.App.Port)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected default model: %q", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.MaxOutputTokens != 200 {
		t.Fatalf("unexpected default token ceiling: %d", cfg.OpenAI.MaxOutputTokens)
	}
	if cfg.OpenAIEnabled() {
		t.Fatal("provider must be disabled without an api key")
	}
	if cfg.MemoryEnabled() {
		t.Fatal("memory must be disabled without an endpoint")
	}
	if cfg.Memory.MaxFileBytes != 1048576 {
		t.Fatalf("unexpected default max file bytes: %d", cfg.Memory.MaxFileBytes)
	}
	if cfg.RabbitMQ.TurnEventQueue != "chat.turn.snapshot" {
		t.Fatalf("unexpected default queue: %q", cfg.RabbitMQ.TurnEventQueue)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "testdata/does-not-exist.toml")
	t.Setenv("PORT", "8080")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MAX_OUTPUT_TOKENS", "120")
	t.Setenv("ANTMEMORY_ENDPOINT", "127.0.0.1:9000")
	t.Setenv("ANTMEMORY_USE_SSL", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.Port != 8080 {
		t.Fatalf("expected port override, got %d", cfg.App.Port)
	}
	if !cfg.OpenAIEnabled() {
		t.Fatal("expected provider enabled")
	}
	if cfg.OpenAI.MaxOutputTokens != 120 {
		t.Fatalf("expected token ceiling 120, got %d", cfg.OpenAI.MaxOutputTokens)
	}
	if !cfg.MemoryEnabled() || !cfg.Memory.UseSSL {
		t.Fatalf("expected memory enabled with ssl, got %+v", cfg.Memory)
	}
}

func TestHelpers(t *testing.T) {
	cfg := defaultConfig()
	cfg.App.Host = "127.0.0.1"
	cfg.App.Port = 3000
	if got := cfg.HTTPAddr(); got != "127.0.0.1:3000" {
		t.Fatalf("unexpected http addr: %q", got)
	}

	cfg.MySQL = MySQLConfig{Host: "db", Port: 3306, User: "root", Password: "pw", DB: "antrelay", Params: "parseTime=true"}
	want := "root:pw@tcp(db:3306)/antrelay?parseTime=true"
	if got := cfg.MySQLDSN(); got != want {
		t.Fatalf("unexpected dsn: %q", got)
	}
}
