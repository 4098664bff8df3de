package config

import (
	"testing"
	"time"
)

func TestParseUsers(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    []SeedUser
		wantErr bool
	}{
		{
			name: "default admin",
			raw:  "",
			want: []SeedUser{{Username: "admin", Role: "admin"}},
		},
		{
			name: "explicit roles",
			raw:  "alice:admin,bob:member",
			want: []SeedUser{{Username: "alice", Role: "admin"}, {Username: "bob", Role: "member"}},
		},
		{
			name: "role defaults to member",
			raw:  "bob",
			want: []SeedUser{{Username: "bob", Role: "member"}},
		},
		{
			name: "whitespace tolerated",
			raw:  " alice : admin , bob ",
			want: []SeedUser{{Username: "alice", Role: "admin"}, {Username: "bob", Role: "member"}},
		},
		{name: "unknown role", raw: "alice:owner", wantErr: true},
		{name: "only separators", raw: ",,", wantErr: true},
		{name: "missing name", raw: ":admin", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseUsers(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d users, got %d", len(tc.want), len(got))
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("user %d: expected %+v, got %+v", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestParseMinutes(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", 0},
		{"5", 5 * time.Minute},
		{"1", time.Minute},
		{"0", 0},
		{"-3", 0},
		{"abc", 0},
	}
	for _, tc := range cases {
		if got := parseMinutes(tc.raw); got != tc.want {
			t.Errorf("parseMinutes(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	t.Setenv("RECONCILE_INTERVAL_MINUTES", "")
	t.Setenv("USERS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseURL != "routinelink.db" {
		t.Errorf("unexpected database url %q", cfg.DatabaseURL)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.ReconcileInterval != time.Minute {
		t.Errorf("unexpected reconcile interval %v", cfg.ReconcileInterval)
	}
	if len(cfg.Users) != 1 || cfg.Users[0].Username != "admin" {
		t.Errorf("unexpected seed users %+v", cfg.Users)
	}
}

func TestLoad_TelegramRequiresChatID(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when token is set without chat id")
	}

	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TelegramChatID != -100200300 {
		t.Errorf("unexpected chat id %d", cfg.TelegramChatID)
	}
}
