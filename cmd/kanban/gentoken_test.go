package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"kanban/api"
)

func TestGenerateTokens(t *testing.T) {
	auth := api.NewAuth(nil, "", "", api.AuthOptions{TestSecret: "secret"})

	tokens, err := generateTokens("secret", 3, "perf-user", 5, time.Hour, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i, tok := range tokens {
		userID, err := auth.UserIDFromToken(tok)
		if err != nil {
			t.Fatalf("token %d rejected: %v", i, err)
		}
		if want := "perf-user-" + string(rune('5'+i)); userID != want {
			t.Fatalf("token %d: expected %s, got %s", i, want, userID)
		}
	}

	tokens, err = generateTokens("secret", 1, "prefix", 1, time.Hour, []string{"alice"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if userID, _ := auth.UserIDFromToken(tokens[0]); userID != "alice" {
		t.Fatalf("expected explicit user id, got %q", userID)
	}

	if _, err := generateTokens("", 1, "prefix", 1, time.Hour, nil); err == nil {
		t.Fatal("expected error without secret")
	}
}

func TestWriteTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")
	if err := writeTokens(path, []string{"a", "b"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got []string
	if err := sonic.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected tokens %v", got)
	}
}

func TestGenTokenCommand(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "secret")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"gen-token", "bob"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.Count(out.String(), ".") != 2 {
		t.Fatalf("expected a JWT, got %q", out.String())
	}

	cmd = newRootCmd()
	cmd.SetArgs([]string{"gen-token", "--count", "2", "bob"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for explicit user with count > 1")
	}
}
