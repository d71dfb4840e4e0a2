package slack

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"slackhook/internal/config"
	"slackhook/internal/domain"
)

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestBuildPayload_RoomUserMention(t *testing.T) {
	dest := domain.Destination{
		Room: "general",
		User: &domain.User{Name: "alice", ID: "U1"},
	}
	cfg := config.SlackConfig{AddMention: true}

	p := BuildPayload(dest, []string{"hello", "world"}, cfg, nil)

	want := Payload{Channel: "general", Username: "alice", Text: "<@U1> hello\nworld"}
	if p != want {
		t.Fatalf("got %+v, want %+v", p, want)
	}
}

func TestBuildPayload_NoRoomFallbackUsername(t *testing.T) {
	var buf bytes.Buffer
	dest := domain.Destination{User: &domain.User{Name: ""}}
	cfg := config.SlackConfig{Username: "bot"}

	p := BuildPayload(dest, []string{"hi"}, cfg, bufferLogger(&buf))

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"username":"bot","text":"hi"}` {
		t.Fatalf("unexpected payload: %s", data)
	}
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "without channel designation") {
		t.Fatalf("expected channel warning, got log: %q", buf.String())
	}
}

func TestBuildPayload_ChannelFromRoom(t *testing.T) {
	for _, room := range []string{"general", "C024BE91L", "#random"} {
		p := BuildPayload(domain.Destination{Room: room}, []string{"x"}, config.SlackConfig{}, nil)
		if p.Channel != room {
			t.Errorf("room %q: got channel %q", room, p.Channel)
		}
	}
}

func TestBuildPayload_TextJoin(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"single", []string{"one"}, "one"},
		{"multi", []string{"a", "b", "c"}, "a\nb\nc"},
		{"empty line kept", []string{"a", "", "b"}, "a\n\nb"},
		{"no lines", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildPayload(domain.Destination{Room: "r"}, tt.lines, config.SlackConfig{}, nil)
			if p.Text != tt.want {
				t.Fatalf("got %q, want %q", p.Text, tt.want)
			}
		})
	}
}

func TestBuildPayload_MentionRequiresFlagAndID(t *testing.T) {
	tests := []struct {
		name       string
		addMention bool
		user       *domain.User
		want       string
	}{
		{"flag off", false, &domain.User{ID: "U1"}, "hi"},
		{"no user", true, nil, "hi"},
		{"empty id", true, &domain.User{Name: "bob"}, "hi"},
		{"flag and id", true, &domain.User{ID: "U9"}, "<@U9> hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := domain.Destination{Room: "r", User: tt.user}
			p := BuildPayload(dest, []string{"hi"}, config.SlackConfig{AddMention: tt.addMention}, nil)
			if p.Text != tt.want {
				t.Fatalf("got %q, want %q", p.Text, tt.want)
			}
		})
	}
}

func TestBuildPayload_IconURL(t *testing.T) {
	dest := domain.Destination{
		Room: "r",
		User: &domain.User{Name: "alice", Metadata: map[string]string{"icon_url": "https://example.com/a.png"}},
	}
	p := BuildPayload(dest, []string{"x"}, config.SlackConfig{}, nil)
	if p.IconURL != "https://example.com/a.png" {
		t.Fatalf("expected icon url, got %q", p.IconURL)
	}

	dest.User.Metadata = nil
	p = BuildPayload(dest, []string{"x"}, config.SlackConfig{}, nil)
	if p.IconURL != "" {
		t.Fatalf("expected no icon url, got %q", p.IconURL)
	}
}

func TestBuildPayload_UserNameOverridesConfig(t *testing.T) {
	dest := domain.Destination{Room: "r", User: &domain.User{Name: "alice"}}
	p := BuildPayload(dest, []string{"x"}, config.SlackConfig{Username: "bot"}, nil)
	if p.Username != "alice" {
		t.Fatalf("expected alice, got %q", p.Username)
	}
}

func TestBuildPayload_NeverEncodesEmptyOptionalKeys(t *testing.T) {
	dests := []domain.Destination{
		{},
		{Room: "general"},
		{User: &domain.User{}},
		{User: &domain.User{Metadata: map[string]string{"icon_url": ""}}},
		{Room: "general", User: &domain.User{Name: "a", ID: "U1", Metadata: map[string]string{"icon_url": "i"}}},
	}
	for i, dest := range dests {
		p := BuildPayload(dest, []string{"msg"}, config.SlackConfig{AddMention: true}, nil)
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatal(err)
		}
		for k, v := range m {
			if v == nil || v == "" {
				t.Errorf("dest %d: key %q has empty value in %s", i, k, data)
			}
		}
		if _, ok := m["text"]; !ok {
			t.Errorf("dest %d: text key missing in %s", i, data)
		}
		if _, ok := m["channel"]; ok != dest.HasRoom() {
			t.Errorf("dest %d: channel presence = %v, want %v", i, ok, dest.HasRoom())
		}
	}
}
