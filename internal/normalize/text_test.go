package normalize

import "testing"

func TestContainsEmoji(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "rocket", text: "launch 🚀 today", want: true},
		{name: "smiley", text: "hello 😀", want: true},
		{name: "pictograph", text: "weather 🌧", want: true},
		{name: "flag", text: "made in 🇺🇸", want: true},
		{name: "plain ascii", text: "just words here", want: false},
		{name: "accented latin", text: "café résumé", want: false},
		{name: "empty", text: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := containsEmoji(tt.text); got != tt.want {
				t.Errorf("containsEmoji(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractHashtagsFirstOccurrenceOrder(t *testing.T) {
	got := extractHashtags("#ai tools #video for #ai creators")

	want := []string{"#ai", "#video", "#ai"}
	if len(got) != len(want) {
		t.Fatalf("extractHashtags returned %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hashtag[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractMentions(t *testing.T) {
	got := extractMentions("cc @partner and @studio_official")

	if len(got) != 2 || got[0] != "@partner" || got[1] != "@studio_official" {
		t.Errorf("extractMentions = %v, want [@partner @studio_official]", got)
	}
}

func TestDetectCTA(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "simple match", text: "Download the app today", want: "download"},
		{name: "case insensitive", text: "LEARN MORE about us", want: "learn more"},
		{name: "list order beats text position", text: "Shop now or learn more", want: "learn more"},
		{name: "substring of larger phrase", text: "you can sign up here", want: "sign up"},
		{name: "no match", text: "nothing actionable here", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectCTA(tt.text)

			if tt.want == "" {
				if got != nil {
					t.Errorf("detectCTA(%q) = %q, want nil", tt.text, *got)
				}

				return
			}

			if got == nil || *got != tt.want {
				t.Errorf("detectCTA(%q) = %v, want %q", tt.text, got, tt.want)
			}
		})
	}
}
