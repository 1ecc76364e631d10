package classifier

import (
	"errors"
	"testing"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    domain.Classification
		wantErr bool
	}{
		{name: "composite", raw: "4,-1", want: domain.Classification{Rating: 4, Ideology: -1}},
		{name: "spaces around comma", raw: " 3 , 2 ", want: domain.Classification{Rating: 3, Ideology: 2}},
		{name: "quoted", raw: `"5,0"`, want: domain.Classification{Rating: 5, Ideology: 0}},
		{name: "explicit plus", raw: "2,+1", want: domain.Classification{Rating: 2, Ideology: 1}},
		{name: "legacy single", raw: "2", want: domain.Classification{Rating: 2, Ideology: domain.IdeologyUnscored}},
		{name: "rating out of range", raw: "7", wantErr: true},
		{name: "composite rating out of range", raw: "6,0", wantErr: true},
		{name: "rating zero", raw: "0,0", wantErr: true},
		{name: "ideology out of range", raw: "3,5", wantErr: true},
		{name: "words", raw: "The answer is 3", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "three numbers", raw: "1,2,3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %+v", tt.raw, got)
				}
				if !errors.Is(err, ErrUnparsable) {
					t.Errorf("expected ErrUnparsable, got %v", err)
				}
				if kind := ClassifyError(err); kind != KindParse {
					t.Errorf("expected kind %s, got %s", KindParse, kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestSystemPrompt_MigratesLegacy(t *testing.T) {
	legacy := "Rate the tweet. Output ONLY a single digit from 1 to 5."
	if got := SystemPrompt(legacy); got != DefaultPrompt {
		t.Errorf("expected legacy prompt to be replaced")
	}
	if got := SystemPrompt(""); got != DefaultPrompt {
		t.Errorf("expected empty prompt to use default")
	}
	custom := "Classify. Output two numbers: A,B"
	if got := SystemPrompt(custom); got != custom {
		t.Errorf("expected custom prompt kept, got %q", got)
	}
}
