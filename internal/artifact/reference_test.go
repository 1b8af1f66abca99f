package artifact

import (
	"errors"
	"strings"
	"testing"
)

func TestParseReference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ref     string
		want    Selector
		wantErr bool
	}{
		{name: "bare name", ref: "sample.csv", want: Selector{Name: "sample.csv", Latest: true}},
		{name: "latest alias", ref: "sample.csv:latest", want: Selector{Name: "sample.csv", Latest: true}},
		{name: "version alias", ref: "sample.csv:v3", want: Selector{Name: "sample.csv", Version: 3}},
		{name: "version zero", ref: "clean_sample.csv:v0", want: Selector{Name: "clean_sample.csv", Version: 0}},
		{name: "empty", ref: "", wantErr: true},
		{name: "empty name", ref: ":latest", wantErr: true},
		{name: "unknown alias", ref: "sample.csv:prod", wantErr: true},
		{name: "missing digits", ref: "sample.csv:v", wantErr: true},
		{name: "negative version", ref: "sample.csv:v-1", wantErr: true},
		{name: "path separator", ref: "../sample.csv", wantErr: true},
		{name: "space", ref: "my sample", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseReference(tt.ref)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidReference) {
					t.Errorf("expected ErrInvalidReference, got %v", err)
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

func TestParseReferenceNamedAlias(t *testing.T) {
	t.Parallel()

	for _, ref := range []string{"sample.csv:prod", "sample.csv:staging", "sample.csv:best"} {
		_, err := ParseReference(ref)
		if !errors.Is(err, ErrInvalidReference) {
			t.Errorf("expected ErrInvalidReference for %s, got %v", ref, err)
			continue
		}
		if !strings.Contains(err.Error(), "want latest or vN") {
			t.Errorf("expected error to name supported aliases, got %q", err.Error())
		}
	}
}

func TestSelectorString(t *testing.T) {
	t.Parallel()

	if got := (Selector{Name: "a", Latest: true}).String(); got != "a:latest" {
		t.Errorf("expected a:latest, got %s", got)
	}
	if got := (Selector{Name: "a", Version: 2}).String(); got != "a:v2" {
		t.Errorf("expected a:v2, got %s", got)
	}
}

func TestResolutionError(t *testing.T) {
	t.Parallel()

	err := error(&ResolutionError{Ref: "sample.csv:latest", Err: ErrNotFound})

	if !errors.Is(err, ErrNotFound) {
		t.Error("expected ResolutionError to unwrap to ErrNotFound")
	}

	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatal("expected errors.As to find *ResolutionError")
	}
	if resErr.Ref != "sample.csv:latest" {
		t.Errorf("expected ref sample.csv:latest, got %s", resErr.Ref)
	}
}
