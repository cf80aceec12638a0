package prompts_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/JaimeStill/stager/internal/prompts"
	"github.com/JaimeStill/stager/pkg/pagination"
	"github.com/JaimeStill/stager/pkg/routes"
)

func TestParseStage(t *testing.T) {
	for _, s := range prompts.Stages() {
		if _, err := prompts.ParseStage(string(s)); err != nil {
			t.Errorf("ParseStage(%q) error: %v", s, err)
		}
		if _, err := prompts.Instructions(s); err != nil {
			t.Errorf("Instructions(%q) error: %v", s, err)
		}
		if _, err := prompts.Spec(s); err != nil {
			t.Errorf("Spec(%q) error: %v", s, err)
		}
	}

	if _, err := prompts.ParseStage("classify"); !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("ParseStage(classify) error = %v, want ErrInvalidStage", err)
	}
}

func TestStageUnmarshalJSON(t *testing.T) {
	var cmd prompts.Command
	if err := json.Unmarshal([]byte(`{"stage":"recommend"}`), &cmd); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if cmd.Stage != prompts.StageRecommend {
		t.Errorf("Stage = %q, want recommend", cmd.Stage)
	}

	if err := json.Unmarshal([]byte(`{"stage":"bogus"}`), &cmd); !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("Unmarshal error = %v, want ErrInvalidStage", err)
	}
}

func TestCompose(t *testing.T) {
	got, err := prompts.Compose(context.Background(), prompts.Defaults(), prompts.StageRecommend, "", "Previously recommended: lighting:vertical")
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}

	spec, _ := prompts.Spec(prompts.StageRecommend)
	if !strings.Contains(got, spec) {
		t.Error("composed prompt missing spec")
	}
	if !strings.HasSuffix(got, "Previously recommended: lighting:vertical") {
		t.Error("composed prompt missing trailing section")
	}
	if strings.Contains(got, "\n\n\n\n") {
		t.Error("empty section produced blank block")
	}
}

func TestCommandValidate(t *testing.T) {
	tests := []struct {
		name string
		cmd  prompts.Command
		want error
	}{
		{"valid", prompts.Command{Name: "warm", Stage: prompts.StageCritique, Instructions: "Be warm."}, nil},
		{"missing name", prompts.Command{Stage: prompts.StageCritique, Instructions: "x"}, prompts.ErrInvalid},
		{"missing instructions", prompts.Command{Name: "n", Stage: prompts.StageCritique}, prompts.ErrInvalid},
		{"bad stage", prompts.Command{Name: "n", Stage: "finalize", Instructions: "x"}, prompts.ErrInvalidStage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	f := prompts.FiltersFromQuery(url.Values{"stage": {"room"}, "active": {"true"}})
	if f.Stage == nil || *f.Stage != prompts.StageRoom {
		t.Errorf("Stage = %v, want room", f.Stage)
	}
	if f.Active == nil || !*f.Active {
		t.Errorf("Active = %v, want true", f.Active)
	}

	f = prompts.FiltersFromQuery(url.Values{"stage": {"nope"}})
	if f.Stage != nil || f.Active != nil {
		t.Errorf("Filters = %+v, want empty", f)
	}
}

type stageSystem struct {
	prompts.System
	override string
}

func (s stageSystem) Instructions(_ context.Context, stage prompts.Stage) (string, error) {
	if s.override != "" {
		return s.override, nil
	}
	return prompts.Instructions(stage)
}

func (s stageSystem) Spec(_ context.Context, stage prompts.Stage) (string, error) {
	return prompts.Spec(stage)
}

func TestHandlerStageContent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := prompts.NewHandler(stageSystem{override: "custom"}, logger, pagination.Config{DefaultPageSize: 10, MaxPageSize: 20})

	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())

	t.Run("instructions override", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prompts/critique/instructions", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var body prompts.StageContent
		json.Unmarshal(rec.Body.Bytes(), &body)
		if body.Content != "custom" || body.Stage != prompts.StageCritique {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("unknown stage", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prompts/finalize/spec", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("stages", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prompts/stages", nil))

		var got []string
		json.Unmarshal(rec.Body.Bytes(), &got)
		if len(got) != len(prompts.Stages()) {
			t.Errorf("stages = %v", got)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prompts/not-a-uuid", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}
