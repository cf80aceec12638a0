package workflow_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/JaimeStill/stager/internal/backend"
	"github.com/JaimeStill/stager/internal/handoff"
	"github.com/JaimeStill/stager/internal/history"
	"github.com/JaimeStill/stager/internal/location"
	"github.com/JaimeStill/stager/internal/prompts"
	"github.com/JaimeStill/stager/internal/scene"
	"github.com/JaimeStill/stager/internal/schedule"
	"github.com/JaimeStill/stager/internal/shopping"
	"github.com/JaimeStill/stager/internal/workflow"
	"github.com/JaimeStill/stager/pkg/formatting"
	"github.com/JaimeStill/stager/pkg/storage"
)

const fencedRecommendation = "```json\n{\"targetItem\":\"A modern oak side table with brass legs\",\"placement\":\"horizontal\",\"category\":\"furniture\",\"priority\":\"fills empty corner\"}\n```"

const sorry = "Sorry, I can't help."

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stageSource labels each composed prompt with its stage so the fake
// completer can answer per stage.
type stageSource struct{}

func (stageSource) Instructions(_ context.Context, stage prompts.Stage) (string, error) {
	return "stage=" + string(stage), nil
}

func (stageSource) Spec(context.Context, prompts.Stage) (string, error) {
	return "", nil
}

type reply struct {
	text string
	err  error
}

// completer answers by stage. A stage listed in gates blocks until its
// channel is closed.
type completer struct {
	replies map[prompts.Stage]reply
	gates   map[prompts.Stage]chan struct{}

	mu    sync.Mutex
	calls []prompts.Stage
}

func (c *completer) Complete(ctx context.Context, req backend.Request) (string, error) {
	stage := prompts.Stage(strings.TrimPrefix(strings.TrimSpace(req.System), "stage="))

	c.mu.Lock()
	c.calls = append(c.calls, stage)
	c.mu.Unlock()

	if gate, ok := c.gates[stage]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	r, ok := c.replies[stage]
	if !ok {
		return sorry, nil
	}
	return r.text, r.err
}

func (c *completer) called() []prompts.Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.calls)
}

func happyReplies() map[prompts.Stage]reply {
	return map[prompts.Stage]reply{
		prompts.StageRoom:      {text: `{"layout":"open plan","roomType":"living_room","style":"scandinavian","colors":"white and oak","environment":"indoor","suggestions":"add warmth"}`},
		prompts.StageCritique:  {text: "The corner by the sofa feels empty. A small table would anchor it."},
		prompts.StageRecommend: {text: fencedRecommendation},
		prompts.StagePreview:   {text: "Interior design of a bright scandinavian living room with an oak side table"},
		prompts.StageQuery:     {text: "oak side table"},
		prompts.StageProduct:   {text: `{"name":"LISABO Side Table","price":"€49","store":"IKEA Italia","description":"Ash veneer side table","category":"furniture"}`},
	}
}

type images struct{}

func (images) Generate(context.Context, string, string) (backend.Image, error) {
	return backend.Image{Data: []byte("png-bytes"), MIMEType: "image/png"}, nil
}

type speech struct{}

func (speech) Synthesize(context.Context, string, backend.Voice) (backend.Audio, error) {
	return backend.Audio{Data: make([]byte, 480), MIMEType: "audio/L16;codec=pcm;rate=24000"}, nil
}

type archive struct {
	mu     sync.Mutex
	cycles []workflow.Cycle
}

func (a *archive) Save(_ context.Context, c workflow.Cycle) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cycles = append(a.cycles, c)
	return nil
}

func (a *archive) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.cycles)
}

// consumer records every payload it is handed.
type consumer struct {
	endpoints *handoff.Endpoints

	mu       sync.Mutex
	payloads []handoff.Payload
}

func newConsumer() *consumer {
	c := &consumer{endpoints: handoff.NewEndpoints()}
	c.endpoints.Expose(handoff.TriggerSingleItemGeneration, func(_ context.Context, p handoff.Payload) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.payloads = append(c.payloads, p)
		return nil
	})
	return c
}

func (c *consumer) Endpoints() *handoff.Endpoints { return c.endpoints }

func (c *consumer) IsGenerating() bool { return false }

func (c *consumer) received() []handoff.Payload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.payloads)
}

type harness struct {
	pipeline  *workflow.Pipeline
	completer *completer
	clock     *schedule.Manual
	store     *storage.Memory
	archive   *archive
	consumer  *consumer
}

func newHarness(t *testing.T, c *completer, primary handoff.Consumer) *harness {
	t.Helper()

	cfg := &workflow.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	locCfg := &location.Config{}
	if err := locCfg.Finalize(nil); err != nil {
		t.Fatalf("location Finalize: %v", err)
	}

	h := &harness{
		completer: c,
		clock:     schedule.NewManual(),
		store:     storage.NewMemory(discard()),
		archive:   &archive{},
	}
	if cons, ok := primary.(*consumer); ok {
		h.consumer = cons
	}

	src := stageSource{}
	rt := &workflow.Runtime{
		Completer: c,
		Images:    images{},
		Speech:    speech{},
		Voice:     backend.Voice{Name: "Kore"},
		ImageSize: "1024x1024",
		Storage:   h.store,
		Prompts:   src,
		Shopping: shopping.New(shopping.Options{
			Completer: c,
			Prompts:   src,
		}, discard()),
		Broker:    handoff.NewBroker(primary, nil, discard()),
		Location:  location.NewTracker(locCfg, nil, discard()),
		Scheduler: h.clock,
		Archive:   h.archive,
		Logger:    discard(),
	}

	h.pipeline = workflow.New(cfg, rt)
	t.Cleanup(h.pipeline.Close)
	return h
}

func capture(t *testing.T) workflow.Capture {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for x := range 40 {
		for y := range 30 {
			img.Set(x, y, color.RGBA{R: 200, G: 180, B: 150, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return workflow.Capture{Image: buf.Bytes(), Prompt: "make it cosier"}
}

func TestRunAcceptsFencedRecommendation(t *testing.T) {
	h := newHarness(t, &completer{replies: happyReplies()}, newConsumer())

	c, err := h.pipeline.Run(t.Context(), capture(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	rec := c.Recommendation
	if rec == nil {
		t.Fatal("Recommendation = nil")
	}
	if rec.Source != scene.Generated {
		t.Errorf("Source = %s, want %s", rec.Source, scene.Generated)
	}
	if rec.TargetItem != "A modern oak side table with brass legs" {
		t.Errorf("TargetItem = %q", rec.TargetItem)
	}

	want := []history.Fingerprint{history.Generated("furniture", "horizontal", "fills empty corner")}
	if diff := cmp.Diff(want, h.pipeline.History()); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}

	if c.Room == nil || c.Room.Style != "scandinavian" {
		t.Errorf("Room = %+v, want scandinavian style", c.Room)
	}
	if len(c.Errors) != 0 {
		t.Errorf("Errors = %v, want none", c.Errors)
	}
	if c.Status != workflow.StatusInProgress {
		t.Errorf("Status = %q, want %q", c.Status, workflow.StatusInProgress)
	}
	if h.pipeline.Busy() {
		t.Error("Busy = true after Run")
	}
}

func TestRunFallsBackOnProse(t *testing.T) {
	h := newHarness(t, &completer{}, newConsumer())

	c, err := h.pipeline.Run(t.Context(), capture(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if c.Room.Environment != scene.Indoor {
		t.Errorf("Environment = %s, want indoor", c.Room.Environment)
	}
	if c.Recommendation.Source != scene.Fallback {
		t.Errorf("Source = %s, want fallback", c.Recommendation.Source)
	}
	if c.Recommendation.Fingerprint != history.Fallback(0) {
		t.Errorf("Fingerprint = %s, want %s", c.Recommendation.Fingerprint, history.Fallback(0))
	}
	for _, stage := range []string{workflow.TaskRoom, workflow.TaskRecommend} {
		if _, ok := c.Errors[stage]; !ok {
			t.Errorf("Errors[%s] missing", stage)
		}
	}
}

func TestRunFallbackDistinctWithinHistoryCapacity(t *testing.T) {
	h := newHarness(t, &completer{}, newConsumer())

	seen := make(map[history.Fingerprint]bool)
	for i := range h.pipeline.Session().History().Cap() {
		c, err := h.pipeline.Run(t.Context(), capture(t))
		if err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
		fp := c.Recommendation.Fingerprint
		if seen[fp] {
			t.Fatalf("cycle %d repeated %s", i, fp)
		}
		seen[fp] = true
	}
}

// With six remembered fingerprints the catalog cycles through seven of its
// ten options.
func TestRunFallbackSequenceWithBoundedHistory(t *testing.T) {
	h := newHarness(t, &completer{}, newConsumer())

	var got []history.Fingerprint
	for i := range 10 {
		c, err := h.pipeline.Run(t.Context(), capture(t))
		if err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
		got = append(got, c.Recommendation.Fingerprint)
	}

	var want []history.Fingerprint
	for _, idx := range []int{0, 1, 2, 3, 4, 5, 6, 0, 1, 2} {
		want = append(want, history.Fallback(idx))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fallback sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestRunRejectsMissingInput(t *testing.T) {
	valid := capture(t)

	tests := []struct {
		name    string
		capture workflow.Capture
	}{
		{"no image", workflow.Capture{Prompt: "make it cosier"}},
		{"blank prompt", workflow.Capture{Image: valid.Image, Prompt: "   "}},
		{"corrupt image", workflow.Capture{Image: []byte("not an image"), Prompt: "make it cosier"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &completer{}
			h := newHarness(t, c, newConsumer())

			_, err := h.pipeline.Run(t.Context(), tt.capture)
			if !errors.Is(err, workflow.ErrMissingInput) {
				t.Fatalf("Run error = %v, want ErrMissingInput", err)
			}
			if calls := c.called(); len(calls) != 0 {
				t.Errorf("backend calls = %v, want none", calls)
			}
			if h.pipeline.Busy() {
				t.Error("Busy = true after rejected trigger")
			}
		})
	}
}

func TestTriggerRejectsWhileBusy(t *testing.T) {
	gate := make(chan struct{})
	c := &completer{
		replies: happyReplies(),
		gates:   map[prompts.Stage]chan struct{}{prompts.StageRoom: gate},
	}
	h := newHarness(t, c, newConsumer())

	first, err := h.pipeline.Trigger(t.Context(), capture(t))
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if !h.pipeline.Busy() {
		t.Error("Busy = false during analysis")
	}

	if _, err := h.pipeline.Trigger(t.Context(), capture(t)); !errors.Is(err, workflow.ErrBusy) {
		t.Errorf("second Trigger error = %v, want ErrBusy", err)
	}

	close(gate)
	h.pipeline.Wait()

	if h.pipeline.Busy() {
		t.Error("Busy = true after cycle finished")
	}
	got, ok := h.pipeline.Cycle(first.ID)
	if !ok {
		t.Fatal("first cycle no longer current")
	}
	if got.Recommendation == nil {
		t.Error("Recommendation = nil after cycle finished")
	}
}

func TestFanoutRunsInOrder(t *testing.T) {
	h := newHarness(t, &completer{replies: happyReplies()}, newConsumer())

	c, err := h.pipeline.Run(t.Context(), capture(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{workflow.TaskPreview, workflow.TaskNarration, workflow.TaskShopping, workflow.TaskHandoff}
	if diff := cmp.Diff(want, h.clock.Pending()); diff != "" {
		t.Fatalf("scheduled tasks mismatch (-want +got):\n%s", diff)
	}

	steps := []struct {
		advance time.Duration
		check   func(t *testing.T, c workflow.Cycle)
	}{
		{0, func(t *testing.T, c workflow.Cycle) {
			if c.PreviewKey == "" {
				t.Error("PreviewKey empty after preview")
			}
			if c.NarrationKey != "" {
				t.Error("narration ran before its delay")
			}
		}},
		{time.Second, func(t *testing.T, c workflow.Cycle) {
			if !strings.HasSuffix(c.NarrationKey, ".wav") {
				t.Errorf("NarrationKey = %q, want .wav", c.NarrationKey)
			}
			if c.Product != nil {
				t.Error("shopping ran before its delay")
			}
		}},
		{500 * time.Millisecond, func(t *testing.T, c workflow.Cycle) {
			if c.Product == nil || c.Product.Name != "LISABO Side Table" {
				t.Errorf("Product = %+v, want LISABO Side Table", c.Product)
			}
			if c.Handoff != nil {
				t.Error("handoff ran before its delay")
			}
		}},
		{1500 * time.Millisecond, func(t *testing.T, c workflow.Cycle) {
			if c.Handoff == nil || c.Handoff.Outcome != handoff.Accepted {
				t.Errorf("Handoff = %+v, want accepted", c.Handoff)
			}
			if c.Status != workflow.StatusReady {
				t.Errorf("Status = %q, want %q", c.Status, workflow.StatusReady)
			}
		}},
	}

	for i, step := range steps {
		if ran := h.clock.Advance(step.advance); ran != 1 {
			t.Fatalf("step %d ran %d tasks, want 1", i, ran)
		}
		got, ok := h.pipeline.Cycle(c.ID)
		if !ok {
			t.Fatalf("step %d: cycle no longer current", i)
		}
		step.check(t, got)
	}

	payloads := h.consumer.received()
	if len(payloads) != 1 {
		t.Fatalf("payloads = %d, want 1", len(payloads))
	}
	if payloads[0].Product == nil {
		t.Error("handoff payload missing shopping product")
	}

	keys := h.store.Keys()
	for _, key := range []string{
		"captures/" + c.ID.String() + ".png",
		"previews/" + c.ID.String() + ".png",
		"narrations/" + c.ID.String() + ".wav",
	} {
		if !slices.Contains(keys, key) {
			t.Errorf("storage missing %s", key)
		}
	}

	if h.archive.count() == 0 {
		t.Error("no cycle snapshots archived")
	}
}

func TestFanoutDropsSupersededCycle(t *testing.T) {
	h := newHarness(t, &completer{replies: happyReplies()}, newConsumer())

	first, err := h.pipeline.Run(t.Context(), capture(t))
	if err != nil {
		t.Fatalf("Run first: %v", err)
	}
	h.clock.Advance(0)

	second, err := h.pipeline.Run(t.Context(), capture(t))
	if err != nil {
		t.Fatalf("Run second: %v", err)
	}
	h.clock.Advance(10 * time.Second)

	payloads := h.consumer.received()
	if len(payloads) != 1 {
		t.Fatalf("payloads = %d, want 1", len(payloads))
	}
	if payloads[0].Cycle != second.ID {
		t.Errorf("payload cycle = %s, want %s", payloads[0].Cycle, second.ID)
	}

	if slices.Contains(h.store.Keys(), "narrations/"+first.ID.String()+".wav") {
		t.Error("superseded cycle stored narration")
	}
	if _, ok := h.pipeline.Cycle(first.ID); ok {
		t.Error("first cycle still current")
	}
}

func TestHandoffWithoutConsumer(t *testing.T) {
	h := newHarness(t, &completer{replies: happyReplies()}, nil)

	c, err := h.pipeline.Run(t.Context(), capture(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	h.clock.Advance(10 * time.Second)

	got, _ := h.pipeline.Cycle(c.ID)
	if got.Handoff == nil || got.Handoff.Outcome != handoff.NoConsumer {
		t.Errorf("Handoff = %+v, want no_consumer", got.Handoff)
	}
	if _, ok := got.Errors[workflow.TaskHandoff]; !ok {
		t.Error("Errors[handoff] missing")
	}
}

func TestReshop(t *testing.T) {
	h := newHarness(t, &completer{replies: happyReplies()}, newConsumer())

	if _, err := h.pipeline.Reshop(t.Context(), uuid.Nil, nil); !errors.Is(err, workflow.ErrNoRecommendation) {
		t.Errorf("Reshop before any cycle = %v, want ErrNoRecommendation", err)
	}

	c, err := h.pipeline.Run(t.Context(), capture(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := h.pipeline.Reshop(t.Context(), uuid.New(), nil); !errors.Is(err, workflow.ErrStaleCycle) {
		t.Errorf("Reshop stale cycle = %v, want ErrStaleCycle", err)
	}

	saved := h.archive.count()
	coords := &workflow.Coordinates{Latitude: 45.4642, Longitude: 9.19}
	got, err := h.pipeline.Reshop(t.Context(), c.ID, coords)
	if err != nil {
		t.Fatalf("Reshop: %v", err)
	}
	if got.ID != c.ID {
		t.Errorf("cycle = %s, want %s", got.ID, c.ID)
	}
	if got.Product == nil || got.Product.Name == "" {
		t.Errorf("Product = %+v, want resolved product", got.Product)
	}
	if got.ShoppingQuery == "" {
		t.Error("ShoppingQuery empty")
	}
	if got.Location.City != "Rome" {
		t.Errorf("Location.City = %q, want default Rome without a geocoder", got.Location.City)
	}
	if h.archive.count() != saved+1 {
		t.Errorf("archived = %d, want %d", h.archive.count(), saved+1)
	}
}

func TestResend(t *testing.T) {
	h := newHarness(t, &completer{replies: happyReplies()}, newConsumer())

	c, err := h.pipeline.Run(t.Context(), capture(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := h.pipeline.Resend(t.Context(), uuid.Nil)
	if err != nil {
		t.Fatalf("Resend: %v", err)
	}
	if got.Handoff == nil || got.Handoff.Outcome != handoff.Accepted {
		t.Errorf("Handoff = %+v, want accepted", got.Handoff)
	}

	payloads := h.consumer.received()
	if len(payloads) != 1 {
		t.Fatalf("payloads = %d, want 1", len(payloads))
	}
	if payloads[0].Cycle != c.ID || payloads[0].Recommendation.TargetItem != c.Recommendation.TargetItem {
		t.Errorf("payload = %+v, want latest recommendation", payloads[0])
	}
}

func TestResendWithoutConsumer(t *testing.T) {
	h := newHarness(t, &completer{replies: happyReplies()}, nil)

	c, err := h.pipeline.Run(t.Context(), capture(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := h.pipeline.Resend(t.Context(), c.ID)
	if !errors.Is(err, handoff.ErrNoConsumer) {
		t.Fatalf("Resend error = %v, want ErrNoConsumer", err)
	}
	if workflow.MapHTTPStatus(err) != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", workflow.MapHTTPStatus(err))
	}
	if got.Handoff == nil || got.Handoff.Outcome != handoff.NoConsumer {
		t.Errorf("Handoff = %+v, want no_consumer", got.Handoff)
	}
}

func TestRedriveWhileAnalyzing(t *testing.T) {
	gate := make(chan struct{})
	c := &completer{
		replies: happyReplies(),
		gates:   map[prompts.Stage]chan struct{}{prompts.StageRoom: gate},
	}
	h := newHarness(t, c, newConsumer())

	if _, err := h.pipeline.Trigger(t.Context(), capture(t)); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	if _, err := h.pipeline.Reshop(t.Context(), uuid.Nil, nil); !errors.Is(err, workflow.ErrBusy) {
		t.Errorf("Reshop error = %v, want ErrBusy", err)
	}
	if _, err := h.pipeline.Resend(t.Context(), uuid.Nil); !errors.Is(err, workflow.ErrBusy) {
		t.Errorf("Resend error = %v, want ErrBusy", err)
	}

	close(gate)
	h.pipeline.Wait()
}

func TestRecommendationAndHistory(t *testing.T) {
	h := newHarness(t, &completer{replies: happyReplies()}, newConsumer())

	if _, err := h.pipeline.Recommendation(); !errors.Is(err, workflow.ErrNoRecommendation) {
		t.Errorf("Recommendation error = %v, want ErrNoRecommendation", err)
	}

	c, err := h.pipeline.Run(t.Context(), capture(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	rec, err := h.pipeline.Recommendation()
	if err != nil {
		t.Fatalf("Recommendation: %v", err)
	}
	if diff := cmp.Diff(*c.Recommendation, rec); diff != "" {
		t.Errorf("Recommendation mismatch (-want +got):\n%s", diff)
	}

	h.pipeline.ClearHistory()
	if got := h.pipeline.History(); len(got) != 0 {
		t.Errorf("History = %v, want empty", got)
	}
}

func TestStatus(t *testing.T) {
	h := newHarness(t, &completer{replies: happyReplies()}, newConsumer())

	st := h.pipeline.Status()
	if st.State != workflow.Idle || st.Text != workflow.StatusWaiting || st.Busy {
		t.Errorf("initial Status = %+v", st)
	}
	if st.Location.City != "Rome" {
		t.Errorf("Location.City = %q, want Rome", st.Location.City)
	}

	if _, err := h.pipeline.Run(t.Context(), capture(t)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	st = h.pipeline.Status()
	if st.Text != workflow.StatusInProgress {
		t.Errorf("Text = %q, want %q", st.Text, workflow.StatusInProgress)
	}
	if st.Cycle == nil || len(st.Cycle.Pending) != 4 {
		t.Errorf("Cycle = %+v, want 4 pending tasks", st.Cycle)
	}
}

func TestRunAfterClose(t *testing.T) {
	h := newHarness(t, &completer{replies: happyReplies()}, newConsumer())
	h.pipeline.Close()

	if _, err := h.pipeline.Run(t.Context(), capture(t)); !errors.Is(err, workflow.ErrClosed) {
		t.Errorf("Run error = %v, want ErrClosed", err)
	}
}

func TestParseRecommendation(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"fenced json", fencedRecommendation, nil},
		{"short target", `{"targetItem":"lamp","category":"lighting"}`, workflow.ErrValidation},
		{"missing category", `{"targetItem":"A tall brass floor lamp"}`, workflow.ErrValidation},
		{"prose", sorry, formatting.ErrParseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := workflow.ParseRecommendation(tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRecommendation: %v", err)
			}
			if rec.Category != scene.Furniture || rec.Placement != scene.Horizontal {
				t.Errorf("rec = %+v, want furniture/horizontal", rec)
			}
		})
	}
}

func TestParseRoom(t *testing.T) {
	room, err := workflow.ParseRoom(`Here you go: {"roomType":"patio","environment":"Outdoor"}`)
	if err != nil {
		t.Fatalf("ParseRoom: %v", err)
	}
	if room.Environment != scene.Outdoor {
		t.Errorf("Environment = %s, want outdoor", room.Environment)
	}
	if room.Style == "" || room.Layout == "" {
		t.Errorf("room = %+v, want defaults filled", room)
	}
}

func TestConfig(t *testing.T) {
	cfg := &workflow.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	want := workflow.Delays{
		Preview:   0,
		Narration: time.Second,
		Shopping:  1500 * time.Millisecond,
		Handoff:   3 * time.Second,
	}
	if diff := cmp.Diff(want, cfg.Delays()); diff != "" {
		t.Errorf("Delays mismatch (-want +got):\n%s", diff)
	}
	if cfg.HistoryCapacity != history.DefaultCapacity {
		t.Errorf("HistoryCapacity = %d, want %d", cfg.HistoryCapacity, history.DefaultCapacity)
	}

	bad := &workflow.Config{HandoffDelay: "-1s"}
	if err := bad.Finalize(nil); err == nil {
		t.Error("negative handoff delay accepted")
	}
}

func TestConfigEnv(t *testing.T) {
	t.Setenv("TEST_HISTORY_CAPACITY", "3")
	t.Setenv("TEST_HANDOFF_DELAY", "5s")

	cfg := &workflow.Config{}
	err := cfg.Finalize(&workflow.Env{
		HistoryCapacity: "TEST_HISTORY_CAPACITY",
		HandoffDelay:    "TEST_HANDOFF_DELAY",
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if cfg.HistoryCapacity != 3 {
		t.Errorf("HistoryCapacity = %d, want 3", cfg.HistoryCapacity)
	}
	if cfg.Delays().Handoff != 5*time.Second {
		t.Errorf("Handoff delay = %v, want 5s", cfg.Delays().Handoff)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{workflow.ErrBusy, http.StatusConflict},
		{workflow.ErrMissingInput, http.StatusBadRequest},
		{workflow.ErrNoRecommendation, http.StatusNotFound},
		{workflow.ErrClosed, http.StatusServiceUnavailable},
		{workflow.ErrStaleCycle, http.StatusConflict},
		{handoff.ErrNoConsumer, http.StatusServiceUnavailable},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := workflow.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
