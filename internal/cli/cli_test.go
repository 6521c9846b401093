package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/happyhackingspace/maxent"
)

const events = `play outlook=sunny temp=warm
play outlook=overcast temp=warm
stay outlook=rainy temp=cold
stay outlook=rainy wind
`

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	if err := New("test").runArgs(append([]string{"-s"}, args...), strings.NewReader(stdin), &stdout, &stderr); err != nil {
		t.Fatalf("maxent %s: %v\n%s", strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String()
}

func trainedModel(t *testing.T) (dir, eventsPath, modelPath string) {
	t.Helper()
	dir = t.TempDir()
	eventsPath = filepath.Join(dir, "events.txt")
	if err := os.WriteFile(eventsPath, []byte(events), 0o644); err != nil {
		t.Fatal(err)
	}
	modelPath = filepath.Join(dir, "model.bin.gz")
	run(t, "", "train", eventsPath, modelPath, "--algorithm", "QN", "--cutoff", "0", "--two-pass=false")
	return dir, eventsPath, modelPath
}

func TestTrainAndInspect(t *testing.T) {
	_, _, modelPath := trainedModel(t)

	out := run(t, "", "inspect", modelPath, "--json")
	var s maxent.Summary
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("inspect output is not JSON: %v\n%s", err, out)
	}
	if s.Type != "QN" || s.Predicates != 6 {
		t.Errorf("unexpected summary %+v", s)
	}

	out = run(t, "", "inspect", modelPath)
	if !strings.Contains(out, "Type:       QN") {
		t.Errorf("unexpected inspect output:\n%s", out)
	}
}

func TestRunReadsStdin(t *testing.T) {
	_, _, modelPath := trainedModel(t)

	out := run(t, "outlook=sunny temp=warm\n\noutlook=rainy temp=cold\n", "run", "--model", modelPath)
	var results []maxent.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("run output is not JSON: %v\n%s", err, out)
	}
	if len(results) != 2 || results[0].Outcome != "play" || results[1].Outcome != "stay" {
		t.Errorf("unexpected results %+v", results)
	}
	if results[0].Probs != nil {
		t.Errorf("probabilities shown without --proba: %v", results[0].Probs)
	}

	out = run(t, "outlook=rainy\n", "run", "--model", modelPath, "--proba", "--threshold", "0")
	results = nil
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || len(results[0].Probs) != 2 {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestConvertAndEvaluate(t *testing.T) {
	dir, eventsPath, modelPath := trainedModel(t)

	textPath := filepath.Join(dir, "model.txt")
	run(t, "", "convert", modelPath, textPath)
	data, err := os.ReadFile(textPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "QN\n") {
		t.Errorf("text model should start with its tag, got %q", string(data[:min(len(data), 10)]))
	}

	out := run(t, "", "evaluate", eventsPath, "--model", textPath)
	if !strings.Contains(out, "Accuracy: 100.0% (4/4)") {
		t.Errorf("unexpected evaluate output:\n%s", out)
	}
	if !strings.Contains(out, "Confusion matrix") {
		t.Errorf("missing confusion matrix:\n%s", out)
	}
}

func TestTrainRejectsBadParams(t *testing.T) {
	dir := t.TempDir()
	eventsPath := filepath.Join(dir, "events.txt")
	if err := os.WriteFile(eventsPath, []byte(events), 0o644); err != nil {
		t.Fatal(err)
	}
	paramsPath := filepath.Join(dir, "params.yaml")
	if err := os.WriteFile(paramsPath, []byte("algorithm: Boosting\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	err := New("test").runArgs([]string{"-s", "train", eventsPath, filepath.Join(dir, "m.bin"), "--params", paramsPath},
		strings.NewReader(""), &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}
