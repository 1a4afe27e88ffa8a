package manager

import (
	"context"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("SYS", "Ciao")
	want := "<start_of_turn>system\nSYS\n<end_of_turn>\n<start_of_turn>user\nCiao\n<end_of_turn>\n<start_of_turn>model\n"
	if got != want {
		t.Fatalf("BuildPrompt =\n%q\nwant\n%q", got, want)
	}
}

func TestSystemPromptOverride(t *testing.T) {
	eng := newFakeEngine()
	m := NewWithConfig(ManagerConfig{Engine: eng, SystemPrompt: "Be brief."})
	if _, err := m.Generate(context.Background(), "ciao", "/m"); err != nil {
		t.Fatal(err)
	}
	eng.mu.Lock()
	defer eng.mu.Unlock()
	if eng.prompts[0] != BuildPrompt("Be brief.", "ciao") {
		t.Fatalf("prompt = %q", eng.prompts[0])
	}
}
