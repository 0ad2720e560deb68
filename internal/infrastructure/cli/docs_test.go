package cli

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/document"
)

var createdID = regexp.MustCompile(`Created document (\S+)`)

func TestDocsCmd_Lifecycle(t *testing.T) {
	root := mockWorkspace(t)
	first := writeFile(t, root, "v1.txt", "First version of my motivation letter.")
	second := writeFile(t, root, "v2.txt", "Second, sharper version of my motivation letter.")

	out, err := runCLI(t, "--project", root, "docs", "create", first, "--type", document.TypeMotivationLetter, "--program", "p1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	m := createdID.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no id in output %q", out)
	}
	id := m[1]

	out, err = runCLI(t, "--project", root, "docs", "update", id, second)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !strings.Contains(out, "version 2") {
		t.Errorf("unexpected update output %q", out)
	}

	out, err = runCLI(t, "--project", root, "docs", "versions", "--type", document.TypeMotivationLetter, "--program", "p1", "--json")
	if err != nil {
		t.Fatalf("versions failed: %v", err)
	}
	var docs []document.Document
	if err := json.Unmarshal([]byte(out), &docs); err != nil {
		t.Fatalf("versions output is not JSON: %v\n%s", err, out)
	}
	if len(docs) == 0 || docs[0].Version != 2 || docs[0].ProgramID != "p1" {
		t.Fatalf("expected newest version first, got %+v", docs)
	}

	out, err = runCLI(t, "--project", root, "docs", "show", id)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if strings.TrimSpace(out) != "Second, sharper version of my motivation letter." {
		t.Errorf("unexpected show output %q", out)
	}
}

func TestDocsCmd_VersionsEmpty(t *testing.T) {
	root := mockWorkspace(t)
	out, err := runCLI(t, "--project", root, "docs", "versions", "--type", document.TypeCV)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No cv documents stored.") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestDocsCmd_ShowUnknown(t *testing.T) {
	root := mockWorkspace(t)
	_, err := runCLI(t, "--project", root, "docs", "show", "missing")
	if !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
