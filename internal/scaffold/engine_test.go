package scaffold

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/stackgen-labs/stackgen/internal/installer"
	"github.com/stackgen-labs/stackgen/internal/logging"
)

func demoBranches(root string) []Branch {
	return []Branch{
		{Spec: clientSpec(filepath.Join(root, "client")), Patches: []PatchRule{browserslistRule()}},
		{Spec: backendSpec(filepath.Join(root, "backend"))},
	}
}

func TestEngineRun_CompletesBothBranches(t *testing.T) {
	fsys := afero.NewMemMapFs()
	report := NewEngine(fsys).Run(context.Background(), demoBranches("/demo"))

	if report.Failed() {
		t.Fatalf("unexpected failure: %+v", report.Branches)
	}
	if len(report.Branches) != 2 || report.Branches[0].Branch != "client" || report.Branches[1].Branch != "backend" {
		t.Fatalf("reports out of order: %+v", report.Branches)
	}

	client := report.Branches[0]
	if client.Phase != PhaseCompleted || client.Status != StatusCompleted {
		t.Errorf("client phase/status = %s/%s", client.Phase, client.Status)
	}
	if diff := cmp.Diff([]string{"package.json"}, client.Patched); diff != "" {
		t.Errorf("patched mismatch (-want +got):\n%s", diff)
	}
	if got := readFile(t, fsys, "/demo/client/package.json"); !strings.Contains(got, "browserslist") {
		t.Errorf("client manifest not patched:\n%s", got)
	}
	if got := readFile(t, fsys, "/demo/backend/app.js"); got == "" {
		t.Error("backend app.js is empty")
	}
}

func TestEngineRun_Idempotent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	engine := NewEngine(fsys)

	first := engine.Run(context.Background(), demoBranches("/demo"))
	before, err := List(fsys, "/demo")
	if err != nil {
		t.Fatal(err)
	}
	manifest := readFile(t, fsys, "/demo/client/package.json")

	second := engine.Run(context.Background(), demoBranches("/demo"))
	after, err := List(fsys, "/demo")
	if err != nil {
		t.Fatal(err)
	}

	if first.Failed() || second.Failed() {
		t.Fatalf("runs failed: %+v / %+v", first.Branches, second.Branches)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("tree changed on second run (-first +second):\n%s", diff)
	}
	if len(second.Branches[0].Created) != 0 {
		t.Errorf("second run created %v", second.Branches[0].Created)
	}
	// The stamp re-writes package.json and the patch re-applies once.
	if got := readFile(t, fsys, "/demo/client/package.json"); got != manifest {
		t.Errorf("manifest differs after second run:\n%s\n---\n%s", manifest, got)
	}
}

func TestEngineRun_BackendFailureIsolated(t *testing.T) {
	base := afero.NewMemMapFs()
	fsys := &faultyFs{Fs: base, failMkdir: filepath.Join("/demo", "backend")}

	report := NewEngine(fsys).Run(context.Background(), demoBranches("/demo"))

	if !report.Failed() {
		t.Fatal("report should be failed")
	}
	if diff := cmp.Diff([]string{"backend"}, report.FailedBranches()); diff != "" {
		t.Errorf("failed branches (-want +got):\n%s", diff)
	}

	backend, _ := report.Branch("backend")
	if backend.Phase != PhaseDirectories {
		t.Errorf("backend failed in %s, want %s", backend.Phase, PhaseDirectories)
	}
	var se *Error
	if !errors.As(backend.Err, &se) || se.Kind != KindPathCreation || se.Branch != "backend" {
		t.Errorf("backend error = %#v", backend.Err)
	}

	client, _ := report.Branch("client")
	if client.Failed() {
		t.Fatalf("client should complete: %v", client.Err)
	}
	for _, f := range []string{"package.json", "src/index.jsx", ".gitignore", "public/index.html"} {
		if ok, _ := afero.Exists(base, filepath.Join("/demo/client", f)); !ok {
			t.Errorf("client file %s missing", f)
		}
	}
}

func TestEngineRun_FileFailureIsFailFast(t *testing.T) {
	base := afero.NewMemMapFs()
	// Sorted order: .gitignore, package.json, public/index.html, src/index.jsx.
	fsys := &faultyFs{Fs: base, failOpen: filepath.Join("/demo/client", "public", "index.html")}

	report := NewEngine(fsys).Run(context.Background(), demoBranches("/demo")[:1])
	client := report.Branches[0]

	if client.Phase != PhaseFiles || !IsKind(client.Err, KindFileWrite) {
		t.Fatalf("phase/err = %s/%v, want files/%s", client.Phase, client.Err, KindFileWrite)
	}
	if diff := cmp.Diff([]string{".gitignore", "package.json"}, client.Written); diff != "" {
		t.Errorf("written before failure (-want +got):\n%s", diff)
	}
	if ok, _ := afero.Exists(base, "/demo/client/src/index.jsx"); ok {
		t.Error("files after the failure must not be written")
	}
	if got := readFile(t, base, "/demo/client/package.json"); strings.Contains(got, "browserslist") {
		t.Error("patch phase must not run after a file failure")
	}
}

func TestEngineRun_PatchFailureKeepsBranchCompleted(t *testing.T) {
	fsys := afero.NewMemMapFs()
	branch := Branch{
		Spec: backendSpec("/demo/backend"),
		Patches: []PatchRule{
			{Target: "package.json", Marker: `"engines"`, Insert: JSONKey{Key: "engines", Value: map[string]string{"node": ">=18"}}},
			{Target: "app.js", Insert: AppendLine{Line: "// never reached"}},
		},
	}

	report := NewEngine(fsys).Run(context.Background(), []Branch{branch})
	r := report.Branches[0]

	if r.Failed() {
		t.Fatalf("patch failure must not fail the branch: %v", r.Err)
	}
	if len(r.Warnings) != 1 || !IsKind(r.Warnings[0], KindPatchParse) {
		t.Fatalf("warnings = %v, want one %s", r.Warnings, KindPatchParse)
	}
	if got := readFile(t, fsys, "/demo/backend/app.js"); strings.Contains(got, "never reached") {
		t.Error("patch phase should stop at the first failure")
	}
}

func TestEngineRun_InstallOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		status   installer.Status
		wantKind Kind
	}{
		{"success", installer.StatusSuccess, ""},
		{"process failed", installer.StatusProcessFailed, KindInstallProcess},
		{"invocation failed", installer.StatusInvocationFailed, KindInstallInvocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeInstaller{status: tt.status, exitCode: 1}
			engine := &Engine{Fs: afero.NewMemMapFs(), Installer: fake, InstallTimeout: time.Minute}

			branches := demoBranches("/demo")
			branches[0].Install = true

			report := engine.Run(context.Background(), branches)
			if report.Failed() {
				t.Fatalf("install outcome must not fail branches: %+v", report.Branches)
			}
			if diff := cmp.Diff([]string{"/demo/client"}, fake.dirs); diff != "" {
				t.Errorf("installer calls (-want +got):\n%s", diff)
			}
			if !fake.deadline {
				t.Error("install context should carry the timeout")
			}

			client := report.Branches[0]
			if client.Install == nil || client.Install.Status != tt.status {
				t.Fatalf("Install = %+v", client.Install)
			}
			if tt.wantKind == "" {
				if len(client.Warnings) != 0 {
					t.Errorf("unexpected warnings: %v", client.Warnings)
				}
				return
			}
			if len(client.Warnings) != 1 || !IsKind(client.Warnings[0], tt.wantKind) {
				t.Errorf("warnings = %v, want %s", client.Warnings, tt.wantKind)
			}
		})
	}
}

func TestEngineRun_NoInstallerSkipsInstall(t *testing.T) {
	branches := demoBranches("/demo")
	branches[0].Install = true

	report := NewEngine(afero.NewMemMapFs()).Run(context.Background(), branches)
	if report.Branches[0].Install != nil {
		t.Error("install should be skipped without an installer")
	}
}

func TestEngineRun_Parallel(t *testing.T) {
	fsys := afero.NewMemMapFs()
	var logs bytes.Buffer
	ctx := logging.WithLogger(context.Background(), logging.New(&logs, logging.Options{Level: "debug", Format: logging.FormatJSON}))

	engine := &Engine{Fs: fsys, Parallel: true}
	report := engine.Run(ctx, demoBranches("/demo"))

	if report.Failed() {
		t.Fatalf("unexpected failure: %+v", report.Branches)
	}
	if report.Branches[0].Branch != "client" || report.Branches[1].Branch != "backend" {
		t.Error("reports must keep input order")
	}
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
			t.Errorf("interleaved log line: %q", line)
		}
	}
	if !strings.Contains(logs.String(), `"branch":"backend"`) {
		t.Error("log events should carry the branch field")
	}
}

func TestEngineRun_InvalidSpecTouchesNothing(t *testing.T) {
	fsys := afero.NewMemMapFs()
	bad := Branch{Spec: Spec{Name: "client", Root: "/demo/client", Files: []FileEntry{{Path: "src/App.jsx"}}}}

	report := NewEngine(fsys).Run(context.Background(), []Branch{bad})
	r := report.Branches[0]
	if !r.Failed() || !IsKind(r.Err, KindInvalidSpec) {
		t.Fatalf("err = %v, want %s", r.Err, KindInvalidSpec)
	}
	if ok, _ := afero.Exists(fsys, "/demo"); ok {
		t.Error("invalid spec must not touch the filesystem")
	}
}

func TestReportPrint(t *testing.T) {
	report := &Report{Branches: []BranchReport{
		{Branch: "client", Phase: PhaseCompleted, Status: StatusCompleted, Created: []string{"."}, Written: []string{"a", "b"}, Patched: []string{"package.json"},
			Install: &installer.Outcome{Request: installer.Request{Command: "npm"}, Status: installer.StatusSuccess}},
		{Branch: "backend", Phase: PhaseDirectories, Status: StatusFailed,
			Err: &Error{Kind: KindPathCreation, Branch: "backend", Msg: "creating directory /demo/backend"}},
	}}

	var buf bytes.Buffer
	report.Print(&buf)
	out := buf.String()

	for _, want := range []string{
		"client: completed",
		"[ OK ] 1 directories created, 2 files written",
		"[ OK ] patched package.json",
		"[ OK ] npm succeeded",
		"backend: failed in directories phase",
		"[FAIL] E_PATH_CREATION: creating directory /demo/backend",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestErrorFormatting(t *testing.T) {
	err := newError(KindFileWrite, "/p/a.js", errors.New("disk full"), "writing %s", "/p/a.js")
	if got := err.Error(); got != "E_FILE_WRITE: writing /p/a.js: disk full" {
		t.Errorf("Error() = %q", got)
	}
	if k, ok := KindOf(withBranch(err, "client")); !ok || k != KindFileWrite {
		t.Errorf("KindOf = %q, %v", k, ok)
	}
	if err.Branch != "client" {
		t.Errorf("Branch = %q, want client", err.Branch)
	}
	if IsKind(errors.New("plain"), KindFileWrite) {
		t.Error("plain errors have no kind")
	}
}
