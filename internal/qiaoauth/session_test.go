package qiaoauth

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestSaveArtifacts(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "outputs")
	session := &DeviceSession{
		DeviceCode:   "dev-123",
		UserCode:     "USER-CODE",
		CodeVerifier: "verifier-456",
	}

	paths, err := session.SaveArtifacts(dir, "20260824_153000")
	if err != nil {
		t.Fatalf("SaveArtifacts: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("got %d artifacts, want 3", len(paths))
	}

	want := map[string]string{
		"qiagen_code_verifier_20260824_153000": "verifier-456",
		"qiagen_device_code_20260824_153000":   "dev-123",
		"qiagen_user_code_20260824_153000":     "USER-CODE",
	}
	for _, path := range paths {
		value, err := ReadArtifact(path)
		if err != nil {
			t.Fatalf("ReadArtifact(%s): %v", path, err)
		}
		name := filepath.Base(path)
		if value != want[name] {
			t.Errorf("%s = %q, want %q", name, value, want[name])
		}
		if runtime.GOOS != "windows" {
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat %s: %v", path, err)
			}
			if perm := info.Mode().Perm(); perm != 0o600 {
				t.Errorf("%s mode = %o, want 600", name, perm)
			}
		}
	}
}

func TestReadArtifactErrors(t *testing.T) {
	t.Parallel()

	if _, err := ReadArtifact(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected error for missing artifact")
	}

	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := ReadArtifact(empty); err == nil {
		t.Error("expected error for empty artifact")
	}
}
