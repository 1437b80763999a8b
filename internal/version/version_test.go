package version

import "testing"

func setBuild(t *testing.T, v, c, b string) {
	t.Helper()
	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	t.Cleanup(func() {
		Version, Commit, BuildTime = origVersion, origCommit, origBuildTime
	})
	Version, Commit, BuildTime = v, c, b
}

func TestInfo_String(t *testing.T) {
	setBuild(t, "1.2.3", "abc1234", "2024-01-15T10:00:00Z")

	got := Get().String()
	want := "1.2.3 (abc1234) built 2024-01-15T10:00:00Z"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestInfo_LogAttrs(t *testing.T) {
	setBuild(t, "1.2.3", "abc1234", "now")

	attrs := Get().LogAttrs()
	if len(attrs)%2 != 0 {
		t.Fatalf("LogAttrs() has odd length %d", len(attrs))
	}

	got := map[any]any{}
	for i := 0; i < len(attrs); i += 2 {
		got[attrs[i]] = attrs[i+1]
	}
	if got["version"] != "1.2.3" || got["commit"] != "abc1234" || got["build_time"] != "now" {
		t.Errorf("LogAttrs() = %v", attrs)
	}
}

func TestDefaultValues(t *testing.T) {
	// ldflags may override these in production builds.
	info := Get()
	if info.Version == "" || info.Commit == "" || info.BuildTime == "" {
		t.Errorf("Get() = %+v, want no empty fields", info)
	}
}
