package version

import (
	"encoding/json"
	"regexp"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion_FollowsSemverOrDev(t *testing.T) {
	if Version == "dev" {
		return
	}
	semver := regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[a-zA-Z0-9.]+)?(\+[a-zA-Z0-9.]+)?$`)
	require.True(t, semver.MatchString(Version), "Version should follow semver format, got: %s", Version)
}

func TestString(t *testing.T) {
	str := String()

	assert.Contains(t, str, "corpusexplorer "+Version)
	assert.Contains(t, str, "commit: "+Commit)
	assert.Contains(t, str, runtime.Version())
}

func TestShort(t *testing.T) {
	assert.Equal(t, Version, Short())
}

func TestGetInfo_JSON(t *testing.T) {
	// Given: the build info
	info := GetInfo()

	// When: encoding it
	data, err := json.Marshal(info)
	require.NoError(t, err)

	// Then: every field is present under its snake_case key
	var fields map[string]string
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, Version, fields["version"])
	assert.Equal(t, runtime.GOOS, fields["os"])
	assert.Equal(t, runtime.GOARCH, fields["arch"])
	assert.Equal(t, runtime.Version(), fields["go_version"])
	assert.Contains(t, fields, "commit")
	assert.Contains(t, fields, "date")
}

func TestFromBuildInfo(t *testing.T) {
	saved := [3]string{Version, Commit, Date}
	t.Cleanup(func() { Version, Commit, Date = saved[0], saved[1], saved[2] })

	info := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-03-01T10:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	t.Run("defaults are filled", func(t *testing.T) {
		Version, Commit, Date = "dev", "unknown", "unknown"
		fromBuildInfo(info)

		assert.Equal(t, "v1.4.0", Version)
		assert.Equal(t, "0123456789ab-dirty", Commit)
		assert.Equal(t, "2026-03-01T10:00:00Z", Date)
	})

	t.Run("ldflags win", func(t *testing.T) {
		Version, Commit, Date = "v2.0.0", "feedbee", "2026-01-01"
		fromBuildInfo(info)

		assert.Equal(t, "v2.0.0", Version)
		assert.Equal(t, "feedbee", Commit)
		assert.Equal(t, "2026-01-01", Date)
	})

	t.Run("devel build keeps dev", func(t *testing.T) {
		Version, Commit, Date = "dev", "unknown", "unknown"
		fromBuildInfo(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})

		assert.Equal(t, "dev", Version)
		assert.Equal(t, "unknown", Commit)
	})
}
