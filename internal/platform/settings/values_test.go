package settings

import (
	"testing"

	"autoingest/internal/testutil"
)

func TestValueHelpers(t *testing.T) {
	values := map[string]string{
		"enabled":  " true ",
		"bad_bool": "maybe",
		"list":     "A, B",
		"empty":    "",
	}

	testutil.AssertTrue(t, GetBool(values, "enabled", false), "bool trimmed")
	testutil.AssertTrue(t, GetBool(values, "bad_bool", true), "bad bool uses default")
	testutil.AssertFalse(t, GetBool(nil, "enabled", false), "nil map")

	testutil.AssertStrings(t, GetList(values, "list", nil), []string{"A", "B"}, "list")
	testutil.AssertLen(t, GetList(values, "empty", []string{"Z"}), 0, "empty list")
	testutil.AssertStrings(t, GetList(values, "missing", []string{"Z"}), []string{"Z"}, "missing list")
}
