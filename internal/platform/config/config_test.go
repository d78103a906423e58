package config

import (
	"testing"
	"time"

	"quotary/internal/platform/testkit"
)

func TestPrefixChaining(t *testing.T) {
	t.Setenv("QUOTARY_TEST_QUOTES_VOTE_THRESHOLD", "5")

	root := New().Prefix("QUOTARY_TEST_")
	quotes := root.Prefix("QUOTES_")
	if got := quotes.MayInt("VOTE_THRESHOLD", 3); got != 5 {
		t.Fatalf("MayInt = %d, want 5", got)
	}
}

func TestMustString(t *testing.T) {
	t.Setenv("QUOTARY_TEST_DBURL", "postgres://localhost/quotary")

	c := New().Prefix("QUOTARY_TEST_")
	if got := c.MustString("DBURL"); got != "postgres://localhost/quotary" {
		t.Fatalf("MustString = %q", got)
	}
	testkit.MustPanic(t, func() { c.MustString("MISSING_KEY") })

	t.Setenv("QUOTARY_TEST_BLANK", "   ")
	testkit.MustPanic(t, func() { c.MustString("BLANK") })
}

func TestMustInt(t *testing.T) {
	t.Setenv("QUOTARY_TEST_PORT", "4000")
	t.Setenv("QUOTARY_TEST_JUNK", "4k")

	c := New().Prefix("QUOTARY_TEST_")
	if got := c.MustInt("PORT"); got != 4000 {
		t.Fatalf("MustInt = %d", got)
	}
	testkit.MustPanic(t, func() { c.MustInt("JUNK") })
}

func TestMayAccessorsFallBack(t *testing.T) {
	t.Setenv("QUOTARY_TEST_STR", "value")
	t.Setenv("QUOTARY_TEST_BAD_INT", "nope")
	t.Setenv("QUOTARY_TEST_BOOL", "true")
	t.Setenv("QUOTARY_TEST_DUR", "90s")
	t.Setenv("QUOTARY_TEST_BAD_DUR", "soon")

	c := New().Prefix("QUOTARY_TEST_")

	if got := c.MayString("STR", "def"); got != "value" {
		t.Fatalf("MayString = %q", got)
	}
	if got := c.MayString("ABSENT", "def"); got != "def" {
		t.Fatalf("MayString absent = %q", got)
	}
	if got := c.MayInt("BAD_INT", 7); got != 7 {
		t.Fatalf("MayInt junk = %d", got)
	}
	if got := c.MayBool("BOOL", false); !got {
		t.Fatal("MayBool = false")
	}
	if got := c.MayBool("ABSENT", true); !got {
		t.Fatal("MayBool absent should return default")
	}
	if got := c.MayDuration("DUR", time.Minute); got != 90*time.Second {
		t.Fatalf("MayDuration = %v", got)
	}
	if got := c.MayDuration("BAD_DUR", time.Minute); got != time.Minute {
		t.Fatalf("MayDuration junk = %v", got)
	}
}
