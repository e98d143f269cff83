package oven

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseStylesheetBasic(t *testing.T) {
	src := `
		@namespace c "http://cnx.rice.edu/cnxml";
		div.note {
			content: "note: " content();
		}
		title {
			class: "heading";
		}
	`
	store, namespaces, err := parseStylesheet(discardTestLogger(), src)
	require.NoError(t, err)
	require.Equal(t, "http://cnx.rice.edu/cnxml", namespaces["c"])
	require.Len(t, store.byPass["default"], 2)
}

func TestResolvePassOrderDefaultFirstWhenMixed(t *testing.T) {
	store, _, err := parseStylesheet(discardTestLogger(), `
		div { class: "x"; }
		div:pass("2") { class: "y"; }
		div:pass("1") { class: "z"; }
		div:pass("alpha") { class: "w"; }
	`)
	require.NoError(t, err)
	require.Equal(t, []string{"0", "1", "2", "alpha"}, store.order)
}

func TestResolvePassOrderDefaultAloneStaysDefault(t *testing.T) {
	store, _, err := parseStylesheet(discardTestLogger(), `
		div { class: "x"; }
		div:pass("alpha") { class: "y"; }
	`)
	require.NoError(t, err)
	require.Equal(t, []string{"default", "alpha"}, store.order)
}

func TestParseNamespaceAtRuleRejectsDefaultNamespace(t *testing.T) {
	store, namespaces, err := parseStylesheet(discardTestLogger(), `
		@namespace "http://example.com/default";
		div { class: "x"; }
	`)
	require.NoError(t, err)
	require.Empty(t, namespaces)
	require.Len(t, store.byPass["default"], 1)
}
