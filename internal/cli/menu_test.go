package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srank/internal/core"
	"srank/internal/ranking"
	"srank/internal/services"
)

type fakeActions struct {
	runs     int
	clears   int
	runErr   error
	clearErr error
	cancel   context.CancelFunc
}

func (f *fakeActions) Run(context.Context) (*services.RunResult, error) {
	f.runs++
	if f.cancel != nil {
		f.cancel()
	}
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &services.RunResult{
		Ranked: []core.RankedFund{{Fund: core.Fund{Ticker: "HGLG11"}, CompositeRank: 2}},
		Stats:  ranking.Stats{Found: 10, InSector: 5, Mature: 3, Consistent: 1, Ranked: 1},
		Files:  []string{"files/fundos-srank-x.json"},
	}, nil
}

func (f *fakeActions) ClearCache(context.Context) error {
	f.clears++
	return f.clearErr
}

func runMenu(t *testing.T, input string, actions *fakeActions) string {
	t.Helper()
	var out bytes.Buffer
	err := NewMenu(strings.NewReader(input), &out, actions, nil).Loop(context.Background())
	require.NoError(t, err)
	return out.String()
}

func TestMenu_RunClearExit(t *testing.T) {
	actions := &fakeActions{}
	out := runMenu(t, "1\n 2 \n0\n1\n", actions)

	assert.Equal(t, 1, actions.runs, "input after 0 is not read")
	assert.Equal(t, 1, actions.clears)
	assert.Equal(t, 3, strings.Count(out, MenuPrompt))
	assert.Contains(t, out, "HGLG11")
	assert.Contains(t, out, MenuGenerated)
	assert.Contains(t, out, MenuCleared)
	assert.True(t, strings.HasSuffix(out, MenuExiting+"\n"))
}

func TestMenu_InvalidOptionReprompts(t *testing.T) {
	actions := &fakeActions{}
	out := runMenu(t, "9\n\nabc\n0\n", actions)

	assert.Equal(t, 3, strings.Count(out, MenuInvalid))
	assert.Equal(t, 4, strings.Count(out, MenuPrompt))
	assert.Zero(t, actions.runs)
}

func TestMenu_EOFExits(t *testing.T) {
	out := runMenu(t, "2\n", &fakeActions{})
	assert.Contains(t, out, MenuCleared)
	assert.True(t, strings.HasSuffix(out, MenuExiting+"\n"))
}

func TestMenu_FailuresKeepLooping(t *testing.T) {
	actions := &fakeActions{
		runErr:   errors.New("funds: malformed JSON"),
		clearErr: errors.New("database is locked"),
	}
	out := runMenu(t, "1\n2\n1\n0\n", actions)

	assert.Equal(t, 2, actions.runs)
	assert.Equal(t, 2, strings.Count(out, MenuRunFailed))
	assert.Contains(t, out, "malformed JSON")
	assert.Contains(t, out, MenuClearError+" database is locked")
	assert.NotContains(t, out, MenuGenerated)
}

func TestMenu_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	actions := &fakeActions{cancel: cancel}

	var out bytes.Buffer
	err := NewMenu(strings.NewReader("1\n1\n1\n"), &out, actions, nil).Loop(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, actions.runs)
	assert.Contains(t, out.String(), MenuExiting)
}

func TestMenu_CancelWhileWaitingForInput(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- NewMenu(pr, &out, &fakeActions{}, nil).Loop(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(out.String(), MenuExiting+"\n"))
	case <-time.After(2 * time.Second):
		t.Fatal("menu still waiting for input after cancellation")
	}
}

func TestMenu_ReadsLinesFromSlowInput(t *testing.T) {
	pr, pw := io.Pipe()
	actions := &fakeActions{}

	go func() {
		_, _ = io.WriteString(pw, "2\n")
		time.Sleep(20 * time.Millisecond)
		_, _ = io.WriteString(pw, "0\n")
		_ = pw.Close()
	}()

	var out bytes.Buffer
	require.NoError(t, NewMenu(pr, &out, actions, nil).Loop(context.Background()))
	assert.Equal(t, 1, actions.clears)
	assert.Equal(t, 2, strings.Count(out.String(), MenuPrompt))
}
