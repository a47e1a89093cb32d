package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "file:"+filepath.Join(t.TempDir(), "history.db"))
	t.Setenv("DB_DRIVER", "sqlite")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDemo(t *testing.T) {
	out, err := execute(t, "demo", "-v")
	require.NoError(t, err, out)
	assert.Equal(t, 3, strings.Count(out, "[ok]"))
	assert.Contains(t, out, "stress:")
}

func TestDomains(t *testing.T) {
	out, err := execute(t, "domains")
	require.NoError(t, err)
	assert.Contains(t, out, "physics")
	assert.Contains(t, out, "Физика")
}

func TestRun_StructuredJSON(t *testing.T) {
	out, err := execute(t, "run",
		"--task", "Найти новые сверхпроводящие материалы с высокой критической температурой",
		"--goal", "Создать материал, работающий при комнатной температуре",
		"--domain", "Математика,Физика",
		"--format", "json")
	require.NoError(t, err, out)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "accepted", resp["gate_decision"])
	assert.NotEmpty(t, resp["hypotheses"])
}

func TestRun_InvalidInput(t *testing.T) {
	_, err := execute(t, "run", "--task", "t", "--goal", "g", "--domain", "astrology")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown domain")

	_, err = execute(t, "run", "--prompt", "x", "--lang", "de")
	require.Error(t, err)
}

func TestBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"task,goal,constraints,domains,lang\n"+
			"Develop a safer treatment protocol for chronic disease,Improve patient outcomes,without chemistry; budget is limited,medicine;biology;chemistry,en\n"+
			"Повысить доступность лечения в сельских районах,Повысить доступность лечения,Нельзя повышать доступность лечения,Медицина,ru\n"),
		0o600))

	out, err := execute(t, "batch", path)
	require.NoError(t, err, out)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "accepted")
	assert.Contains(t, lines[1], "blocked")
}

func TestRunSaveThenHistory(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:"+filepath.Join(t.TempDir(), "shared.db"))
	t.Setenv("DB_DRIVER", "sqlite")
	run := func(args ...string) string {
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs(args)
		require.NoError(t, root.Execute(), out.String())
		return out.String()
	}

	out := run("run", "--prompt", "climate and education policy", "--lang", "en", "--save", "--format", "json")
	assert.Contains(t, out, `"status"`)

	out = run("history", "list")
	assert.Contains(t, out, "1 analyses")
	id := strings.Fields(out)[0]

	out = run("history", "show", id, "--format", "md")
	assert.Contains(t, out, "# HRE analysis")

	out = run("history", "delete", id)
	assert.Contains(t, out, "deleted "+id)
	assert.Contains(t, run("history", "list"), "0 analyses")
}
