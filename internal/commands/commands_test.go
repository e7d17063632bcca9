package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectie-app/projectie/internal/calendar"
	"github.com/projectie-app/projectie/internal/config"
	"github.com/projectie-app/projectie/internal/store/boltstore"
	"github.com/projectie-app/projectie/internal/store/csvstore"
	"github.com/projectie-app/projectie/internal/tracker"
)

// fixedNow is a Wednesday.
var fixedNow = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

func runProjectie(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(calendar.FixedClock(fixedNow))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--dir", dir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runProjectie(t, dir, args...)
	require.NoError(t, err, "projectie %s", strings.Join(args, " "))
	return out
}

// newProject initializes a UTC project with one selected account opened at 1000.
func newProject(t *testing.T, initArgs ...string) string {
	t.Helper()
	dir := t.TempDir()
	mustRun(t, dir, append([]string{"init", "--timezone", "UTC"}, initArgs...)...)
	mustRun(t, dir, "account", "add", "Everyday", "--initial", "1000")
	return dir
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "init", "--timezone", "UTC")
	assert.Contains(t, out, "Initialized Projectie project")

	assert.FileExists(t, filepath.Join(dir, config.FileName))
	assert.DirExists(t, filepath.Join(dir, "data"))
	assert.DirExists(t, filepath.Join(dir, logDir))

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, config.StoreCSV, cfg.Store)
}

func TestInit_Twice(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "init")
	_, err := runProjectie(t, dir, "init")
	assert.ErrorContains(t, err, "already exists")
}

func TestInit_InvalidStore(t *testing.T) {
	_, err := runProjectie(t, t.TempDir(), "init", "--store", "postgres")
	assert.Error(t, err)
}

func TestNoProject(t *testing.T) {
	_, err := runProjectie(t, t.TempDir(), "balance")
	assert.ErrorContains(t, err, "projectie init")
}

func TestAccountAdd_SelectsFirst(t *testing.T) {
	dir := newProject(t)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.SelectedAccount)

	out := mustRun(t, dir, "account", "add", "Rainy Day", "--type", "saving")
	assert.Contains(t, out, "Created account Rainy Day")

	after, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, cfg.SelectedAccount, after.SelectedAccount, "second account does not steal the selection")

	list := mustRun(t, dir, "account", "list")
	assert.Contains(t, list, "Everyday")
	assert.Contains(t, list, "Rainy Day")
	assert.Equal(t, 1, strings.Count(list, "*"))
}

func TestAccountUse(t *testing.T) {
	dir := newProject(t)
	mustRun(t, dir, "account", "add", "Rainy Day", "--type", "saving")

	out := mustRun(t, dir, "account", "use", "rainy day")
	assert.Contains(t, out, "Selected Rainy Day")
	assert.Equal(t, "0.00\n", mustRun(t, dir, "balance"))

	_, err := runProjectie(t, dir, "account", "use", "nope")
	assert.ErrorContains(t, err, "no account matches")
}

func TestAccountAdd_InvalidType(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "init")
	_, err := runProjectie(t, dir, "account", "add", "X", "--type", "brokerage")
	assert.ErrorIs(t, err, tracker.ErrInvalidInput)
}

func TestTx_NoAccount(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "init")
	_, err := runProjectie(t, dir, "tx", "add", "Coffee", "--amount", "-3")
	assert.ErrorIs(t, err, tracker.ErrNoAccount)
}

func TestBalanceAndGoals(t *testing.T) {
	dir := newProject(t)
	mustRun(t, dir, "tx", "add", "Groceries", "--amount", "-50", "--date", "2025-01-01", "--every", "weekly", "--count", "4", "--category", "groceries")
	mustRun(t, dir, "tx", "add", "Salary", "--amount", "500", "--date", "2025-02-01", "--every", "monthly", "--count", "3", "--category", "salary")

	assert.Equal(t, "1000.00\n", mustRun(t, dir, "balance"))
	assert.Equal(t, "850.00\n", mustRun(t, dir, "balance", "--at", "2025-01-22"))
	assert.Equal(t, "1350.00\n", mustRun(t, dir, "balance", "--at", "2025-02-01"))

	mustRun(t, dir, "goal", "add", "Holiday", "--target", "2000")
	mustRun(t, dir, "goal", "add", "House", "--target", "100000")
	goals := mustRun(t, dir, "goal", "list")
	assert.Contains(t, goals, "2025-04-01")
	assert.Contains(t, goals, "50%")
	assert.Contains(t, goals, "never")

	mustRun(t, dir, "goal", "delete", "house")
	assert.NotContains(t, mustRun(t, dir, "goal", "list"), "House")
}

func TestTxAddAndList(t *testing.T) {
	dir := newProject(t)
	out := mustRun(t, dir, "tx", "add", "Rent", "--amount", "-900", "--date", "2025-01-31", "--every", "monthly", "--until", "2025-04-30")
	assert.Contains(t, out, "4 occurrences 2025-01-31..2025-04-30")

	out = mustRun(t, dir, "tx", "add", "Coffee", "--amount", "-3.5", "--date", "2025-01-02")
	assert.Contains(t, out, "on 2025-01-02")

	list := mustRun(t, dir, "tx", "list")
	assert.Contains(t, list, "Rent")
	assert.Contains(t, list, "-900.00")
	assert.Contains(t, list, "4 left until 2025-04-30")
	assert.Contains(t, list, "once")

	_, err := runProjectie(t, dir, "tx", "add", "Bad", "--amount", "-1", "--every", "hourly")
	assert.ErrorIs(t, err, tracker.ErrInvalidInput)
}

func TestTxAdd_Amount(t *testing.T) {
	dir := newProject(t)

	_, err := runProjectie(t, dir, "tx", "add", "Coffee")
	assert.ErrorContains(t, err, `"amount" not set`)
	_, err = runProjectie(t, dir, "tx", "add", "Coffee", "--amount", "lots")
	assert.ErrorContains(t, err, "invalid amount")

	mustRun(t, dir, "tx", "add", "Coffee", "--amount", "-3.50", "--date", "2025-01-02")
	mustRun(t, dir, "tx", "add", "Tip", "--amount=-1.25", "--date", "2025-01-02")
	assert.Equal(t, "995.25\n", mustRun(t, dir, "balance", "--at", "2025-01-02"))
}

func TestTxAdd_RecurrenceFlagsNeedEvery(t *testing.T) {
	dir := newProject(t)
	for _, flag := range [][]string{{"--count", "3"}, {"--until", "2025-03-01"}, {"--interval", "2"}} {
		args := append([]string{"tx", "add", "Rent", "--amount", "-900"}, flag...)
		_, err := runProjectie(t, dir, args...)
		assert.ErrorContains(t, err, flag[0]+" needs --every")
	}
	assert.NotContains(t, mustRun(t, dir, "tx", "list"), "Rent")
}

func TestTxDelete(t *testing.T) {
	dir := newProject(t)
	mustRun(t, dir, "tx", "add", "Groceries", "--amount", "-50", "--date", "2025-01-01", "--every", "weekly", "--count", "4")

	mustRun(t, dir, "tx", "delete", "groceries", "--occurrence", "2025-01-08")
	assert.Equal(t, "900.00\n", mustRun(t, dir, "balance", "--at", "2025-01-22"))

	mustRun(t, dir, "tx", "delete", "groceries", "--from", "2025-01-15")
	assert.Equal(t, "1000.00\n", mustRun(t, dir, "balance", "--at", "2025-01-22"))

	_, err := runProjectie(t, dir, "tx", "delete", "groceries", "--occurrence", "2025-01-01", "--from", "2025-01-01")
	assert.ErrorContains(t, err, "mutually exclusive")

	mustRun(t, dir, "tx", "delete", "groceries")
	assert.NotContains(t, mustRun(t, dir, "tx", "list"), "Groceries")
}

func TestReset(t *testing.T) {
	dir := newProject(t)
	mustRun(t, dir, "tx", "add", "Groceries", "--amount", "-50", "--date", "2025-01-01", "--every", "weekly", "--count", "4")
	mustRun(t, dir, "reset", "add", "--balance", "200", "--date", "2025-01-16")

	assert.Equal(t, "150.00\n", mustRun(t, dir, "balance", "--at", "2025-01-22"))
	list := mustRun(t, dir, "reset", "list")
	assert.Contains(t, list, "initial")
	assert.Contains(t, list, "2025-01-16")
}

func TestReset_Overdraft(t *testing.T) {
	dir := newProject(t)
	out := mustRun(t, dir, "reset", "add", "--balance", "-20", "--date", "2025-01-10")
	assert.Contains(t, out, "Balance set to -20.00 on 2025-01-10")
	assert.Equal(t, "-20.00\n", mustRun(t, dir, "balance", "--at", "2025-01-10"))

	_, err := runProjectie(t, dir, "reset", "add")
	assert.ErrorContains(t, err, `"balance" not set`)
}

func TestChart(t *testing.T) {
	dir := newProject(t)
	mustRun(t, dir, "tx", "add", "Groceries", "--amount", "-50", "--date", "2025-01-01", "--every", "weekly", "--count", "4")

	out := mustRun(t, dir, "chart", "--period", "week", "--offset", "1")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "week 2025-01-06..2025-01-12", lines[0])
	assert.Contains(t, lines[3], "950.00")

	custom := mustRun(t, dir, "chart", "--period", "custom", "--from", "2025-01-01", "--to", "2025-01-10", "--offset", "1")
	assert.Contains(t, custom, "custom 2025-01-11..2025-01-20")

	_, err := runProjectie(t, dir, "chart", "--period", "custom")
	assert.Error(t, err)
	_, err = runProjectie(t, dir, "chart", "--period", "decade")
	assert.Error(t, err)
}

func TestPeriods(t *testing.T) {
	dir := newProject(t)
	mustRun(t, dir, "tx", "add", "Groceries", "--amount", "-50", "--date", "2025-01-01", "--every", "weekly", "--count", "4")

	out := mustRun(t, dir, "periods", "--period", "month")
	assert.Equal(t, 5, strings.Count(out, "== "))
	assert.Contains(t, out, "== 2025-01-01..2025-01-31 (+0)")
	assert.Contains(t, out, "closing 850.00")
	assert.Contains(t, out, "balance set to 1000.00")
	assert.Contains(t, out, "== 2024-11-01..2024-11-30 (-2)")
}

func disableSweep(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, config.Update(filepath.Join(dir, config.FileName), func(c *config.Config) {
		c.Archive.OnStart = false
	}))
}

func TestArchive(t *testing.T) {
	dir := newProject(t)
	disableSweep(t, dir)
	mustRun(t, dir, "tx", "add", "Rent", "--amount", "-900", "--date", "2024-12-01", "--every", "monthly", "--count", "3")

	out := mustRun(t, dir, "archive")
	assert.Contains(t, out, "Archived 1 occurrences")

	out = mustRun(t, dir, "archive")
	assert.Contains(t, out, "Archived 0 occurrences")

	list := mustRun(t, dir, "tx", "list", "--archived")
	assert.Contains(t, list, "archived")
	assert.Contains(t, list, "2 left until 2025-02-01")

	data, err := os.ReadFile(filepath.Join(dir, logDir, "activity.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "archive_occurrence")
}

func TestArchive_OnStart(t *testing.T) {
	dir := newProject(t)
	mustRun(t, dir, "tx", "add", "Rent", "--amount", "-900", "--date", "2024-11-01", "--every", "monthly", "--count", "2")

	// Listing runs the background sweep to completion first.
	list := mustRun(t, dir, "tx", "list", "--archived")
	assert.Equal(t, 2, strings.Count(list, "archived"))
	assert.NotContains(t, mustRun(t, dir, "tx", "list"), "Rent")
}

func TestImport(t *testing.T) {
	dir := newProject(t)
	csvPath := filepath.Join(t.TempDir(), "jan.csv")
	data := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n" +
		"DEBIT,01/06/2025,WHOLE FOODS MARKET,-86.20,DEBIT_CARD,913.80,\n" +
		"CREDIT,01/15/2025,ACME CORP PAYROLL,3200.00,ACH_CREDIT,4113.80,\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(data), 0o644))

	out := mustRun(t, dir, "import", csvPath)
	assert.Contains(t, out, "Imported 2 of 2 transactions")

	list := mustRun(t, dir, "tx", "list")
	assert.Contains(t, list, "WHOLE FOODS MARKET")
	assert.Contains(t, list, "groceries")
	assert.Equal(t, "4113.80\n", mustRun(t, dir, "balance", "--at", "2025-01-31"))

	_, err := runProjectie(t, dir, "import", csvPath, "--format", "ofx")
	assert.ErrorContains(t, err, "unknown format")
}

func TestImport_SameFileTwice(t *testing.T) {
	dir := newProject(t)
	csvPath := filepath.Join(t.TempDir(), "jan.csv")
	data := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n" +
		"DEBIT,01/06/2025,WHOLE FOODS MARKET,-86.20,DEBIT_CARD,913.80,\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(data), 0o644))

	assert.Contains(t, mustRun(t, dir, "import", csvPath), "Imported 1 of 1 transactions")
	assert.Contains(t, mustRun(t, dir, "import", csvPath), "Imported 0 of 1 transactions")
	assert.Equal(t, "913.80\n", mustRun(t, dir, "balance", "--at", "2025-01-31"))
}

func TestBoltStore(t *testing.T) {
	dir := newProject(t, "--store", "bolt")
	mustRun(t, dir, "tx", "add", "Coffee", "--amount", "-3.5", "--date", "2025-01-02")

	assert.FileExists(t, filepath.Join(dir, "data", boltstore.FileName))
	assert.NoFileExists(t, filepath.Join(dir, "data", csvstore.TransactionsFile))
	assert.Equal(t, "996.50\n", mustRun(t, dir, "balance", "--at", "2025-01-02"))
}
