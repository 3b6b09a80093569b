package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// runCmd executes the root command with args and stdin, returning its output.
func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return runCmdContext(t, context.Background(), strings.NewReader(stdin), args...)
}

func runCmdContext(t *testing.T, ctx context.Context, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	// Reset bound variables and sticky Changed state across invocations
	cfgFile, debug, dataPath = "", false, ""
	rankTop, rankJSONPath, rankChart = 0, "", false
	anaOutputPath, anaSampleRows, anaGroupBy = "", 5, nil
	anaCorr, anaOutliers, anaOutlierThr, anaRaw = true, true, 3.5, false
	for _, name := range []string{"config", "debug", "data"} {
		if fl := rootCmd.PersistentFlags().Lookup(name); fl != nil {
			fl.Changed = false
		}
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// writeReviews writes twelve complete reviews over three countries plus one
// review without a price.
func writeReviews(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(",country,description,points,price,province,region_1,variety,winery\n")
	descs := []string{"Ripe cherry and spice.", "Firm tannic grip.", "Cherry tannic finish."}
	prices := []int{10, 20, 30, 40}
	points := []int{85, 88, 84, 90}
	row := 0
	for c, country := range []string{"US", "France", "Italy"} {
		for i := range prices {
			variety := "Syrah"
			if i%2 == 1 {
				variety = "Grenache"
			}
			fmt.Fprintf(&b, "%d,%s,%q,%d,%d,%s North,%s Valley,%s,%s Estate\n",
				row, country, descs[(c+i)%3], points[i]+c, prices[i], country, country, variety, country)
			row++
		}
	}
	fmt.Fprintf(&b, "%d,Chile,\"Bright.\",87,,Maule,,Syrah,Casa\n", row)
	path := filepath.Join(dir, "reviews.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write reviews: %v", err)
	}
	return path
}

func TestCLI_ExploreDrilldown(t *testing.T) {
	home := isolateHome(t)
	data := writeReviews(t, home)

	out, err := runCmd(t, "country\ny\nxyz-not-a-country\nUS\nvariety\nn\n", "explore", data)
	if err != nil {
		t.Fatalf("explore failed: %v", err)
	}
	for _, want := range []string{
		"Welcome!\nThis program helps you find a good wine for the price!\n",
		"Here are the potential factors:\ncountry, description, province, region, variety, winery\n",
		"\nPlease select one:\n",
		"I'm sorry. xyz-not-a-country is not a valid country.",
		"Here are the potential factors:\ndescription, province, region, variety, winery\n",
		"Enjoy your wine!",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("explore output missing %q:\n%s", want, out)
		}
	}
	// The row without a price is dropped before ranking.
	if strings.Contains(out, "Chile") {
		t.Fatalf("uncleaned row reached the session:\n%s", out)
	}
}

func TestCLI_ExploreInvalidFactorExitsCleanly(t *testing.T) {
	home := isolateHome(t)
	data := writeReviews(t, home)

	out, err := runCmd(t, "colour\n", "--data", data, "explore")
	if err != nil {
		t.Fatalf("explore should not fail on an unknown factor: %v", err)
	}
	if !strings.Contains(out, "This factor was not found") {
		t.Fatalf("missing not-found message:\n%s", out)
	}
}

func TestCLI_ExploreEndOfInput(t *testing.T) {
	home := isolateHome(t)
	data := writeReviews(t, home)
	if _, err := runCmd(t, "", "explore", data); err != nil {
		t.Fatalf("closed stdin should end the session quietly: %v", err)
	}
}

func TestCLI_ExploreInterruptedWhileWaiting(t *testing.T) {
	home := isolateHome(t)
	data := writeReviews(t, home)
	in, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	out, err := runCmdContext(t, ctx, in, "explore", data)
	if err != nil {
		t.Fatalf("interrupt should end explore cleanly: %v", err)
	}
	if !strings.Contains(out, "Welcome!") {
		t.Fatalf("missing welcome:\n%s", out)
	}
}

func TestCLI_RankWithJSONAndChart(t *testing.T) {
	home := isolateHome(t)
	data := writeReviews(t, home)
	jsonPath := filepath.Join(home, "out", "country.json")

	out, err := runCmd(t, "", "rank", "country", data, "--top", "1", "--json", jsonPath, "--chart")
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	if !strings.Contains(out, "The biggest factors in good value") || !strings.Contains(out, "Points above expected for the price") {
		t.Fatalf("rank output incomplete:\n%s", out)
	}
	b, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var got struct {
		Factor  string `json:"factor"`
		Rows    int    `json:"rows"`
		Ranking []struct {
			Key string `json:"key"`
		} `json:"ranking"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if got.Factor != "country" || got.Rows != 12 || len(got.Ranking) != 3 {
		t.Fatalf("unexpected export: %+v", got)
	}
}

func TestCLI_RankErrors(t *testing.T) {
	home := isolateHome(t)
	data := writeReviews(t, home)

	if _, err := runCmd(t, "", "rank", "colour", data); err == nil || !strings.Contains(err.Error(), "unknown factor") {
		t.Fatalf("expected unknown factor error, got %v", err)
	}
	if _, err := runCmd(t, "", "rank", "country", filepath.Join(home, "missing.csv")); err == nil {
		t.Fatal("expected error for a missing dataset")
	}
	// Twelve reviews cannot support a hundred-word vocabulary.
	if _, err := runCmd(t, "", "rank", "description", data); err == nil {
		t.Fatal("expected insufficient data error for description")
	}
}

func TestCLI_AnalyzeWritesMarkdown(t *testing.T) {
	home := isolateHome(t)
	data := writeReviews(t, home)
	outPath := filepath.Join(home, "profile.md")

	if _, err := runCmd(t, "", "analyze", data, "-o", outPath, "--group-by", "country", "--sample-rows", "0"); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read profile: %v", err)
	}
	md := string(b)
	for _, want := range []string{"File: reviews.csv", "Rows: 12", "[VALUE MODEL]", "country=France (n=4)"} {
		if !strings.Contains(md, want) {
			t.Fatalf("profile missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "[HEAD AND SAMPLE ROWS]") {
		t.Fatalf("samples should be suppressed:\n%s", md)
	}

	out, err := runCmd(t, "", "analyze", data, "--raw")
	if err != nil {
		t.Fatalf("analyze --raw failed: %v", err)
	}
	if !strings.Contains(out, "Rows: 13") {
		t.Fatalf("raw profile should keep the incomplete row:\n%s", out)
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolateHome(t)

	if _, err := runCmd(t, "", "config", "set", "top_n", "3"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, err := runCmd(t, "", "config", "set", "show_chart", "true"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".winevalue", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out, err := runCmd(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "top_n: 3") || !strings.Contains(out, "show_chart: true") {
		t.Fatalf("unexpected config:\n%s", out)
	}

	if _, err := runCmd(t, "", "config", "set", "top_n", "many"); err == nil {
		t.Fatal("expected error for non-numeric top_n")
	}
	if _, err := runCmd(t, "", "config", "set", "vocab_size", "0"); err == nil {
		t.Fatal("expected validation error for vocab_size 0")
	}
	if _, err := runCmd(t, "", "config", "set", "colour", "red"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
