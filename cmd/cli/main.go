package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/shrutilabs/ragasense/internal/audio"
	"github.com/shrutilabs/ragasense/internal/pitch"
	"github.com/shrutilabs/ragasense/internal/service"
	"github.com/shrutilabs/ragasense/pkg/logger"
)

// Global flags
var (
	dbPath    string
	configDir string
	tonicHz   float64
	algorithm string
	script    string
)

func init() {
	flag.StringVar(&dbPath, "db", getEnvOrDefault("RAGASENSE_DB_PATH", "ragasense.sqlite3"), "Path to the SQLite database file")
	flag.StringVar(&configDir, "configs", os.Getenv("RAGASENSE_CONFIG_DIR"), "Directory with reference tables (empty = embedded)")
	flag.Float64Var(&tonicHz, "tonic", 261.63, "Sa reference frequency in Hz")
	flag.StringVar(&algorithm, "algorithm", "acf", "Pitch tracking backend (acf or amdf)")
	flag.StringVar(&script, "script", "iast", "Notation script (iast, devanagari, kannada, tamil, telugu)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// createService builds the analysis service from the global flags
func createService() (*service.AnalysisService, error) {
	opts := []service.Option{
		service.WithDBPath(dbPath),
		service.WithTonic(tonicHz),
		service.WithAlgorithm(pitch.Algorithm(algorithm)),
		service.WithScript(script),
	}
	if configDir != "" {
		opts = append(opts, service.WithConfigDir(configDir))
	}
	return service.NewAnalysisService(opts...)
}

// cmdArgs holds the arguments after the command name, set in main.
var cmdArgs []string

func main() {
	log := logger.GetLogger()

	printBanner()

	// Global flags come before the command; flag.Parse stops at the first
	// non-flag argument.
	flag.Parse()
	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	cmdArgs = flag.Args()[1:]
	log.Infof("Executing command: %s", command)

	switch command {
	case "analyze":
		handleAnalyze()
	case "batch":
		handleBatch()
	case "ragas":
		handleRagas()
	case "raga":
		handleRaga()
	case "history":
		handleHistory()
	case "delete":
		handleDelete()
	case "demo":
		handleDemo()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
 ____                  ____
|  _ \ __ _  __ _  __ _/ ___|  ___ _ __  ___  ___
| |_) / _` + "`" + ` |/ _` + "`" + ` |/ _` + "`" + ` \___ \ / _ \ '_ \/ __|/ _ \
|  _ < (_| | (_| | (_| |___) |  __/ | | \__ \  __/
|_| \_\__,_|\__, |\__,_|____/ \___|_| |_|___/\___|
            |___/

       Carnatic Raga Analysis CLI Tool
`
	fmt.Println(banner)
}

func handleAnalyze() {
	log := logger.GetLogger()

	args := cmdArgs
	var audioPath string
	var flagArgs []string
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && audioPath == "" {
			audioPath = arg
		} else {
			flagArgs = append(flagArgs, args[i:]...)
			break
		}
	}

	analyzeCmd := flag.NewFlagSet("analyze", flag.ExitOnError)
	topN := analyzeCmd.Int("top", 5, "Number of raga candidates to show")
	analyzeCmd.Parse(flagArgs)

	if audioPath == "" {
		fmt.Println("Usage: ragasense analyze <audio.wav> [--top N]")
		os.Exit(1)
	}

	fmt.Println("\n🔧 Initializing service...")
	svc, err := createService()
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()
	service.WithTopN(*topN)(svc)

	fmt.Println("🎵 Analyzing recording...")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := svc.AnalyzeFile(ctx, audioPath)
	if err != nil {
		fmt.Printf("\n❌ Analysis failed: %v\n", err)
		log.Errorf("AnalyzeFile failed: %v", err)
		os.Exit(1)
	}

	printResult(result)
}

func printResult(result *service.Result) {
	fmt.Printf("\n✅ Analysis complete (%.1f s of audio)\n", result.DurationMs/1000)
	if result.ID != "" {
		fmt.Printf("   Saved as: %s\n", result.ID)
	}

	fmt.Printf("\n🎼 Transcription (%d phrases, %d notes):\n", len(result.Transcription.Phrases), result.Transcription.NumNotes())
	fmt.Println(result.Notation)

	if len(result.Gamakas) > 0 {
		counts := make(map[string]int)
		for _, g := range result.Gamakas {
			counts[string(g.Result.Type)]++
		}
		fmt.Printf("🌊 Gamakas across %d windows:", len(result.Gamakas))
		for _, t := range []string{"steady", "kampita", "jaru", "sphuritham"} {
			if counts[t] > 0 {
				fmt.Printf("  %s=%d", t, counts[t])
			}
		}
		fmt.Println()
	}

	if len(result.Candidates) == 0 {
		fmt.Println("\n❌ No raga candidate cleared the confidence floor")
		return
	}

	fmt.Printf("\n🏆 Raga candidates:\n\n")
	for i, c := range result.Candidates {
		fmt.Printf("%d. #%d %s\n", i+1, c.Raga.Number, c.Raga.Name)
		fmt.Printf("   Confidence: %.3f (set %.3f + sequence %.3f)\n",
			c.Confidence, c.Details.SetScore, c.Details.SequenceBonus)
		if len(c.Raga.Aliases) > 0 {
			fmt.Printf("   Also known as: %s\n", strings.Join(c.Raga.Aliases, ", "))
		}
		fmt.Println()
	}
}

// handleBatch analyzes every WAV file under a directory with a worker pool.
func handleBatch() {
	log := logger.GetLogger()

	args := cmdArgs
	var root string
	var flagArgs []string
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && root == "" {
			root = arg
		} else {
			flagArgs = append(flagArgs, args[i:]...)
			break
		}
	}

	batchCmd := flag.NewFlagSet("batch", flag.ExitOnError)
	workers := batchCmd.Int("workers", 0, "Concurrent workers (0=auto)")
	batchCmd.Parse(flagArgs)

	if root == "" {
		fmt.Println("Usage: ragasense batch <directory> [--workers N]")
		os.Exit(1)
	}

	tracks, err := collectWavFiles(root)
	if err != nil {
		fmt.Printf("❌ Failed to scan %s: %v\n", root, err)
		os.Exit(1)
	}
	if len(tracks) == 0 {
		fmt.Printf("❌ No .wav files under %s\n", root)
		os.Exit(1)
	}

	svc, err := createService()
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	p := mpb.New(mpb.WithWidth(64))
	bar := p.AddBar(int64(len(tracks)),
		mpb.PrependDecorators(
			decor.Name("Analyzing: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)

	w := *workers
	if w <= 0 {
		w = runtime.NumCPU() - 1
		if w < 2 {
			w = 2
		}
	}

	type batchResult struct {
		path   string
		result *service.Result
		err    error
	}

	jobs := make(chan string, len(tracks))
	results := make(chan batchResult, len(tracks))

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < w; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				start := time.Now()
				res, err := svc.AnalyzeFile(ctx, path)
				bar.EwmaIncrement(time.Since(start))
				results <- batchResult{path: path, result: res, err: err}
			}
		}()
	}

	for _, t := range tracks {
		jobs <- t
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	analyzed := 0
	failed := 0
	summary := make([]string, 0, len(tracks))
	for r := range results {
		if r.err != nil {
			failed++
			log.Warnf("Failed to analyze %s: %v", r.path, r.err)
			continue
		}
		analyzed++
		top := "(no candidate)"
		if len(r.result.Candidates) > 0 {
			c := r.result.Candidates[0]
			top = fmt.Sprintf("#%d %s (%.3f)", c.Raga.Number, c.Raga.Name, c.Confidence)
		}
		summary = append(summary, fmt.Sprintf("%s -> %s", filepath.Base(r.path), top))
	}
	p.Wait()

	fmt.Printf("\n✅ Analyzed %d file(s), %d failed\n\n", analyzed, failed)
	for _, line := range summary {
		fmt.Println("  " + line)
	}
}

func collectWavFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".wav") {
			return nil
		}
		out = append(out, path)
		return nil
	})
	return out, err
}

func handleRagas() {
	svc := mustCreateService()
	defer svc.Close()

	ragas := svc.Matcher().Ragas()
	fmt.Printf("\n📚 %d Melakarta ragas:\n\n", len(ragas))
	for _, rg := range ragas {
		line := fmt.Sprintf("%2d. %-22s %s", rg.Number, rg.Name, strings.Join(rg.Arohana, " "))
		if len(rg.Aliases) > 0 {
			line += fmt.Sprintf("  (aka %s)", strings.Join(rg.Aliases, ", "))
		}
		fmt.Println(line)
	}
}

func handleRaga() {
	if len(cmdArgs) < 1 {
		fmt.Println("Usage: ragasense raga <name|number>")
		os.Exit(1)
	}
	key := cmdArgs[0]

	svc := mustCreateService()
	defer svc.Close()

	raga := svc.Matcher().RagaByName(key)
	if raga == nil {
		if number, err := strconv.Atoi(key); err == nil {
			raga = svc.Matcher().RagaByNumber(number)
		}
	}
	if raga == nil {
		fmt.Printf("❌ Raga %q not found\n", key)
		os.Exit(1)
	}

	fmt.Printf("\n🎶 Melakarta #%d: %s\n", raga.Number, raga.Name)
	fmt.Printf("   Arohana:   %s\n", strings.Join(raga.Arohana, " "))
	fmt.Printf("   Avarohana: %s\n", strings.Join(raga.Avarohana, " "))
	fmt.Printf("   Ma type:   %s\n", raga.MaType)
	if len(raga.Aliases) > 0 {
		fmt.Printf("   Aliases:   %s\n", strings.Join(raga.Aliases, ", "))
	}
}

func handleHistory() {
	svc := mustCreateService()
	defer svc.Close()

	analyses, err := svc.History(20)
	if err != nil {
		fmt.Printf("❌ Failed to list history: %v\n", err)
		os.Exit(1)
	}

	if len(analyses) == 0 {
		fmt.Println("\n📭 No stored analyses")
		return
	}

	fmt.Printf("\n📚 Last %d analyses:\n\n", len(analyses))
	for i, a := range analyses {
		fmt.Printf("%d. %s  (%s)\n", i+1, a.Source, a.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Printf("   ID: %s\n", a.ID)
		if a.TopRaga != "" {
			fmt.Printf("   Top raga: #%d %s (%.3f)\n", a.TopRagaNumber, a.TopRaga, a.TopConfidence)
		}
		fmt.Println()
	}
}

func handleDelete() {
	log := logger.GetLogger()

	if len(cmdArgs) < 1 {
		fmt.Println("Usage: ragasense delete <analysis_id>")
		os.Exit(1)
	}
	id := cmdArgs[0]

	svc := mustCreateService()
	defer svc.Close()

	analysis, err := svc.HistoryByID(id)
	if err != nil {
		fmt.Printf("❌ Analysis not found (ID: %s)\n", id)
		log.Warnf("Analysis %s not found: %v", id, err)
		os.Exit(1)
	}

	if err := svc.DeleteHistory(id); err != nil {
		fmt.Printf("❌ Failed to delete analysis: %v\n", err)
		log.Errorf("DeleteHistory failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("\n✅ Deleted analysis:\n")
	fmt.Printf("   ID:     %s\n", analysis.ID)
	fmt.Printf("   Source: %s\n", analysis.Source)
	log.Infof("Deleted analysis ID=%s", analysis.ID)
}

// handleDemo synthesizes a major scale (Sankarabharanam arohana) and runs it
// through the full pipeline.
func handleDemo() {
	log := logger.GetLogger()

	fmt.Println("\n🎹 Synthesizing a Sankarabharanam scale...")

	sampleRate := 16000
	cents := []float64{0, 200, 400, 500, 700, 900, 1100, 1200}
	samples := audio.GenerateScale(cents, tonicHz, 400, sampleRate)

	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("ragasense_demo_%d.wav", time.Now().UnixNano()))
	if err := audio.WriteWav(tmpFile, samples, sampleRate); err != nil {
		fmt.Printf("❌ Failed to write demo WAV: %v\n", err)
		os.Exit(1)
	}
	defer os.Remove(tmpFile)

	svc := mustCreateService()
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := svc.AnalyzeFile(ctx, tmpFile)
	if err != nil {
		fmt.Printf("❌ Demo analysis failed: %v\n", err)
		log.Errorf("Demo failed: %v", err)
		os.Exit(1)
	}

	printResult(result)
}

func mustCreateService() *service.AnalysisService {
	svc, err := createService()
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		logger.GetLogger().Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	return svc
}

func printUsage() {
	fmt.Println("RagaSense - Carnatic Raga Analysis CLI")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --db <path>         Path to SQLite database (env: RAGASENSE_DB_PATH, default: ragasense.sqlite3)")
	fmt.Println("  --configs <dir>     Reference table directory (env: RAGASENSE_CONFIG_DIR, default: embedded)")
	fmt.Println("  --tonic <hz>        Sa reference frequency (default: 261.63)")
	fmt.Println("  --algorithm <name>  Pitch tracker: acf or amdf (default: acf)")
	fmt.Println("  --script <name>     Notation script: iast, devanagari, kannada, tamil, telugu")
	fmt.Println("\nUsage:")
	fmt.Println("  ragasense analyze <audio.wav> [--top N]")
	fmt.Println("  ragasense batch <directory> [--workers N]")
	fmt.Println("  ragasense ragas")
	fmt.Println("  ragasense raga <name|number>")
	fmt.Println("  ragasense history")
	fmt.Println("  ragasense delete <analysis_id>")
	fmt.Println("  ragasense demo")
	fmt.Println("\nExamples:")
	fmt.Println("  # Analyze a recording with Sa at D4")
	fmt.Println("  ragasense --tonic 293.66 analyze alapana.wav")
	fmt.Println()
	fmt.Println("  # Batch process a practice folder")
	fmt.Println("  ragasense batch recordings/ --workers 4")
	fmt.Println()
	fmt.Println("  # Look up a raga by alias")
	fmt.Println("  ragasense raga Shankarabharanam")
}
