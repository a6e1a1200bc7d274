// Package main provides a command-line interface for the grammar induction
// engine.
package main

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aecid/parsergen/grammar"
)

var (
	flagInput     string
	flagFileType  string
	flagCSVColumn string
	flagProfile   string
	flagFormat    string
	flagVerbose   bool
	flagVisualize bool
	flagOutDir    string
)

func main() {
	root := &cobra.Command{
		Use:   "parsergen-cli",
		Short: "Induce a parser grammar from a corpus of log lines",
	}
	root.PersistentFlags().StringVar(&flagInput, "input", "", "input file path (required)")
	root.PersistentFlags().StringVar(&flagFileType, "type", "auto", "file type: auto, text, csv")
	root.PersistentFlags().StringVar(&flagCSVColumn, "csv-column", "message", "CSV column name containing log messages")
	root.PersistentFlags().StringVar(&flagProfile, "profile", "mainlog", "config profile: mainlog, audit")
	root.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	_ = root.MarkPersistentFlagRequired("input")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Build the grammar and emit every artifact",
		RunE:  runRun,
	}
	runCmd.Flags().StringVar(&flagFormat, "format", "table", "report format: table, json, csv")
	runCmd.Flags().BoolVar(&flagVisualize, "visualize", false, "also emit a Graphviz DOT document")
	runCmd.Flags().StringVar(&flagOutDir, "out", "", "directory to write tree/program/templates files into (default: stdout only)")

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Build the grammar and print only the tree dump",
		RunE:  runDump,
	}

	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "Build the grammar and print only the template list",
		RunE:  runTemplates,
	}

	root.AddCommand(runCmd, dumpCmd, templatesCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildEngine() (*grammar.Engine, zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	zl := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	var cfg grammar.Config
	switch flagProfile {
	case "audit":
		cfg = grammar.AuditConfig()
	default:
		cfg = grammar.DefaultConfig()
	}
	cfg.Visualize = flagVisualize

	engine, err := grammar.NewEngine(cfg, grammar.ZerologLogger{Log: zl})
	if err != nil {
		return nil, zl, err
	}
	return engine, zl, nil
}

func loadLines() ([][]byte, error) {
	lines, err := readInputFile(flagInput, flagFileType, flagCSVColumn)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}
	raw := make([][]byte, len(lines))
	for i, l := range lines {
		raw[i] = []byte(l)
	}
	return raw, nil
}

func runRun(cmd *cobra.Command, _ []string) error {
	engine, _, err := buildEngine()
	if err != nil {
		return err
	}
	lines, err := loadLines()
	if err != nil {
		return err
	}

	result, err := engine.Run(lines)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", w)
	}

	if flagOutDir != "" {
		if err := writeArtifacts(flagOutDir, result); err != nil {
			return err
		}
	}

	switch flagFormat {
	case "json":
		return emitJSON(cmd.OutOrStdout(), result)
	case "csv":
		return emitCSV(cmd.OutOrStdout(), result)
	default:
		return emitTable(cmd.OutOrStdout(), result)
	}
}

func runDump(cmd *cobra.Command, _ []string) error {
	engine, _, err := buildEngine()
	if err != nil {
		return err
	}
	lines, err := loadLines()
	if err != nil {
		return err
	}
	result, err := engine.Run(lines)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), result.TreeDump)
	return nil
}

func runTemplates(cmd *cobra.Command, _ []string) error {
	engine, _, err := buildEngine()
	if err != nil {
		return err
	}
	lines, err := loadLines()
	if err != nil {
		return err
	}
	result, err := engine.Run(lines)
	if err != nil {
		return err
	}
	for _, t := range result.Templates {
		fmt.Fprintln(cmd.OutOrStdout(), t)
	}
	return nil
}

func writeArtifacts(dir string, result *grammar.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	writes := map[string]string{
		"tree.txt":      result.TreeDump,
		"parser.py":     result.Program,
		"templates.txt": strings.Join(result.Templates, "\n") + "\n",
	}
	if result.Visualization != "" {
		writes["graph.dot"] = result.Visualization
	}
	for name, content := range writes {
		if err := os.WriteFile(dir+"/"+name, []byte(content), 0o644); err != nil { // #nosec G306
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

type jsonReport struct {
	RunID     string            `json:"run_id"`
	Templates []string          `json:"templates"`
	Stats     grammar.Stats     `json:"stats"`
	Warnings  []string          `json:"warnings,omitempty"`
	Clusters  []grammar.Cluster `json:"clusters,omitempty"`
}

func emitJSON(w io.Writer, result *grammar.Result) error {
	report := jsonReport{
		RunID:     result.RunID,
		Templates: result.Templates,
		Stats:     result.Stats,
	}
	for _, warn := range result.Warnings {
		report.Warnings = append(report.Warnings, warn.Error())
	}
	if flagVerbose {
		report.Clusters = result.Clusters
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func emitCSV(w io.Writer, result *grammar.Result) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"template", "line_count"}); err != nil {
		return err
	}
	for _, c := range result.Clusters {
		if err := writer.Write([]string{c.Template, fmt.Sprintf("%d", len(c.LineNumbers))}); err != nil {
			return err
		}
	}
	return nil
}

func emitTable(w io.Writer, result *grammar.Result) error {
	fmt.Fprintf(w, "run %s: %d templates, %d nodes, %d leaves\n",
		result.RunID, len(result.Templates), result.Stats.NodeCount, result.Stats.LeafCount)
	fmt.Fprintf(w, "%-6s %-80s\n", "LINES", "TEMPLATE")
	fmt.Fprintln(w, strings.Repeat("-", 86))
	for _, c := range result.Clusters {
		fmt.Fprintf(w, "%-6d %-80s\n", len(c.LineNumbers), c.Template)
	}
	return nil
}

// readInputFile reads log lines from various file formats, auto-detecting
// by extension when fileType is "auto".
func readInputFile(filename, fileType, csvColumn string) ([]string, error) {
	file, err := os.Open(filename) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if fileType == "auto" {
		if strings.HasSuffix(strings.ToLower(filename), ".csv") {
			fileType = "csv"
		} else {
			fileType = "text"
		}
	}

	switch fileType {
	case "csv":
		return readCSVFile(file, csvColumn)
	case "text":
		return readTextFile(file)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", fileType)
	}
}

func readTextFile(reader io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading text file: %w", err)
	}
	return lines, nil
}

func readCSVFile(reader io.Reader, columnName string) ([]string, error) {
	csvReader := csv.NewReader(reader)
	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	messageIndex := -1
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), columnName) {
			messageIndex = i
			break
		}
	}
	if messageIndex == -1 {
		return nil, fmt.Errorf("column %q not found in CSV, available: %v", columnName, header)
	}

	var lines []string
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV record: %w", err)
		}
		if messageIndex < len(record) {
			if msg := strings.TrimSpace(record[messageIndex]); msg != "" {
				lines = append(lines, msg)
			}
		}
	}
	return lines, nil
}
