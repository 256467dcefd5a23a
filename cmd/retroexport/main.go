// Package main is the entry point for the retroexport CLI
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"retroexport/pkg/api"
	"retroexport/pkg/export"
	"retroexport/pkg/project"
	"retroexport/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputFile string
	formatName string
	sampleRate float64
	serverPort int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "retroexport",
	Short: "Export tracker songs to legacy binary music formats",
	Long: `retroexport renders tracker song projects into the binary formats
of legacy players: OctaMED MMD0 modules, Oktalyzer containers, the
compact NANO player stream, Standard MIDI Files, and GYM chip
register logs.

Song exports read the editor's project JSON; the GYM export reads a
register capture trace instead.

Examples:
  retroexport export song.json -o song.med
  retroexport med song.json
  retroexport okt song.json -o outdir/song.okt
  retroexport gym capture.json --rate 44100
  retroexport info song.json
  retroexport tui
  retroexport serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var exportCmd = &cobra.Command{
	Use:   "export <input.json>",
	Short: "Export to the format named by --format or the output extension",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var medCmd = &cobra.Command{
	Use:   "med <input.json>",
	Short: "Export an OctaMED MMD0 module",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return exportAs(args[0], "med") },
}

var oktCmd = &cobra.Command{
	Use:   "okt <input.json>",
	Short: "Export an Oktalyzer module",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return exportAs(args[0], "okt") },
}

var nanoCmd = &cobra.Command{
	Use:   "nano <input.json>",
	Short: "Export a compact NANO player stream",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return exportAs(args[0], "nano") },
}

var midCmd = &cobra.Command{
	Use:   "mid <input.json>",
	Short: "Export a Standard MIDI File",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return exportAs(args[0], "mid") },
}

var gymCmd = &cobra.Command{
	Use:   "gym <trace.json>",
	Short: "Export a GYM register log from a capture trace",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return exportTrace(args[0]) },
}

var infoCmd = &cobra.Command{
	Use:   "info <input.json>",
	Short: "Show a project summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Export commands share the output flag
	for _, cmd := range []*cobra.Command{exportCmd, medCmd, oktCmd, nanoCmd, midCmd, gymCmd} {
		cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	}
	exportCmd.Flags().StringVarP(&formatName, "format", "f", "", "Target format (med, okt, nano, mid, gym)")
	gymCmd.Flags().Float64Var(&sampleRate, "rate", export.DefaultSampleRate, "Sample rate the trace timestamps count in")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	// Add commands
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(medCmd)
	rootCmd.AddCommand(oktCmd)
	rootCmd.AddCommand(nanoCmd)
	rootCmd.AddCommand(midCmd)
	rootCmd.AddCommand(gymCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func getOutputPath(input, defaultExt string) string {
	if outputFile != "" {
		return outputFile
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + defaultExt
}

func runExport(cmd *cobra.Command, args []string) error {
	format := formatName
	if format == "" && outputFile != "" {
		if f := export.DetectFormat(outputFile); f != export.FormatUnknown {
			format = string(f)
		}
	}
	if format == "" {
		return fmt.Errorf("cannot determine target format: pass --format or an --output with a known extension (%s)",
			strings.Join(export.FormatNames(), ", "))
	}
	if format == string(export.FormatGYM) {
		return exportTrace(args[0])
	}
	return exportAs(args[0], format)
}

func exportAs(input, format string) error {
	e, err := export.ByName(format)
	if err != nil {
		return err
	}

	song, err := project.Load(input)
	if err != nil {
		return err
	}
	if !e.CanExport(song) {
		return fmt.Errorf("song cannot be exported as %s", e.Name())
	}

	output := getOutputPath(input, e.Extension())
	if err := export.WriteFile(e, song, output); err != nil {
		return err
	}

	fmt.Printf("Exported %s -> %s\n", input, output)
	return nil
}

func exportTrace(input string) error {
	trace, err := project.LoadTrace(input)
	if err != nil {
		return err
	}
	if !export.CanEncodeGYM(trace) {
		fmt.Println("Warning: trace has no FM or PSG writes, output will be empty")
	}

	output := getOutputPath(input, ".gym")
	if err := export.WriteGYMFile(trace, sampleRate, output); err != nil {
		return err
	}

	fmt.Printf("Exported %s -> %s\n", input, output)
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	song, err := project.Load(args[0])
	if err != nil {
		return err
	}

	name := song.Name
	if name == "" {
		name = "(untitled)"
	}
	fmt.Printf("Song:        %s\n", name)
	fmt.Printf("Channels:    %d\n", song.NumChannels)
	fmt.Printf("Tempo:       %d BPM, speed %d\n", song.BPM, song.Speed)
	fmt.Printf("Positions:   %d\n", len(song.SongPositions))
	fmt.Printf("Patterns:    %d\n", len(song.Patterns))
	for i, pat := range song.Patterns {
		if pat != nil {
			fmt.Printf("  %2d. %d rows\n", i, pat.Length)
		}
	}
	fmt.Printf("Instruments: %d\n", len(song.Instruments))
	for i, inst := range song.Instruments {
		if inst == nil {
			continue
		}
		frames := 0
		if inst.Sample != nil {
			frames = len(inst.Sample.Data)
		}
		fmt.Printf("  %2d. %-22s %-10s %7d frames\n", i+1, inst.Name, inst.SynthType, frames)
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run()
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort)
}
