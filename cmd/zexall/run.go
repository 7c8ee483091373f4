package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmchacon/z80/cpm"
	"github.com/jmchacon/z80/cpu"
)

// suiteConfig describes a named collection of conformance ROMs, loaded
// from an optional --config YAML file rather than the single positional
// ROM argument.
type suiteConfig struct {
	Name string    `yaml:"name"`
	ROMs []romSpec `yaml:"roms"`
}

type romSpec struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
	// MaxTStates bounds how long the harness will run before giving up
	// on a ROM that never calls BDOS function 0.
	MaxTStates uint64 `yaml:"max_tstates"`
}

var (
	configPath  string
	maxTStates  uint64
	quietOutput bool
)

var runCmd = &cobra.Command{
	Use:   "run [rom]",
	Short: "Run one conformance ROM, or a --config-defined suite of them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML file describing a named suite of ROMs")
	runCmd.Flags().Uint64Var(&maxTStates, "max-tstates", 200_000_000_000, "stop a ROM that never exits after this many T-states")
	runCmd.Flags().BoolVar(&quietOutput, "quiet", false, "suppress ROM console output, report only pass/fail")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		return runSuite(configPath)
	}
	if len(args) != 1 {
		return fmt.Errorf("zexall run: provide a ROM path or --config suite file")
	}
	out, failed, err := runOneROM(args[0], maxTStates)
	if err != nil {
		return err
	}
	if !quietOutput {
		fmt.Print(out)
	}
	if failed {
		return fmt.Errorf("%s: conformance failures detected", args[0])
	}
	return nil
}

func runSuite(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading suite config: %w", err)
	}
	var suite suiteConfig
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return fmt.Errorf("parsing suite config: %w", err)
	}

	anyFailed := false
	for _, rom := range suite.ROMs {
		limit := rom.MaxTStates
		if limit == 0 {
			limit = maxTStates
		}
		out, failed, err := runOneROM(rom.Path, limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", rom.Name, err)
			anyFailed = true
			continue
		}
		status := "PASS"
		if failed {
			status = "FAIL"
			anyFailed = true
		}
		fmt.Printf("[%s] %s\n", status, rom.Name)
		if !quietOutput {
			fmt.Print(out)
		}
	}
	if anyFailed {
		return fmt.Errorf("suite %q: one or more ROMs failed", suite.Name)
	}
	return nil
}

// runOneROM loads and executes a single CP/M-hosted ROM, returning its
// console transcript and whether the transcript contains ZEXALL's own
// "ERROR" failure marker.
func runOneROM(path string, limit uint64) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("reading ROM: %w", err)
	}

	var sb strings.Builder
	bus := cpm.NewFlatBus(&sb)
	bus.LoadCOM(data)

	chip, err := cpu.Init(&cpu.ChipDef{Bus: bus})
	if err != nil {
		return "", false, fmt.Errorf("initializing cpu: %w", err)
	}
	bus.AttachCPU(chip)
	chip.PC = 0x100

	for !bus.Done && bus.TStates() < limit {
		chip.Step()
	}

	transcript := sb.String()
	return transcript, strings.Contains(transcript, "ERROR"), nil
}
