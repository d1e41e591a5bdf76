package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/oisee/chip64/pkg/chip64"
	"github.com/oisee/chip64/pkg/device"
	"github.com/oisee/chip64/pkg/isa"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chip64",
		Short: "Chip64 virtual machine — run 16-bit bytecode images",
	}

	// run command
	var memSlot, romSlot, fpuSlot int
	var romFile string
	var seed int64
	var trace bool
	var dumpState string

	runCmd := &cobra.Command{
		Use:   "run [image]",
		Short: "Execute a program image until HALT or fault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			devices, err := buildDevices(memSlot, romSlot, fpuSlot, romFile)
			if err != nil {
				return err
			}

			cfg := chip64.Config{Devices: devices, Seed: seed}
			if seed == 0 {
				cfg.Seed = time.Now().UnixNano()
			}
			if trace {
				cfg.Trace = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				}))
			}

			m, err := chip64.New(program, cfg)
			if err != nil {
				return err
			}
			m.Run()

			if dumpState != "" {
				f, err := os.Create(dumpState)
				if err != nil {
					return err
				}
				defer f.Close()
				enc := json.NewEncoder(f)
				enc.SetIndent("", "  ")
				if err := enc.Encode(m.Snapshot()); err != nil {
					return err
				}
			}

			if code := m.ExitCode(); code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
	runCmd.Flags().IntVar(&memSlot, "mem-slot", -1, "Bus slot for the memory extension (-1 = off)")
	runCmd.Flags().IntVar(&romSlot, "rom-slot", -1, "Bus slot for the ROM device (-1 = off)")
	runCmd.Flags().IntVar(&fpuSlot, "fpu-slot", -1, "Bus slot for the floating-point device (-1 = off)")
	runCmd.Flags().StringVar(&romFile, "rom-file", device.DefaultRomPath, "ROM image path")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for BAR (0 = time-based)")
	runCmd.Flags().BoolVar(&trace, "trace", false, "Log every executed instruction to stderr")
	runCmd.Flags().StringVar(&dumpState, "dump-state", "", "Write final machine state as JSON to this file")

	// disasm command
	disasmCmd := &cobra.Command{
		Use:   "disasm [image]",
		Short: "Print a catalog listing of a program image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			for addr := 0; addr+1 < len(program); addr += 2 {
				in := isa.Decode(program[addr], program[addr+1])
				fmt.Printf("%03X: %s\n", addr, isa.Disassemble(in))
			}
			if len(program)%2 != 0 {
				fmt.Printf("%03X: DB 0x%02X\n", len(program)-1, program[len(program)-1])
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, disasmCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildDevices wires the optional standard devices into a slot map. Slot 0
// keeps the default console unless explicitly overridden.
func buildDevices(memSlot, romSlot, fpuSlot int, romFile string) (map[uint8]device.Device, error) {
	devices := make(map[uint8]device.Device)

	add := func(slot int, name string, d device.Device) error {
		if slot < 0 {
			return nil
		}
		if slot >= device.NumSlots {
			return fmt.Errorf("%s slot %d out of range (0-%d)", name, slot, device.NumSlots-1)
		}
		if _, taken := devices[uint8(slot)]; taken {
			return fmt.Errorf("slot %d assigned twice", slot)
		}
		devices[uint8(slot)] = d
		return nil
	}

	if err := add(memSlot, "memory", device.NewMemory()); err != nil {
		return nil, err
	}
	if romSlot >= 0 {
		rom, err := device.NewRom(romFile)
		if err != nil {
			return nil, err
		}
		if err := add(romSlot, "rom", rom); err != nil {
			return nil, err
		}
	}
	if err := add(fpuSlot, "fpu", device.NewFPU()); err != nil {
		return nil, err
	}
	return devices, nil
}
