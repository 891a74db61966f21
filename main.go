package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"crashvm/vm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "crashvm",
		Short: "Assemble and run programs for the crashvm educational virtual machine",
	}
	root.AddCommand(newAsmCmd(), newRunCmd(), newDumpCmd())
	return root
}

func newAsmCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "asm <source-file>",
		Short: "Compile a source file into a raw byte image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := compileFile(args[0])
			if err != nil {
				return err
			}
			out := os.Stdout
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return writeImage(out, image)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the image to a file instead of stdout")
	return cmd
}

func newRunCmd() *cobra.Command {
	var hz int
	var ramSize int
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a program to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := loadImage(args[0])
			if err != nil {
				return err
			}
			machine := vm.NewVM(ramSize)
			machine.LoadProgram(image)
			if _, err := machine.Run(hz); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&hz, "hz", 0, "clock frequency in Hz; 0 runs unthrottled")
	cmd.Flags().IntVar(&ramSize, "ram", 4096, "RAM capacity in cells")
	return cmd
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print a compiled image as a go-spew dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := loadImage(args[0])
			if err != nil {
				return err
			}
			fmt.Println(spew.Sdump(image))
			return nil
		},
	}
	return cmd
}

func compileFile(path string) ([]vm.Cell, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return vm.Compile(string(src))
}

// loadImage compiles .asm sources and loads raw .img files verbatim as a
// sequence of little-endian 16-bit cells.
func loadImage(path string) ([]vm.Cell, error) {
	if len(path) > 4 && path[len(path)-4:] == ".img" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return decodeImage(raw), nil
	}
	return compileFile(path)
}

func decodeImage(raw []byte) []vm.Cell {
	image := make([]vm.Cell, len(raw)/2)
	for i := range image {
		lo := uint16(raw[i*2])
		hi := uint16(raw[i*2+1])
		image[i] = vm.Cell(int16(hi<<8 | lo))
	}
	return image
}

func writeImage(w *os.File, image []vm.Cell) error {
	buf := make([]byte, 0, len(image)*2)
	for _, c := range image {
		u := uint16(c)
		buf = append(buf, byte(u), byte(u>>8))
	}
	_, err := w.Write(buf)
	return err
}
