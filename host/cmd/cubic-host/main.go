package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"cubicdrive/config"
	"cubicdrive/host/board"
	"cubicdrive/host/serial"
)

var (
	device     = flag.String("device", "/dev/ttyACM0", "Serial device path")
	configPath = flag.String("config", "", "Board configuration JSON (default: reference board)")
	script     = flag.String("script", "", "Run commands from a file and exit")
	verbose    = flag.Bool("verbose", false, "Print board debug output")
	dryRun     = flag.Bool("dry-run", false, "Print link frames as hex instead of opening the device")
)

func main() {
	flag.Parse()

	fmt.Println("cubic-host - motor driver bench tool")
	fmt.Println("====================================")
	fmt.Println()

	cfg, err := loadBoardConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	dec := cfg.Decoder()
	fmt.Printf("Board: %d main + %d sub channels, %d-byte frames\n", dec.MainChannels, dec.SubChannels, dec.Size())

	var b *board.Board
	if *dryRun {
		mem := serial.NewMemPort()
		b = board.New(&hexPort{MemPort: mem, out: os.Stdout}, dec)
		fmt.Println("Dry run: frames are printed, not sent")
	} else {
		fmt.Printf("Connecting to board on %s...\n", *device)
		b, err = board.Connect(*device, dec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Connected successfully!")
		if *verbose {
			go printBoardOutput(b)
		}
	}
	defer b.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	sh := newShell(b, os.Stdout)
	if *script != "" {
		err = sh.runFile(ctx, *script)
	} else {
		fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
		err = sh.run(ctx, os.Stdin, "stdin", true)
	}

	// Never leave motors running when the tool exits
	if stopErr := b.Stop(); stopErr != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to stop motors: %v\n", stopErr)
	}

	if err != nil && !errors.Is(err, errQuit) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Goodbye!")
}

func loadBoardConfig(path string) (*config.BoardConfig, error) {
	if path == "" {
		return config.DefaultBoardConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := config.LoadConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// printBoardOutput echoes debug lines the firmware writes to USB
func printBoardOutput(b *board.Board) {
	for {
		// Read timeouts end the scanner with ErrNoProgress; start over
		scanner := bufio.NewScanner(b.Port())
		for scanner.Scan() {
			fmt.Printf("[board] %s\n", scanner.Text())
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// hexPort prints every write as one line of hex
type hexPort struct {
	*serial.MemPort
	out io.Writer
}

func (p *hexPort) Write(b []byte) (int, error) {
	fmt.Fprintf(p.out, "-> % x\n", b)
	return p.MemPort.Write(b)
}
