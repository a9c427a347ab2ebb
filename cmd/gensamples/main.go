package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go-drumseq/audio"
	"go-drumseq/config"
	"go-drumseq/encode"
	"go-drumseq/sequencer"
)

func main() {
	out := flag.String("out", "~/.config/go-drumseq/samples", "directory to write the kit into")
	rate := flag.Int("rate", 44100, "sample rate")
	flag.Parse()

	dir := config.ExpandPath(*out)
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, name := range sequencer.SampleNames {
		buf, ok := audio.Synthesize(name, *rate)
		if !ok {
			fmt.Fprintf(os.Stderr, "skip %s: no synth voice\n", name)
			continue
		}
		path := filepath.Join(dir, name)
		if err := write(path, buf); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Generated %s (%d frames)\n", path, buf.Frames())
	}
}

func write(path string, buf *audio.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode.WriteWAV(f, buf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
