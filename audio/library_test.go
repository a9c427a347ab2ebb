package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Southclaws/fault/ftag"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestLibrarySynthFallback(t *testing.T) {
	lib := NewLibrary("", 8000)
	ctx := context.Background()

	if err := lib.Load(ctx, "kick.wav"); err != nil {
		t.Fatalf("load kick: %v", err)
	}
	buf, ok := lib.Lookup("kick.wav")
	if !ok || buf.Frames() != 3200 || buf.SampleRate != 8000 {
		t.Fatalf("unexpected kick buffer %v %v", ok, buf)
	}

	if err := lib.Load(ctx, "nope.wav"); ftag.Get(err) != ftag.NotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, ok := lib.Lookup("nope.wav"); ok {
		t.Fatal("failed sample is cached")
	}
}

func TestLibraryWithoutSynth(t *testing.T) {
	lib := NewLibrary("", 8000, WithSynthFallback(false))
	if err := lib.Load(context.Background(), "kick.wav"); ftag.Get(err) != ftag.NotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLibraryPreload(t *testing.T) {
	lib := NewLibrary("", 8000)
	names := []string{"kick.wav", "kick.wav", ""}
	for name := range kit {
		names = append(names, name)
	}
	if err := lib.Preload(context.Background(), names); err != nil {
		t.Fatalf("preload: %v", err)
	}
	if got := len(lib.Names()); got != len(kit) {
		t.Fatalf("%d samples loaded, want %d", got, len(kit))
	}
}

func TestLibraryForkIsIndependent(t *testing.T) {
	lib := NewLibrary("", testRate, WithSynthFallback(false))
	lib.Put("click", ones(4))

	fork, err := lib.Fork(context.Background(), testRate, []string{"click", "missing.wav"})
	if err != nil {
		t.Fatalf("fork: %v", err)
	}
	buf, ok := fork.Lookup("click")
	if !ok {
		t.Fatal("fork lost a static buffer")
	}
	buf.Channels[0][0] = 0

	orig, _ := lib.Lookup("click")
	if orig.Channels[0][0] != 1 {
		t.Fatal("fork shares buffers with its parent")
	}
	if _, ok := fork.Lookup("missing.wav"); ok {
		t.Fatal("missing sample appeared in fork")
	}
}

func TestLibraryLoadsFromDir(t *testing.T) {
	dir := t.TempDir()
	writeTestWAV(t, filepath.Join(dir, "kick.wav"), []int{0, 16384, -16384, 32767})

	lib := NewLibrary(dir, 8000)
	if err := lib.Load(context.Background(), "kick.wav"); err != nil {
		t.Fatalf("load: %v", err)
	}
	buf, _ := lib.Lookup("kick.wav")
	if buf.Frames() != 4 {
		t.Fatalf("file should win over the synth kit, got %d frames", buf.Frames())
	}

	lib.AddCustom("kick.wav", filepath.Join(dir, "gone.wav"))
	if _, ok := lib.Lookup("kick.wav"); ok {
		t.Fatal("AddCustom kept the stale buffer")
	}
	if err := lib.Load(context.Background(), "kick.wav"); ftag.Get(err) != ftag.InvalidArgument {
		t.Fatalf("expected a decode failure, got %v", err)
	}
}

func TestDecodeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.wav")
	writeTestWAV(t, path, []int{0, 16384, -16384, 32767})

	buf, err := DecodeFile(path, 8000)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []float32{0, 0.5, -0.5, 32767.0 / 32768}
	for i, w := range want {
		if !near(buf.Channels[0][i], w) {
			t.Fatalf("sample %d = %v, want %v", i, buf.Channels[0][i], w)
		}
	}
}

func TestDecodeFileRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.ogg")
	if err := os.WriteFile(path, []byte("OggS"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeFile(path, 8000); err == nil {
		t.Fatal("expected an error")
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	for name := range kit {
		a, ok := Synthesize(name, 8000)
		if !ok {
			t.Fatalf("%s is not synthesized", name)
		}
		b, _ := Synthesize(name, 8000)
		for i := range a.Channels[0] {
			s := a.Channels[0][i]
			if s != b.Channels[0][i] {
				t.Fatalf("%s differs at frame %d", name, i)
			}
			if s < -1 || s > 1 {
				t.Fatalf("%s clips at frame %d: %v", name, i, s)
			}
		}
	}
	if _, ok := Synthesize("vocal.wav", 8000); ok {
		t.Fatal("unexpected synth voice")
	}
}

func writeTestWAV(t *testing.T, path string, samples []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}
