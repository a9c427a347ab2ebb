package sequencer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/mitchellh/go-homedir"

	"go-drumseq/audio"
)

// AssignCustomSample registers the file at path under its base name, points
// the channel at it and decodes it. The channel is updated even when the
// decode fails, in which case it plays silent.
func AssignCustomSample(ctx context.Context, store *Store, lib *audio.Library, channelID int, path string) (string, error) {
	path, err := homedir.Expand(strings.TrimSpace(path))
	if err != nil {
		return "", fault.Wrap(err, fmsg.WithDesc("expand sample path", "Invalid sample path"), ftag.With(ftag.InvalidArgument))
	}
	if _, err := os.Stat(path); err != nil {
		return "", fault.Wrap(err, fmsg.WithDesc("stat sample", "Sample file not found: "+path), ftag.With(ftag.NotFound))
	}
	p := store.Snapshot()
	if _, ok := p.Channel(channelID); !ok {
		return "", fault.New(fmt.Sprintf("no channel %d", channelID), ftag.With(ftag.NotFound))
	}

	name := filepath.Base(path)
	lib.AddCustom(name, path)
	store.Dispatch(UpdateChannel{ChannelID: channelID, Patch: ChannelPatch{Sample: &name}})
	if err := lib.Load(ctx, name); err != nil {
		return name, err
	}
	return name, nil
}

// ParseSampleAssignment splits a "channel=path" argument. The channel is
// matched by id first, then by name (case-insensitive).
func ParseSampleAssignment(p Pattern, arg string) (int, string, error) {
	target, path, ok := strings.Cut(arg, "=")
	if !ok || target == "" || path == "" {
		return 0, "", fault.New("sample assignment "+arg,
			fmsg.WithDesc("parse sample", "Expected channel=path"), ftag.With(ftag.InvalidArgument))
	}
	if id, err := strconv.Atoi(target); err == nil {
		if _, ok := p.Channel(id); ok {
			return id, path, nil
		}
	}
	for _, ch := range p.Channels {
		if strings.EqualFold(ch.Name, target) {
			return ch.ID, path, nil
		}
	}
	return 0, "", fault.New("no channel "+target,
		fmsg.WithDesc("parse sample", "No channel named "+target), ftag.With(ftag.NotFound))
}
