// Package importer copies prepared eye-tracking recordings into a project.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"zarafe/internal/gaze"
	"zarafe/internal/logger"
	"zarafe/internal/metadata"
	"zarafe/internal/recording"
)

var ErrNoRecordings = errors.New("no recordings found")

// Devices are the eye trackers offered when importing. The name becomes the directory prefix.
var Devices = []string{
	"AdHawk MindLink",
	"Argus Science ETVision",
	"Meta Project Aria Gen 1",
	"Pupil Core",
	"Pupil Invisible",
	"Pupil Neon",
	"SeeTrue STONE",
	"SMI ETG",
	"Tobii Pro Glasses 2",
	"Tobii Pro Glasses 3",
	"Generic",
}

const sceneVideoStem = "worldCamera"

// copied alongside the gaze data when present
var optionalFiles = []string{
	recording.EventsFileName,
	recording.MarkerFileName,
	recording.MetadataFileName,
}

// Transcoder converts a scene video to mp4.
type Transcoder interface {
	Transcode(ctx context.Context, src, dst string) error
}

// Progress is called before each recording is imported and once more when done.
type Progress func(done, total int, current string)

// Source is a prepared recording found in the import directory.
type Source struct {
	Dir         string
	Name        string
	Participant string
	Video       string
	Gaze        string
}

type Importer struct {
	transcoder Transcoder
	log        logger.Logger
}

func New(t Transcoder, log logger.Logger) *Importer {
	return &Importer{transcoder: t, log: log}
}

// Scan looks for prepared recordings in dir and its immediate subdirectories.
func Scan(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read import directory: %w", err)
	}

	candidates := []string{dir}
	for _, e := range entries {
		if e.IsDir() {
			candidates = append(candidates, filepath.Join(dir, e.Name()))
		}
	}

	var found []Source
	for _, c := range candidates {
		if src, ok := inspect(c); ok {
			found = append(found, src)
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return recording.NaturalLess(found[i].Name, found[j].Name) })
	return found, nil
}

func inspect(dir string) (Source, bool) {
	gazePath, err := gaze.Locate(dir)
	if err != nil {
		return Source{}, false
	}
	video := findSceneVideo(dir)
	if video == "" {
		return Source{}, false
	}

	src := Source{Dir: dir, Name: filepath.Base(dir), Video: video, Gaze: gazePath}
	if f, err := os.Open(filepath.Join(dir, recording.MetadataFileName)); err == nil {
		meta := metadata.New(nil)
		if meta.ReadCSV(f) == nil {
			src.Participant = meta.Get(metadata.ParticipantID)
		}
		f.Close()
	}
	return src, true
}

// findSceneVideo prefers worldCamera.mp4 over other containers.
func findSceneVideo(dir string) string {
	mp4 := filepath.Join(dir, recording.VideoFileName)
	if info, err := os.Stat(mp4); err == nil && !info.IsDir() {
		return mp4
	}
	matches, _ := filepath.Glob(filepath.Join(dir, sceneVideoStem+".*"))
	sort.Strings(matches)
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			return m
		}
	}
	return ""
}

// Import copies every recording found under source into projectDir and returns how many succeeded.
// Failed recordings are skipped and reported together; a cancelled context stops before the next one.
func (im *Importer) Import(ctx context.Context, source, projectDir, device string, progress Progress) (int, error) {
	sources, err := Scan(source)
	if err != nil {
		return 0, err
	}
	if len(sources) == 0 {
		return 0, fmt.Errorf("%w in %s", ErrNoRecordings, source)
	}
	if progress == nil {
		progress = func(int, int, string) {}
	}

	var (
		imported int
		result   *multierror.Error
	)
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}
		progress(i, len(sources), src.Name)

		dest := filepath.Join(projectDir, UniqueDir(projectDir, DirName(device, src.Participant, src.Name)))
		if err := im.importOne(ctx, src, dest); err != nil {
			_ = os.RemoveAll(dest)
			im.log.Error("importer", err, map[string]interface{}{"recording": src.Name})
			result = multierror.Append(result, fmt.Errorf("%s: %w", src.Name, err))
			continue
		}
		imported++
		im.log.Info("importer", "recording imported", map[string]interface{}{
			"recording": src.Name,
			"dest":      dest,
		})
	}
	progress(len(sources), len(sources), "")

	return imported, result.ErrorOrNil()
}

func (im *Importer) importOne(ctx context.Context, src Source, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	if err := copyFile(src.Gaze, filepath.Join(dest, filepath.Base(src.Gaze))); err != nil {
		return fmt.Errorf("copy gaze data: %w", err)
	}
	for _, name := range optionalFiles {
		p := filepath.Join(src.Dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := copyFile(p, filepath.Join(dest, name)); err != nil {
			return fmt.Errorf("copy %s: %w", name, err)
		}
	}

	videoDst := filepath.Join(dest, recording.VideoFileName)
	if strings.EqualFold(filepath.Ext(src.Video), ".mp4") {
		if err := copyFile(src.Video, videoDst); err != nil {
			return fmt.Errorf("copy scene video: %w", err)
		}
		return nil
	}
	if im.transcoder == nil {
		return fmt.Errorf("scene video %s needs transcoding", filepath.Base(src.Video))
	}
	return im.transcoder.Transcode(ctx, src.Video, videoDst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
