package editor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tagbatch/mp3"
)

func TestLoadFilesSkipsDuplicates(t *testing.T) {
	dir := tempDir(t)
	a := writeMP3(t, dir, "a.mp3", mp3.Values{mp3.FieldTitle: "A"}, nil)
	b := writeMP3(t, dir, "b.mp3", nil, nil)

	s := newTestSession()
	res := s.LoadFiles(t.Context(), []string{a, a, b})
	if res.Loaded != 2 || res.Skipped != 1 || len(res.Failures) != 0 {
		t.Fatalf("first load = %+v", res)
	}

	// Same file through a different spelling of the path.
	res = s.LoadFiles(t.Context(), []string{filepath.Join(dir, ".", "a.mp3")})
	if res.Loaded != 0 || res.Skipped != 1 {
		t.Errorf("second load = %+v, want one skipped", res)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}

	recs := s.Records()
	if recs[0].Get(mp3.FieldTitle) != "A" || recs[0].Name() != "a.mp3" {
		t.Errorf("records out of input order: %s, %s", recs[0].Name(), recs[1].Name())
	}
	if recs[0].State() != StateClean {
		t.Errorf("State = %v, want clean", recs[0].State())
	}
}

func TestLoadFilesReportsFailures(t *testing.T) {
	dir := tempDir(t)
	good := writeMP3(t, dir, "good.mp3", nil, nil)
	junk := filepath.Join(dir, "junk.mp3")
	if err := os.WriteFile(junk, bytes.Repeat([]byte("junk"), 100), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.mp3")

	s := newTestSession()
	res := s.LoadFiles(t.Context(), []string{junk, good, missing, ""})

	if res.Loaded != 1 || s.Len() != 1 {
		t.Errorf("Loaded = %d, Len = %d, want 1", res.Loaded, s.Len())
	}
	if len(res.Failures) != 3 {
		t.Fatalf("Failures = %v, want 3", res.Failures)
	}

	var sawUnreadable, sawMissing, sawInvalid bool
	for _, f := range res.Failures {
		switch {
		case errors.Is(f, ErrUnreadableFormat):
			sawUnreadable = true
		case errors.Is(f, os.ErrNotExist):
			sawMissing = true
		case errors.Is(f, ErrInvalidArgument):
			sawInvalid = true
		}
	}
	if !sawUnreadable || !sawMissing || !sawInvalid {
		t.Errorf("failures = %v", res.Failures)
	}
}

func TestLoadFilesCancelled(t *testing.T) {
	path := writeMP3(t, tempDir(t), "a.mp3", nil, nil)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	s := newTestSession()
	res := s.LoadFiles(ctx, []string{path})
	if res.Loaded != 0 || len(res.Failures) != 1 || !errors.Is(res.Failures[0], context.Canceled) {
		t.Errorf("result = %+v", res)
	}
}

func TestLoadFolder(t *testing.T) {
	dir := tempDir(t)
	writeMP3(t, dir, "1.mp3", nil, nil)
	writeMP3(t, dir, "2.MP3", nil, nil)
	if err := os.WriteFile(filepath.Join(dir, "cover.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newTestSession()
	res := s.LoadFolder(t.Context(), dir, ".mp3", false)
	if res.Loaded != 2 || len(res.Failures) != 0 {
		t.Errorf("LoadFolder = %+v", res)
	}

	res = s.LoadFolder(t.Context(), filepath.Join(dir, "nope"), ".mp3", false)
	if len(res.Failures) != 1 || res.Failures[0].Op != "scan" {
		t.Errorf("missing folder = %+v", res)
	}
}

func TestSelection(t *testing.T) {
	dir := tempDir(t)
	a := writeMP3(t, dir, "a.mp3", nil, nil)
	b := writeMP3(t, dir, "b.mp3", nil, nil)
	s := newTestSession()
	loadAll(t, s, a, b)

	sel, err := s.SelectIndices(1, 0)
	if err != nil || sel[0].Name() != "b.mp3" || sel[1].Name() != "a.mp3" {
		t.Errorf("SelectIndices = %v, %v", sel, err)
	}
	if _, err := s.SelectIndices(2); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("out of range error = %v", err)
	}
	if _, err := s.Select(filepath.Join(dir, "c.mp3")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unknown path error = %v", err)
	}
	if s.Lookup(a) == nil {
		t.Error("Lookup(a) = nil")
	}
	if got := len(s.SelectAll()); got != 2 {
		t.Errorf("SelectAll len = %d", got)
	}
}

func TestApplyRejectsForeignRecords(t *testing.T) {
	s := newTestSession()
	_, err := s.Apply([]*Record{record(nil)}, Edits{})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
	if _, err := s.AutoNumberTracks([]*Record{nil}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestSavePersistsEdits(t *testing.T) {
	dir := tempDir(t)
	a := writeMP3(t, dir, "a.mp3", mp3.Values{mp3.FieldTitle: "A", mp3.FieldComment: "keep"}, nil)
	b := writeMP3(t, dir, "b.mp3", mp3.Values{mp3.FieldTitle: "B"}, nil)
	art := &mp3.Artwork{Data: testPNG(t, 2, 2), MIME: mp3.MIMEPNG}

	s := newTestSession()
	sel := loadAll(t, s, a, b)
	if _, err := s.Apply(sel, Edits{
		Values:        mp3.Values{mp3.FieldArtist: "Band"},
		ArtworkEdited: true,
		Artwork:       art,
	}); err != nil {
		t.Fatal(err)
	}
	for _, r := range sel {
		if r.State() != StateEdited {
			t.Fatalf("%s state = %v, want edited", r.Name(), r.State())
		}
	}

	res := s.Save(t.Context(), sel)
	if !res.OK() || res.String() != "2 of 2 succeeded" {
		t.Fatalf("Save = %s", res.Summary())
	}
	for _, r := range sel {
		if r.State() != StateClean {
			t.Errorf("%s state = %v, want clean", r.Name(), r.State())
		}
	}

	fresh := newTestSession()
	reloaded := loadAll(t, fresh, a, b)
	want := []mp3.Values{
		{mp3.FieldTitle: "A", mp3.FieldArtist: "Band", mp3.FieldComment: "keep"},
		{mp3.FieldTitle: "B", mp3.FieldArtist: "Band"},
	}
	for i, r := range reloaded {
		for _, d := range Fields {
			if r.Get(d.Field) != want[i].Get(d.Field) {
				t.Errorf("%s %s = %q, want %q", r.Name(), d.Field, r.Get(d.Field), want[i].Get(d.Field))
			}
		}
		if !r.Artwork().Equal(art) {
			t.Errorf("%s artwork not saved", r.Name())
		}
	}

	data, err := os.ReadFile(a)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasSuffix(data, audioStream(8)) {
		t.Error("audio stream not preserved")
	}
}

func TestSaveContinuesAfterFailure(t *testing.T) {
	dir := tempDir(t)
	a := writeMP3(t, dir, "a.mp3", nil, nil)
	b := writeMP3(t, dir, "b.mp3", nil, nil)

	s := newTestSession()
	sel := loadAll(t, s, a, b)
	if _, err := s.Apply(sel, Edits{Values: mp3.Values{mp3.FieldTitle: "T"}}); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(a); err != nil {
		t.Fatal(err)
	}

	res := s.Save(t.Context(), sel)
	if res.Attempted != 2 || res.Succeeded != 1 || len(res.Failures) != 1 {
		t.Fatalf("Save = %s", res.Summary())
	}
	if !errors.Is(res.Failures[0], ErrWriteFailure) {
		t.Errorf("failure = %v, want ErrWriteFailure", res.Failures[0])
	}
	if sel[0].State() != StateEdited || sel[1].State() != StateClean {
		t.Errorf("states = %v, %v", sel[0].State(), sel[1].State())
	}
}

func TestSaveReportsSkippedFields(t *testing.T) {
	path := writeMP3(t, tempDir(t), "a.mp3", mp3.Values{mp3.FieldTrack: "2"}, nil)
	s := newTestSession()
	sel := loadAll(t, s, path)
	if _, err := s.Apply(sel, Edits{Values: mp3.Values{mp3.FieldTrack: "two", mp3.FieldTitle: "T"}}); err != nil {
		t.Fatal(err)
	}

	res := s.Save(t.Context(), sel)
	if !res.OK() {
		t.Fatalf("Save = %s", res.Summary())
	}
	if len(res.Warnings) != 1 || !errors.Is(res.Warnings[0], ErrFieldWriteSkipped) {
		t.Fatalf("Warnings = %v", res.Warnings)
	}

	reloaded := loadAll(t, newTestSession(), path)
	if got := reloaded[0].Get(mp3.FieldTrack); got != "2" {
		t.Errorf("track = %q, want on-disk value 2", got)
	}
	if got := reloaded[0].Get(mp3.FieldTitle); got != "T" {
		t.Errorf("title = %q, want T", got)
	}
}

func TestSaveAsCopiesFirst(t *testing.T) {
	dir := tempDir(t)
	src := writeMP3(t, dir, "src.mp3", mp3.Values{mp3.FieldTitle: "Original"}, nil)
	before, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}

	s := newTestSession()
	sel := loadAll(t, s, src)
	if _, err := s.Apply(sel, Edits{Values: mp3.Values{mp3.FieldTitle: "Copy"}}); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "copy.mp3")
	if res := s.SaveAs(sel[0], dst); !res.OK() {
		t.Fatalf("SaveAs = %s", res.Summary())
	}

	after, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("SaveAs modified the source file")
	}
	if sel[0].Path() != src || sel[0].State() != StateEdited {
		t.Errorf("record changed: path=%s state=%v", sel[0].Path(), sel[0].State())
	}

	copied := loadAll(t, newTestSession(), dst)
	if got := copied[0].Get(mp3.FieldTitle); got != "Copy" {
		t.Errorf("copy title = %q, want Copy", got)
	}

	if res := s.SaveAs(sel[0], ""); res.OK() || !errors.Is(res.Failures[0], ErrInvalidArgument) {
		t.Errorf("empty path result = %s", res.Summary())
	}
}

func TestAutoNumberTracks(t *testing.T) {
	dir := tempDir(t)
	var paths []string
	for _, name := range []string{"f1.mp3", "f2.mp3", "f3.mp3", "f4.mp3"} {
		paths = append(paths, writeMP3(t, dir, name, mp3.Values{mp3.FieldDisc: "1"}, nil))
	}

	s := newTestSession()
	sel := loadAll(t, s, paths...)
	res, err := s.AutoNumberTracks(sel)
	if err != nil {
		t.Fatal(err)
	}
	if res.Records != 4 {
		t.Errorf("changed records = %d, want 4", res.Records)
	}

	for i, r := range sel {
		if want := string(rune('1' + i)); r.Get(mp3.FieldTrack) != want {
			t.Errorf("%s track = %q, want %q", r.Name(), r.Get(mp3.FieldTrack), want)
		}
		if r.Get(mp3.FieldTrackTotal) != "4" {
			t.Errorf("%s track-total = %q, want 4", r.Name(), r.Get(mp3.FieldTrackTotal))
		}
		if r.Get(mp3.FieldDisc) != "1" {
			t.Errorf("%s disc changed", r.Name())
		}
		if r.State() != StateEdited {
			t.Errorf("%s state = %v", r.Name(), r.State())
		}
	}

	// In-memory only until saved.
	if got := loadAll(t, newTestSession(), paths[2])[0].Get(mp3.FieldTrack); got != "" {
		t.Errorf("track on disk = %q before save", got)
	}
}

func TestRename(t *testing.T) {
	dir := tempDir(t)
	a := writeMP3(t, dir, "a.mp3", nil, nil)
	b := writeMP3(t, dir, "b.mp3", nil, nil)

	s := newTestSession()
	sel := loadAll(t, s, a, b)
	rec := sel[0]

	t.Run("conflict", func(t *testing.T) {
		err := s.Rename(rec, "b")
		if !errors.Is(err, ErrNameConflict) {
			t.Fatalf("error = %v, want ErrNameConflict", err)
		}
		if rec.Path() != a {
			t.Errorf("path = %s, want %s", rec.Path(), a)
		}
		if _, err := os.Stat(a); err != nil {
			t.Errorf("original file: %v", err)
		}
	})

	t.Run("no-op", func(t *testing.T) {
		for _, name := range []string{"", "a"} {
			if err := s.Rename(rec, name); err != nil || rec.Path() != a {
				t.Errorf("Rename(%q) = %v, path %s", name, err, rec.Path())
			}
		}
	})

	t.Run("invalid name", func(t *testing.T) {
		if err := s.Rename(rec, "../escape"); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		if err := s.Rename(rec, "renamed"); err != nil {
			t.Fatalf("Rename() error = %v", err)
		}
		want := filepath.Join(dir, "renamed.mp3")
		if rec.Path() != want {
			t.Errorf("path = %s, want %s", rec.Path(), want)
		}
		if _, err := os.Stat(a); !os.IsNotExist(err) {
			t.Error("old file still exists")
		}
		if s.Lookup(want) != rec || s.Lookup(a) != nil {
			t.Error("index not updated")
		}
	})

	t.Run("file gone", func(t *testing.T) {
		other := sel[1]
		if err := os.Remove(other.Path()); err != nil {
			t.Fatal(err)
		}
		err := s.Rename(other, "c")
		if !errors.Is(err, ErrRenameInUse) {
			t.Errorf("error = %v, want ErrRenameInUse", err)
		}
		if other.Path() != b {
			t.Errorf("path changed to %s", other.Path())
		}
	})
}

func TestRemove(t *testing.T) {
	dir := tempDir(t)
	a := writeMP3(t, dir, "a.mp3", nil, nil)
	b := writeMP3(t, dir, "b.mp3", nil, nil)

	s := newTestSession()
	sel := loadAll(t, s, a, b)
	if n := s.Remove(sel[:1]); n != 1 {
		t.Errorf("Remove = %d, want 1", n)
	}
	if s.Len() != 1 || s.Lookup(a) != nil {
		t.Error("record still in working set")
	}
	if sel[0].State() != StateRemoved {
		t.Errorf("state = %v, want removed", sel[0].State())
	}
	if _, err := os.Stat(a); err != nil {
		t.Errorf("file removed from disk: %v", err)
	}
	if n := s.Remove(sel[:1]); n != 0 {
		t.Errorf("second Remove = %d, want 0", n)
	}

	// A removed file can be loaded again.
	if res := s.LoadFiles(t.Context(), []string{a}); res.Loaded != 1 {
		t.Errorf("reload = %+v", res)
	}
}

func TestArtworkFromFile(t *testing.T) {
	dir := tempDir(t)
	img := filepath.Join(dir, "cover.png")
	if err := os.WriteFile(img, testPNG(t, 40, 20), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newTestSession(WithArtworkLimits(1<<20, 10))
	art, err := s.ArtworkFromFile(img)
	if err != nil {
		t.Fatalf("ArtworkFromFile() error = %v", err)
	}
	if art.MIME != mp3.MIMEPNG || len(art.Data) == 0 {
		t.Errorf("artwork = %s, %d bytes", art.MIME, len(art.Data))
	}

	small := newTestSession(WithArtworkLimits(10, 0))
	if _, err := small.ArtworkFromFile(img); err == nil {
		t.Error("expected size limit error")
	}
	if _, err := s.ArtworkFromFile(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
